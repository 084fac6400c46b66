package lang

func init() {
	Register(&Profile{
		Language:           Kotlin,
		Extensions:         []string{".kt", ".kts"},
		FunctionKinds:      []string{"function_declaration", "secondary_constructor", "anonymous_function", "lambda_literal"},
		ClassKinds:         []string{"class_declaration", "object_declaration", "companion_object"},
		ParameterListKinds: []string{"function_value_parameters", "lambda_parameters"},
		ParameterKinds:     []string{"parameter", "class_parameter"},
		CallKinds:          []string{"call_expression"},
		CommentKinds:       []string{"line_comment", "block_comment"},
		InheritanceKinds:   []string{"delegation_specifier"},
		IdentifierKinds:    []string{"identifier"},
		AssignmentKinds:    []string{"assignment"},
		DeclarationKinds:   []string{"property_declaration", "variable_declaration"},
		MemberAccessKinds:  []string{"navigation_expression"},
		ImportKinds:        []string{"import"},

		// if_expression only names its condition; the branches and loop
		// bodies are positional, and when_entry repeats "condition".
		BlockKinds:       []string{"function_body", "block"},
		ConditionalKinds: []string{"if_expression"},
		LoopKinds:        []string{"for_statement", "while_statement", "do_while_statement"},
		SwitchKinds:      []string{"when_expression"},
		CaseKinds:        []string{"when_entry"},
		ReturnKinds:      []string{"return_expression"},
		ThrowKinds:       []string{"throw_expression"},
		TryKinds:         []string{"try_expression"},
		CatchKinds:       []string{"catch_block"},
		FinallyKinds:     []string{"finally_block"},

		QualifiedNameKinds: []string{"user_type"},
		Fields: Fields{
			Condition: "condition",
			CaseValue: "condition",
		},
		ReturnType: ReturnTypeRule{
			ScanKinds: []string{"user_type", "nullable_type", "function_type"},
			Fallback:  "Unit",
		},
		Keywords: []string{"this", "super"},
	})
}
