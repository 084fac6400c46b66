package lang

func init() {
	Register(&Profile{
		Language:           Scala,
		Extensions:         []string{".scala", ".sc"},
		FunctionKinds:      []string{"function_definition", "lambda_expression"},
		ClassKinds:         []string{"class_definition", "object_definition", "trait_definition"},
		ParameterListKinds: []string{"parameters", "class_parameters"},
		ParameterKinds:     []string{"parameter", "class_parameter"},
		CallKinds:          []string{"call_expression"},
		CommentKinds:       []string{"comment", "block_comment"},
		InheritanceKinds:   []string{"extends_clause"},
		IdentifierKinds:    []string{"identifier", "type_identifier"},
		AssignmentKinds:    []string{"assignment_expression"},
		DeclarationKinds:   []string{"val_definition", "var_definition"},
		MemberAccessKinds:  []string{"field_expression"},
		ImportKinds:        []string{"import_declaration"},

		BlockKinds:       []string{"block", "indented_block"},
		ConditionalKinds: []string{"if_expression"},
		LoopKinds:        []string{"while_expression", "for_expression", "do_while_expression"},
		SwitchKinds:      []string{"match_expression"},
		CaseKinds:        []string{"case_clause"},
		ReturnKinds:      []string{"return_expression"},
		ThrowKinds:       []string{"throw_expression"},
		TryKinds:         []string{"try_expression"},
		CatchKinds:       []string{"catch_clause"},
		FinallyKinds:     []string{"finally_clause"},

		QualifiedNameKinds: []string{"stable_type_identifier", "generic_type"},
		Fields: Fields{
			Condition:   "condition",
			Consequence: "consequence",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "pattern",
			CaseBody:    "body",
		},
		ReturnType: ReturnTypeRule{
			Fields:   []string{"return_type"},
			Fallback: "Unit",
		},
		Keywords: []string{"extends", "with"},
	})
}
