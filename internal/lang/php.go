package lang

func init() {
	Register(&Profile{
		Language:   PHP,
		Extensions: []string{".php"},
		FunctionKinds: []string{
			"function_definition",
			"method_declaration",
			"anonymous_function",
			"arrow_function",
		},
		ClassKinds: []string{
			"class_declaration",
			"interface_declaration",
			"trait_declaration",
			"enum_declaration",
		},
		ParameterListKinds: []string{"formal_parameters"},
		ParameterKinds:     []string{"simple_parameter", "variadic_parameter", "property_promotion_parameter"},
		CallKinds: []string{
			"function_call_expression",
			"member_call_expression",
			"scoped_call_expression",
			"nullsafe_member_call_expression",
			"object_creation_expression",
		},
		CommentKinds:      []string{"comment"},
		InheritanceKinds:  []string{"base_clause", "class_interface_clause"},
		IdentifierKinds:   []string{"name", "variable_name"},
		AssignmentKinds:   []string{"assignment_expression", "augmented_assignment_expression", "update_expression"},
		MemberAccessKinds: []string{"member_access_expression", "nullsafe_member_access_expression"},
		ImportKinds:       []string{"namespace_use_declaration", "namespace_use_clause"},

		BlockKinds:       []string{"compound_statement", "colon_block"},
		ConditionalKinds: []string{"if_statement", "else_if_clause"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"for_statement", "foreach_statement", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_statement"},
		CaseKinds:        []string{"case_statement", "default_statement"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"throw_expression"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement"},
		CatchKinds:       []string{"catch_clause"},
		FinallyKinds:     []string{"finally_clause"},
		StatementKinds:   []string{"expression_statement"},

		QualifiedNameKinds: []string{"qualified_name"},
		Fields: Fields{
			Condition:   "condition",
			Consequence: "body",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "value",
		},
		ReturnType: ReturnTypeRule{
			Fields:           []string{"return_type"},
			Fallback:         "function",
		},
		InheritanceClauses: map[string]RelationKind{
			"base_clause":            Extends,
			"class_interface_clause": Implements,
		},
		Keywords: []string{"extends", "implements", "$this"},
	})
}
