package lang

func init() {
	Register(&Profile{
		Language:           Go,
		Extensions:         []string{".go"},
		FunctionKinds:      []string{"function_declaration", "method_declaration", "func_literal"},
		ClassKinds:         []string{"interface_type"},
		StructKinds:        []string{"struct_type"},
		ParameterListKinds: []string{"parameter_list"},
		ParameterKinds:     []string{"parameter_declaration", "variadic_parameter_declaration"},
		CallKinds:          []string{"call_expression"},
		CommentKinds:       []string{"comment"},
		IdentifierKinds:    []string{"identifier", "field_identifier", "type_identifier", "package_identifier"},
		AssignmentKinds:    []string{"assignment_statement", "inc_statement", "dec_statement"},
		DeclarationKinds:   []string{"short_var_declaration", "var_spec", "const_spec", "field_declaration"},
		MemberAccessKinds:  []string{"selector_expression"},
		ImportKinds:        []string{"import_spec"},

		BlockKinds:       []string{"block", "statement_list"},
		ConditionalKinds: []string{"if_statement"},
		LoopKinds:        []string{"for_statement"},
		SwitchKinds:      []string{"expression_switch_statement", "type_switch_statement", "select_statement"},
		CaseKinds:        []string{"expression_case", "type_case", "default_case", "communication_case"},
		ReturnKinds:      []string{"return_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		StatementKinds:   []string{"expression_statement"},

		DeclaratorKinds:    []string{"expression_list"},
		QualifiedNameKinds: []string{"qualified_type"},
		Fields: Fields{
			Condition:   "condition",
			Consequence: "consequence",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "value",
		},
		ReturnType: ReturnTypeRule{
			Fields:   []string{"result"},
			Fallback: "void",
		},
		Inherit: InheritEmbedding,
	})
}
