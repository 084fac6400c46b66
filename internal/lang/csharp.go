package lang

func init() {
	Register(&Profile{
		Language:   CSharp,
		Extensions: []string{".cs"},
		FunctionKinds: []string{
			"method_declaration",
			"constructor_declaration",
			"destructor_declaration",
			"local_function_statement",
			"lambda_expression",
			"anonymous_method_expression",
		},
		ClassKinds: []string{
			"class_declaration",
			"interface_declaration",
			"record_declaration",
			"enum_declaration",
		},
		StructKinds:        []string{"struct_declaration"},
		ParameterListKinds: []string{"parameter_list"},
		ParameterKinds:     []string{"parameter"},
		CallKinds:          []string{"invocation_expression", "object_creation_expression"},
		CommentKinds:       []string{"comment"},
		InheritanceKinds:   []string{"base_list"},
		IdentifierKinds:    []string{"identifier"},
		AssignmentKinds:    []string{"assignment_expression", "postfix_unary_expression"},
		DeclarationKinds:   []string{"variable_declaration", "variable_declarator", "field_declaration"},
		MemberAccessKinds:  []string{"member_access_expression"},
		ImportKinds:        []string{"using_directive"},

		BlockKinds:       []string{"block"},
		ConditionalKinds: []string{"if_statement"},
		LoopKinds:        []string{"for_statement", "foreach_statement", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_statement"},
		CaseKinds:        []string{"switch_section"},
		CaseLabelKinds:   []string{"constant_pattern", "when_clause"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"throw_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement"},
		CatchKinds:       []string{"catch_clause"},
		FinallyKinds:     []string{"finally_clause"},
		StatementKinds:   []string{"expression_statement"},

		QualifiedNameKinds: []string{"qualified_name", "generic_name"},
		ReturnType: ReturnTypeRule{
			Fields:           []string{"returns", "type"},
			ConstructorKinds: []string{"constructor_declaration"},
			Fallback:         "void",
		},
		InterfacePrefix: true,
	})
}
