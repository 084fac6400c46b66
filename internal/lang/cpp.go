package lang

func init() {
	Register(&Profile{
		Language:           CPP,
		Extensions:         []string{".cpp", ".hpp", ".cc", ".cxx", ".hxx", ".hh"},
		FunctionKinds:      []string{"function_definition", "lambda_expression"},
		ClassKinds:         []string{"class_specifier"},
		StructKinds:        []string{"struct_specifier", "union_specifier", "enum_specifier"},
		ParameterListKinds: []string{"parameter_list"},
		ParameterKinds:     []string{"parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration"},
		CallKinds:          []string{"call_expression", "new_expression"},
		CommentKinds:       []string{"comment"},
		InheritanceKinds:   []string{"base_class_clause"},
		IdentifierKinds:    []string{"identifier", "field_identifier", "type_identifier", "namespace_identifier"},
		AssignmentKinds:    []string{"assignment_expression", "update_expression"},
		DeclarationKinds:   []string{"declaration", "init_declarator", "field_declaration"},
		MemberAccessKinds:  []string{"field_expression"},
		ImportKinds:        []string{"preproc_include", "using_declaration"},

		BlockKinds:       []string{"compound_statement"},
		ConditionalKinds: []string{"if_statement"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"for_statement", "for_range_loop", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_statement"},
		CaseKinds:        []string{"case_statement"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"throw_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement"},
		CatchKinds:       []string{"catch_clause"},
		StatementKinds:   []string{"expression_statement"},

		DeclaratorKinds:    []string{"function_declarator", "pointer_declarator", "reference_declarator", "parenthesized_declarator"},
		QualifiedNameKinds: []string{"qualified_identifier", "template_type"},
		ReturnType: ReturnTypeRule{
			ScanKinds:    append([]string{"qualified_identifier", "template_type", "placeholder_type_specifier"}, cTypeKinds...),
			JoinScanned:  true,
			PointerKinds: []string{"pointer_declarator", "reference_declarator"},
			Fallback:     "void",
		},
		DefinitionNeedsBody: true,
		Keywords:            []string{"public", "private", "protected", "virtual"},
	})
}
