package lang

func init() {
	Register(&Profile{
		Language:      Java,
		Extensions:    []string{".java"},
		FunctionKinds: []string{"method_declaration", "constructor_declaration", "lambda_expression"},
		ClassKinds: []string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"annotation_type_declaration",
			"record_declaration",
		},
		ParameterListKinds: []string{"formal_parameters"},
		ParameterKinds:     []string{"formal_parameter", "spread_parameter"},
		CallKinds:          []string{"method_invocation", "object_creation_expression"},
		CommentKinds:       []string{"line_comment", "block_comment"},
		InheritanceKinds:   []string{"superclass", "super_interfaces", "extends_interfaces"},
		IdentifierKinds:    []string{"identifier", "type_identifier"},
		AssignmentKinds:    []string{"assignment_expression", "update_expression"},
		DeclarationKinds:   []string{"local_variable_declaration", "variable_declarator", "field_declaration"},
		MemberAccessKinds:  []string{"field_access"},
		ImportKinds:        []string{"import_declaration"},

		BlockKinds:       []string{"block", "constructor_body", "switch_block"},
		ConditionalKinds: []string{"if_statement"},
		LoopKinds:        []string{"for_statement", "enhanced_for_statement", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_expression"},
		CaseKinds:        []string{"switch_block_statement_group", "switch_rule"},
		CaseLabelKinds:   []string{"switch_label"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"throw_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement", "try_with_resources_statement"},
		CatchKinds:       []string{"catch_clause"},
		FinallyKinds:     []string{"finally_clause"},
		StatementKinds:   []string{"expression_statement"},

		DeclaratorKinds:    []string{"scoped_identifier"},
		QualifiedNameKinds: []string{"scoped_type_identifier"},
		ReturnType: ReturnTypeRule{
			Fields:           []string{"type"},
			ConstructorKinds: []string{"constructor_declaration"},
			Fallback:         "void",
		},
		InheritanceClauses: map[string]RelationKind{
			"superclass":         Extends,
			"super_interfaces":   Implements,
			"extends_interfaces": Extends,
		},
		Keywords: []string{"extends", "implements"},
	})
}
