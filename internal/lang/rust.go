package lang

func init() {
	Register(&Profile{
		Language:           Rust,
		Extensions:         []string{".rs"},
		FunctionKinds:      []string{"function_item", "closure_expression"},
		ClassKinds:         []string{"trait_item"},
		StructKinds:        []string{"struct_item", "enum_item", "union_item"},
		ParameterListKinds: []string{"parameters", "closure_parameters"},
		ParameterKinds:     []string{"parameter", "self_parameter"},
		CallKinds:          []string{"call_expression", "macro_invocation"},
		CommentKinds:       []string{"line_comment", "block_comment"},
		InheritanceKinds:   []string{"trait_bounds"},
		IdentifierKinds:    []string{"identifier", "field_identifier", "type_identifier"},
		AssignmentKinds:    []string{"assignment_expression", "compound_assignment_expr"},
		DeclarationKinds:   []string{"let_declaration", "field_declaration"},
		MemberAccessKinds:  []string{"field_expression"},
		ImportKinds:        []string{"use_declaration", "extern_crate_declaration"},

		BlockKinds:       []string{"block"},
		ConditionalKinds: []string{"if_expression"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"loop_expression", "while_expression", "for_expression"},
		SwitchKinds:      []string{"match_expression"},
		CaseKinds:        []string{"match_arm"},
		CaseLabelKinds:   []string{"match_pattern"},
		ReturnKinds:      []string{"return_expression"},
		BreakKinds:       []string{"break_expression"},
		ContinueKinds:    []string{"continue_expression"},
		StatementKinds:   []string{"expression_statement"},

		ImplKinds:          []string{"impl_item"},
		QualifiedNameKinds: []string{"scoped_type_identifier", "scoped_identifier"},
		Fields: Fields{
			Condition:   "condition",
			Consequence: "consequence",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "pattern",
			CaseBody:    "value",
		},
		ReturnType: ReturnTypeRule{
			Fields:   []string{"return_type"},
			Fallback: "()",
		},
		InheritanceClauses: map[string]RelationKind{"trait_bounds": Extends},
	})
}
