package lang

var cTypeKinds = []string{
	"type_qualifier",
	"primitive_type",
	"sized_type_specifier",
	"struct_specifier",
	"union_specifier",
	"enum_specifier",
	"type_identifier",
}

func init() {
	Register(&Profile{
		Language:           C,
		Extensions:         []string{".c", ".h"},
		FunctionKinds:      []string{"function_definition"},
		StructKinds:        []string{"struct_specifier", "union_specifier", "enum_specifier"},
		ParameterListKinds: []string{"parameter_list"},
		ParameterKinds:     []string{"parameter_declaration"},
		CallKinds:          []string{"call_expression"},
		CommentKinds:       []string{"comment"},
		IdentifierKinds:    []string{"identifier", "field_identifier", "type_identifier"},
		AssignmentKinds:    []string{"assignment_expression", "update_expression"},
		DeclarationKinds:   []string{"declaration", "init_declarator", "field_declaration"},
		MemberAccessKinds:  []string{"field_expression"},
		ImportKinds:        []string{"preproc_include"},

		BlockKinds:       []string{"compound_statement"},
		ConditionalKinds: []string{"if_statement"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"for_statement", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_statement"},
		CaseKinds:        []string{"case_statement"},
		ReturnKinds:      []string{"return_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		StatementKinds:   []string{"expression_statement"},

		DeclaratorKinds: []string{"function_declarator", "pointer_declarator", "parenthesized_declarator"},
		ReturnType: ReturnTypeRule{
			ScanKinds:    cTypeKinds,
			JoinScanned:  true,
			PointerKinds: []string{"pointer_declarator"},
			Fallback:     "int",
		},
		DefinitionNeedsBody: true,
	})
}
