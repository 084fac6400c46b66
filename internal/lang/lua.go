package lang

func init() {
	Register(&Profile{
		Language:           Lua,
		Extensions:         []string{".lua"},
		FunctionKinds:      []string{"function_declaration", "function_definition"},
		ParameterListKinds: []string{"parameters"},
		CallKinds:          []string{"function_call"},
		CommentKinds:       []string{"comment"},
		IdentifierKinds:    []string{"identifier"},
		AssignmentKinds:    []string{"assignment_statement"},
		DeclarationKinds:   []string{"variable_declaration"},
		MemberAccessKinds:  []string{"dot_index_expression", "method_index_expression"},

		BlockKinds:       []string{"block", "do_statement"},
		ConditionalKinds: []string{"if_statement", "elseif_statement"},
		ElseKinds:        []string{"else_statement"},
		LoopKinds:        []string{"while_statement", "repeat_statement", "for_statement"},
		ReturnKinds:      []string{"return_statement"},
		BreakKinds:       []string{"break_statement"},

		DeclaratorKinds: []string{"variable_list"},
		ReturnType:      ReturnTypeRule{Fallback: "function"},
		Keywords:        []string{"self"},
	})
}
