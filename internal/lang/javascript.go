package lang

var ecmaFunctionKinds = []string{
	"function_declaration",
	"generator_function_declaration",
	"function_expression",
	"generator_function",
	"arrow_function",
	"method_definition",
}

// ecmaProfile returns the kind tables shared by JavaScript, TypeScript and TSX.
func ecmaProfile(l Language, exts []string) *Profile {
	return &Profile{
		Language:           l,
		Extensions:         exts,
		FunctionKinds:      append([]string(nil), ecmaFunctionKinds...),
		ClassKinds:         []string{"class_declaration", "class"},
		ParameterListKinds: []string{"formal_parameters"},
		ParameterKinds:     []string{"rest_pattern", "assignment_pattern"},
		CallKinds:          []string{"call_expression", "new_expression"},
		CommentKinds:       []string{"comment"},
		InheritanceKinds:   []string{"class_heritage"},
		IdentifierKinds:    []string{"identifier", "property_identifier", "shorthand_property_identifier"},
		AssignmentKinds:    []string{"assignment_expression", "augmented_assignment_expression", "update_expression"},
		DeclarationKinds:   []string{"lexical_declaration", "variable_declaration", "variable_declarator"},
		MemberAccessKinds:  []string{"member_expression"},
		ImportKinds:        []string{"import_statement", "import_specifier", "namespace_import"},

		BlockKinds:       []string{"statement_block"},
		ConditionalKinds: []string{"if_statement"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"for_statement", "for_in_statement", "while_statement", "do_statement"},
		SwitchKinds:      []string{"switch_statement"},
		CaseKinds:        []string{"switch_case", "switch_default"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"throw_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement"},
		CatchKinds:       []string{"catch_clause"},
		FinallyKinds:     []string{"finally_clause"},
		StatementKinds:   []string{"expression_statement"},

		ReturnType: ReturnTypeRule{
			FallbackByKind: map[string]string{
				"arrow_function":    "arrow",
				"method_definition": "method",
			},
			Fallback: "function",
		},
		Keywords: []string{"extends", "implements"},
	}
}

func init() {
	Register(ecmaProfile(JavaScript, []string{".js", ".jsx", ".mjs", ".cjs"}))
}
