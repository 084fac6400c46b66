package lang

func init() {
	Register(&Profile{
		Language:           Python,
		Extensions:         []string{".py", ".pyi"},
		FunctionKinds:      []string{"function_definition", "lambda"},
		ClassKinds:         []string{"class_definition"},
		ParameterListKinds: []string{"parameters", "lambda_parameters"},
		ParameterKinds:     []string{"typed_parameter", "default_parameter", "typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern"},
		CallKinds:          []string{"call"},
		CommentKinds:       []string{"comment"},
		IdentifierKinds:    []string{"identifier"},
		AssignmentKinds:    []string{"assignment", "augmented_assignment"},
		MemberAccessKinds:  []string{"attribute"},
		ImportKinds:        []string{"import_statement", "import_from_statement", "aliased_import", "dotted_name"},

		BlockKinds:       []string{"block"},
		ConditionalKinds: []string{"if_statement", "elif_clause"},
		ElseKinds:        []string{"else_clause"},
		LoopKinds:        []string{"for_statement", "while_statement"},
		SwitchKinds:      []string{"match_statement"},
		CaseKinds:        []string{"case_clause"},
		CaseLabelKinds:   []string{"case_pattern"},
		ReturnKinds:      []string{"return_statement"},
		ThrowKinds:       []string{"raise_statement"},
		BreakKinds:       []string{"break_statement"},
		ContinueKinds:    []string{"continue_statement"},
		TryKinds:         []string{"try_statement"},
		CatchKinds:       []string{"except_clause"},
		FinallyKinds:     []string{"finally_clause"},
		StatementKinds:   []string{"expression_statement"},

		Fields: Fields{
			Condition:   "condition",
			Consequence: "consequence",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "pattern",
			CaseBody:    "consequence",
		},
		DeclaratorKinds:    []string{"pattern_list", "tuple_pattern"},
		QualifiedNameKinds: []string{"attribute"},
		ReturnType: ReturnTypeRule{
			Fields:   []string{"return_type"},
			Fallback: "def",
		},
		InheritanceFields: []string{"superclasses"},
		Keywords:          []string{"self", "cls", "metaclass"},
	})
}
