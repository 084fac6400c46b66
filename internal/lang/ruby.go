package lang

func init() {
	Register(&Profile{
		Language:           Ruby,
		Extensions:         []string{".rb", ".rake", ".gemspec"},
		FunctionKinds:      []string{"method", "singleton_method", "lambda"},
		ClassKinds:         []string{"class", "module", "singleton_class"},
		ParameterListKinds: []string{"method_parameters", "lambda_parameters", "block_parameters"},
		ParameterKinds:     []string{"optional_parameter", "keyword_parameter", "splat_parameter", "hash_splat_parameter", "block_parameter"},
		CallKinds:          []string{"call"},
		CommentKinds:       []string{"comment"},
		InheritanceKinds:   []string{"superclass"},
		IdentifierKinds:    []string{"identifier", "constant", "instance_variable"},
		AssignmentKinds:    []string{"assignment", "operator_assignment"},

		BlockKinds:       []string{"body_statement", "then", "do", "begin_block"},
		ConditionalKinds: []string{"if", "unless", "elsif"},
		ElseKinds:        []string{"else"},
		LoopKinds:        []string{"while", "until", "for"},
		SwitchKinds:      []string{"case"},
		CaseKinds:        []string{"when"},
		CaseLabelKinds:   []string{"pattern"},
		ReturnKinds:      []string{"return"},
		BreakKinds:       []string{"break"},
		ContinueKinds:    []string{"next"},
		TryKinds:         []string{"begin"},
		CatchKinds:       []string{"rescue"},
		FinallyKinds:     []string{"ensure"},

		QualifiedNameKinds: []string{"scope_resolution"},
		Fields: Fields{
			Condition:   "condition",
			Consequence: "consequence",
			Alternative: "alternative",
			Body:        "body",
			CaseValue:   "pattern",
			CaseBody:    "body",
		},
		ReturnType: ReturnTypeRule{Fallback: "def"},
		Keywords:   []string{"self", "super"},
	})
}
