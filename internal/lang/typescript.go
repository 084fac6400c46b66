package lang

// typedEcmaProfile layers TypeScript's declarations and annotations over the
// shared ECMAScript tables.
func typedEcmaProfile(l Language, exts []string) *Profile {
	p := ecmaProfile(l, exts)
	p.FunctionKinds = append(p.FunctionKinds, "function_signature")
	p.ClassKinds = append(p.ClassKinds,
		"abstract_class_declaration",
		"interface_declaration",
		"enum_declaration",
	)
	p.ParameterKinds = append(p.ParameterKinds, "required_parameter", "optional_parameter")
	p.InheritanceKinds = append(p.InheritanceKinds, "extends_clause", "implements_clause", "extends_type_clause")
	p.IdentifierKinds = append(p.IdentifierKinds, "type_identifier")
	p.QualifiedNameKinds = []string{"nested_type_identifier"}
	p.InheritanceClauses = map[string]RelationKind{
		"class_heritage":      Extends,
		"extends_clause":      Extends,
		"extends_type_clause": Extends,
		"implements_clause":   Implements,
	}
	p.ReturnType.Fields = []string{"return_type"}
	return p
}

func init() {
	Register(typedEcmaProfile(TypeScript, []string{".ts", ".mts", ".cts"}))
}
