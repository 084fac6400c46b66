package lang

// Category is the closed vocabulary every grammar's node kinds map onto.
// Nothing past the adapter boundary compares raw kind strings.
type Category int

const (
	None Category = iota
	Function
	Class
	Struct
	ParameterList
	Parameter
	Call
	Comment
	Inheritance
	Identifier
	Assignment
	Declaration
	MemberAccess
	Import
	Block
	Conditional
	ElseClause
	Loop
	Switch
	Case
	CaseLabel
	Return
	Throw
	Break
	Continue
	Try
	Catch
	Finally
	// Statement is a transparent wrapper such as expression_statement.
	Statement
)

var categoryNames = [...]string{
	None:          "none",
	Function:      "function",
	Class:         "class",
	Struct:        "struct",
	ParameterList: "parameter_list",
	Parameter:     "parameter",
	Call:          "call",
	Comment:       "comment",
	Inheritance:   "inheritance",
	Identifier:    "identifier",
	Assignment:    "assignment",
	Declaration:   "declaration",
	MemberAccess:  "member_access",
	Import:        "import",
	Block:         "block",
	Conditional:   "conditional",
	ElseClause:    "else",
	Loop:          "loop",
	Switch:        "switch",
	Case:          "case",
	CaseLabel:     "case_label",
	Return:        "return",
	Throw:         "throw",
	Break:         "break",
	Continue:      "continue",
	Try:           "try",
	Catch:         "catch",
	Finally:       "finally",
	Statement:     "statement",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// IsControl reports whether the category shapes control flow.
func (c Category) IsControl() bool {
	switch c {
	case Block, Conditional, Loop, Switch, Return, Throw, Break, Continue, Try:
		return true
	}
	return false
}
