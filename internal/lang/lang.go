package lang

import "sort"

// Language represents a supported programming language.
type Language string

const (
	C          Language = "c"
	CPP        Language = "cpp"
	CSharp     Language = "c-sharp"
	Go         Language = "go"
	Java       Language = "java"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	Python     Language = "python"
	Rust       Language = "rust"
	Ruby       Language = "ruby"
	PHP        Language = "php"
	Kotlin     Language = "kotlin"
	Lua        Language = "lua"
	Scala      Language = "scala"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{C, CPP, CSharp, Go, Java, JavaScript, TypeScript, TSX, Python, Rust, Ruby, PHP, Kotlin, Lua, Scala}
}

// RelationKind names an inheritance relationship.
type RelationKind string

const (
	Extends    RelationKind = "extends"
	Implements RelationKind = "implements"
	Embeds     RelationKind = "embeds"
)

// Fields holds the grammar field names the CFG builder reads to find the
// parts of a control structure. Empty names fall back to positional children.
type Fields struct {
	Condition   string
	Consequence string
	Alternative string
	Body        string
	CaseValue   string
	CaseBody    string
}

var defaultFields = Fields{
	Condition:   "condition",
	Consequence: "consequence",
	Alternative: "alternative",
	Body:        "body",
	CaseValue:   "value",
	CaseBody:    "body",
}

// ReturnTypeRule describes how a function's return type is read.
type ReturnTypeRule struct {
	// Fields are tried in order; the first present one wins.
	Fields []string
	// ScanKinds are direct child kinds read as the type, stopping at the body.
	ScanKinds []string
	// JoinScanned concatenates every scanned child (C "const char") instead
	// of keeping the last one.
	JoinScanned bool
	// PointerKinds are declarator kinds that add one "*" per nesting level.
	PointerKinds []string
	// ConstructorKinds return the enclosing class name.
	ConstructorKinds []string
	// FallbackByKind maps a function kind to a marker when no type is written.
	FallbackByKind map[string]string
	Fallback       string
}

// InheritStrategy selects how parents are read off a type definition.
type InheritStrategy int

const (
	// InheritClauses reads parents out of dedicated clause nodes.
	InheritClauses InheritStrategy = iota
	// InheritEmbedding reads anonymous struct fields and embedded interfaces.
	InheritEmbedding
)

// Profile defines the tree-sitter node kinds of a language and maps them onto
// the shared Category vocabulary. Profiles are immutable once registered.
type Profile struct {
	Language   Language
	Extensions []string

	FunctionKinds      []string
	ClassKinds         []string
	StructKinds        []string
	ParameterListKinds []string
	ParameterKinds     []string
	CallKinds          []string
	CommentKinds       []string
	InheritanceKinds   []string
	IdentifierKinds    []string
	AssignmentKinds    []string
	DeclarationKinds   []string
	MemberAccessKinds  []string
	ImportKinds        []string

	BlockKinds       []string
	ConditionalKinds []string
	ElseKinds        []string
	LoopKinds        []string
	SwitchKinds      []string
	CaseKinds        []string
	CaseLabelKinds   []string
	ReturnKinds      []string
	ThrowKinds       []string
	BreakKinds       []string
	ContinueKinds    []string
	TryKinds         []string
	CatchKinds       []string
	FinallyKinds     []string
	StatementKinds   []string

	// DeclaratorKinds wrap a definition name without being the definition
	// (C function_declarator, pointer_declarator).
	DeclaratorKinds []string
	// QualifiedNameKinds are taken whole when they name a parent type.
	QualifiedNameKinds []string
	// ImplKinds attach a trait to a type outside the type body (Rust impl).
	ImplKinds []string

	Fields     Fields
	ReturnType ReturnTypeRule

	// DefinitionNeedsBody drops class/struct references that have no body,
	// e.g. "struct node *next" in C.
	DefinitionNeedsBody bool

	Inherit InheritStrategy
	// InheritanceClauses maps a clause kind to its relationship; kinds not
	// listed default to Extends.
	InheritanceClauses map[string]RelationKind
	// InheritanceFields are field names on a class holding the base list.
	InheritanceFields []string
	// InterfacePrefix marks parents named like IFoo as implemented interfaces.
	InterfacePrefix bool

	// Keywords are identifier texts a grammar exposes that never name a symbol.
	Keywords []string

	categories map[string]Category
	keywords   map[string]bool
}

// Category maps a raw node kind onto the closed vocabulary.
func (p *Profile) Category(kind string) Category {
	return p.categories[kind]
}

// Is reports whether kind maps to category c.
func (p *Profile) Is(kind string, c Category) bool {
	return p.categories[kind] == c
}

// IsKeyword reports whether text is a grammar keyword rather than a name.
func (p *Profile) IsKeyword(text string) bool {
	return p.keywords[text]
}

// Kinds returns the raw kinds that map to c, sorted.
func (p *Profile) Kinds(c Category) []string {
	var out []string
	for k, cat := range p.categories {
		if cat == c {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// IsDeclarator reports whether kind only wraps a definition name.
func (p *Profile) IsDeclarator(kind string) bool {
	for _, k := range p.DeclaratorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsQualifiedName reports whether kind is a dotted or scoped type reference.
func (p *Profile) IsQualifiedName(kind string) bool {
	for _, k := range p.QualifiedNameKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsImpl reports whether kind is an out-of-body trait implementation.
func (p *Profile) IsImpl(kind string) bool {
	for _, k := range p.ImplKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// RelationFor returns the relationship a clause kind expresses.
func (p *Profile) RelationFor(kind string) RelationKind {
	if r, ok := p.InheritanceClauses[kind]; ok {
		return r
	}
	return Extends
}

// build computes the kind lookup table. A kind listed under two categories
// keeps the first in the order below.
func (p *Profile) build() {
	p.categories = make(map[string]Category)
	tables := []struct {
		cat   Category
		kinds []string
	}{
		{Function, p.FunctionKinds},
		{Class, p.ClassKinds},
		{Struct, p.StructKinds},
		{ParameterList, p.ParameterListKinds},
		{Parameter, p.ParameterKinds},
		{Call, p.CallKinds},
		{Comment, p.CommentKinds},
		{Inheritance, p.InheritanceKinds},
		{Identifier, p.IdentifierKinds},
		{Conditional, p.ConditionalKinds},
		{ElseClause, p.ElseKinds},
		{Loop, p.LoopKinds},
		{Switch, p.SwitchKinds},
		{Case, p.CaseKinds},
		{CaseLabel, p.CaseLabelKinds},
		{Return, p.ReturnKinds},
		{Throw, p.ThrowKinds},
		{Break, p.BreakKinds},
		{Continue, p.ContinueKinds},
		{Try, p.TryKinds},
		{Catch, p.CatchKinds},
		{Finally, p.FinallyKinds},
		{Block, p.BlockKinds},
		{Assignment, p.AssignmentKinds},
		{Declaration, p.DeclarationKinds},
		{MemberAccess, p.MemberAccessKinds},
		{Import, p.ImportKinds},
		{Statement, p.StatementKinds},
	}
	for _, t := range tables {
		for _, k := range t.kinds {
			if _, taken := p.categories[k]; !taken {
				p.categories[k] = t.cat
			}
		}
	}
	p.keywords = make(map[string]bool, len(p.Keywords))
	for _, k := range p.Keywords {
		p.keywords[k] = true
	}
	if p.Fields == (Fields{}) {
		p.Fields = defaultFields
	}
}

var (
	registry   = map[string]*Profile{}
	byLanguage = map[Language]*Profile{}
)

// Register adds a Profile to the global registry.
func Register(p *Profile) {
	p.build()
	byLanguage[p.Language] = p
	for _, ext := range p.Extensions {
		registry[ext] = p
	}
}

// ForExtension returns the Profile for a file extension (e.g. ".go").
func ForExtension(ext string) (*Profile, bool) {
	p, ok := registry[ext]
	return p, ok
}

// ForLanguage returns the Profile for a language, or nil.
func ForLanguage(l Language) *Profile {
	return byLanguage[l]
}

// ProfileFor returns the Profile for a language id. Unknown ids get the C
// profile so callers always have a table to work with.
func ProfileFor(id string) *Profile {
	if p, ok := byLanguage[Language(id)]; ok {
		return p
	}
	return byLanguage[C]
}

// IsSupported reports whether a language id has a registered profile.
func IsSupported(id string) bool {
	_, ok := byLanguage[Language(id)]
	return ok
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	p := registry[ext]
	if p == nil {
		return "", false
	}
	return p.Language, true
}
