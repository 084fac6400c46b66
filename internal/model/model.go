// Package model holds the records shared between harvesting, persistence and
// the graph builders.
package model

// Entity kinds.
const (
	KindFunction = "function"
	KindClass    = "class"
	KindStruct   = "struct"
)

// Entity is a harvested function, class or struct definition.
// (Project, Filename, Symbol, StartLine) is unique per project snapshot.
type Entity struct {
	ID         int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Project    string `json:"project" yaml:"project"`
	Symbol     string `json:"symbol" yaml:"symbol"`
	Kind       string `json:"kind" yaml:"kind"`
	Language   string `json:"language" yaml:"language"`
	Filename   string `json:"filename" yaml:"filename"`
	StartLine  int    `json:"start_line" yaml:"start_line"`
	EndLine    int    `json:"end_line" yaml:"end_line"`
	StartByte  int    `json:"start_byte" yaml:"start_byte"`
	EndByte    int    `json:"end_byte" yaml:"end_byte"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty"`
	Comment    string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Parameters string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType string `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	SourceHash string `json:"source_hash,omitempty" yaml:"source_hash,omitempty"`
}

// Key identifies an entity within a project snapshot.
type Key struct {
	Filename  string
	Symbol    string
	StartLine int
}

// Key returns the entity's identity within its project.
func (e *Entity) Key() Key {
	return Key{Filename: e.Filename, Symbol: e.Symbol, StartLine: e.StartLine}
}

// Contains reports whether the byte offset lies inside the entity's span.
func (e *Entity) Contains(offset int) bool {
	return offset >= e.StartByte && offset < e.EndByte
}

// CallSite is an unresolved call found while harvesting one file.
type CallSite struct {
	Filename  string `json:"filename" yaml:"filename"`
	Callee    string `json:"callee" yaml:"callee"`
	Line      int    `json:"line" yaml:"line"`
	StartByte int    `json:"start_byte" yaml:"start_byte"`
	EndByte   int    `json:"end_byte" yaml:"end_byte"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// CallEdge links a caller entity to a callee. CalleeID is nil when the callee
// symbol did not resolve to an entity in the project.
type CallEdge struct {
	ID           int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Project      string `json:"project" yaml:"project"`
	CallerID     int64  `json:"caller_id" yaml:"caller_id"`
	CalleeID     *int64 `json:"callee_id" yaml:"callee_id"`
	CalleeSymbol string `json:"callee_symbol" yaml:"callee_symbol"`
	Line         int    `json:"line" yaml:"line"`
	Comment      string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// InheritanceEdge records a child type's parent. ParentID is nil when the
// parent is defined outside the project.
type InheritanceEdge struct {
	Project      string `json:"project" yaml:"project"`
	Filename     string `json:"filename" yaml:"filename"`
	ChildID      int64  `json:"child_id,omitempty" yaml:"child_id,omitempty"`
	ChildSymbol  string `json:"child_symbol" yaml:"child_symbol"`
	ParentSymbol string `json:"parent_symbol" yaml:"parent_symbol"`
	ParentID     *int64 `json:"parent_id" yaml:"parent_id"`
	Kind         string `json:"kind" yaml:"kind"`
	Line         int    `json:"line" yaml:"line"`
}

// IdentifierOccurrence is one classified identifier in a file.
type IdentifierOccurrence struct {
	Symbol       string `json:"symbol" yaml:"symbol"`
	Role         string `json:"role" yaml:"role"`
	IsDefinition bool   `json:"is_definition" yaml:"is_definition"`
	IsWrite      bool   `json:"is_write" yaml:"is_write"`
	Filename     string `json:"filename" yaml:"filename"`
	Line         int    `json:"line" yaml:"line"`
	StartColumn  int    `json:"start_column" yaml:"start_column"`
	EndColumn    int    `json:"end_column" yaml:"end_column"`
	Context      string `json:"context" yaml:"context"`
}

// FileResult is the outcome of parsing one file. A failed parse sets
// Success=false and Error; the other fields are then empty.
type FileResult struct {
	CorrelationID string                 `json:"correlation_id" yaml:"correlation_id"`
	Project       string                 `json:"project" yaml:"project"`
	Filename      string                 `json:"filename" yaml:"filename"`
	Path          string                 `json:"path" yaml:"path"`
	Language      string                 `json:"language" yaml:"language"`
	Success       bool                   `json:"success" yaml:"success"`
	Error         string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Hash          string                 `json:"hash,omitempty" yaml:"hash,omitempty"`
	Entities      []Entity               `json:"entities,omitempty" yaml:"entities,omitempty"`
	Calls         []CallSite             `json:"calls,omitempty" yaml:"calls,omitempty"`
	Inheritance   []InheritanceEdge      `json:"inheritance,omitempty" yaml:"inheritance,omitempty"`
	Occurrences   []IdentifierOccurrence `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`
}
