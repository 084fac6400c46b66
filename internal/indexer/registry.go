package indexer

import (
	"path"
	"strings"

	"github.com/DeusData/codeflow/internal/fqn"
	"github.com/DeusData/codeflow/internal/model"
)

// Registry indexes a project's entities by symbol for call and parent
// resolution.
type Registry struct {
	byName map[string][]*model.Entity
	byFile map[string][]*model.Entity
}

// NewRegistry builds a registry over ents. The slice must outlive the
// registry; entries point into it.
func NewRegistry(ents []model.Entity) *Registry {
	r := &Registry{
		byName: make(map[string][]*model.Entity),
		byFile: make(map[string][]*model.Entity),
	}
	for i := range ents {
		e := &ents[i]
		r.byName[e.Symbol] = append(r.byName[e.Symbol], e)
		r.byFile[e.Filename] = append(r.byFile[e.Filename], e)
	}
	return r
}

// Resolve finds the entity a call to callee from filename most likely
// targets:
//  1. a function in the same file
//  2. the only function with that name in the project
//  3. among several, those whose module or directory matches the callee's
//     qualifier ("order.save" prefers svc/order/...)
//  4. the function whose file is closest in the directory tree
//
// Classes and structs are tried the same way when no function matches, so
// constructor calls resolve to their type. Nil means the callee is external.
func (r *Registry) Resolve(callee, filename string) *model.Entity {
	name, q := simpleName(callee), fqn.Qualifier(callee)
	if e := r.pick(name, q, filename, isFunction); e != nil {
		return e
	}
	return r.pick(name, q, filename, isType)
}

// ResolveType finds the class or struct a parent symbol names.
func (r *Registry) ResolveType(symbol, filename string) *model.Entity {
	return r.pick(simpleName(symbol), fqn.Qualifier(symbol), filename, isType)
}

// Child finds the type entity named symbol defined in filename.
func (r *Registry) Child(symbol, filename string) *model.Entity {
	var fallback *model.Entity
	for _, e := range r.byFile[filename] {
		if e.Symbol != symbol {
			continue
		}
		if isType(e) {
			return e
		}
		if fallback == nil {
			fallback = e
		}
	}
	return fallback
}

// Enclosing returns the smallest function in filename whose byte span holds
// offset, or nil for top-level code.
func (r *Registry) Enclosing(filename string, offset int) *model.Entity {
	var best *model.Entity
	for _, e := range r.byFile[filename] {
		if !isFunction(e) || !e.Contains(offset) {
			continue
		}
		if best == nil || e.EndByte-e.StartByte < best.EndByte-best.StartByte {
			best = e
		}
	}
	return best
}

// Size returns the number of indexed entities.
func (r *Registry) Size() int {
	n := 0
	for _, es := range r.byName {
		n += len(es)
	}
	return n
}

func (r *Registry) pick(name, qualifier, filename string, keep func(*model.Entity) bool) *model.Entity {
	var candidates []*model.Entity
	for _, e := range r.byName[name] {
		if !keep(e) {
			continue
		}
		if e.Filename == filename {
			return e
		}
		candidates = append(candidates, e)
	}
	if len(candidates) > 1 && qualifier != "" {
		var narrowed []*model.Entity
		for _, c := range candidates {
			if fqn.Matches(c.Filename, qualifier) {
				narrowed = append(narrowed, c)
			}
		}
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	return bestByPathDistance(candidates, filename)
}

func isFunction(e *model.Entity) bool { return e.Kind == model.KindFunction }

func isType(e *model.Entity) bool {
	return e.Kind == model.KindClass || e.Kind == model.KindStruct
}

// simpleName reduces a qualified callee to its last segment.
func simpleName(name string) string {
	if i := strings.LastIndexAny(name, ".:>"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// bestByPathDistance picks the candidate whose directory shares the longest
// prefix with the caller's. Ties keep the earlier candidate.
func bestByPathDistance(candidates []*model.Entity, filename string) *model.Entity {
	var best *model.Entity
	bestLen := -1
	for _, c := range candidates {
		if n := commonPrefixLen(path.Dir(c.Filename), path.Dir(filename)); n > bestLen {
			bestLen = n
			best = c
		}
	}
	return best
}

// commonPrefixLen returns the number of leading path segments a and b share.
func commonPrefixLen(a, b string) int {
	aParts := strings.Split(a, "/")
	bParts := strings.Split(b, "/")

	count := 0
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			break
		}
		count++
	}
	return count
}
