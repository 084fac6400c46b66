// Package fqn derives dotted qualified names from project-relative paths.
package fqn

import (
	"path"
	"strings"
)

// Module returns the dotted module path of relPath: extension dropped and
// package entry files (__init__, index, mod) folded into their directory.
//
//	svc/order/store.go     -> svc.order.store
//	pkg/util/__init__.py   -> pkg.util
func Module(relPath string) string {
	relPath = strings.TrimSuffix(path.Clean(strings.ReplaceAll(relPath, "\\", "/")), path.Ext(relPath))
	parts := strings.Split(relPath, "/")
	if n := len(parts); n > 1 {
		switch parts[n-1] {
		case "__init__", "index", "mod":
			parts = parts[:n-1]
		}
	}
	return strings.Join(parts, ".")
}

// Compute returns <project>.<module>.<name>. Empty parts are skipped.
func Compute(project, relPath, name string) string {
	var all []string
	for _, p := range []string{project, Module(relPath), name} {
		if p != "" && p != "." {
			all = append(all, p)
		}
	}
	return strings.Join(all, ".")
}

// Qualifier returns the dotted prefix of a qualified callee, normalizing
// "::" and "->" separators: "a::b::c" -> "a.b", "obj.run" -> "obj". A bare
// name has no qualifier.
func Qualifier(callee string) string {
	s := strings.NewReplacer("::", ".", "->", ".", "\\", ".").Replace(callee)
	i := strings.LastIndex(s, ".")
	if i <= 0 {
		return ""
	}
	return s[:i]
}

// Matches reports whether qualifier names the module of relPath or its
// directory, compared on whole trailing segments.
func Matches(relPath, qualifier string) bool {
	if qualifier == "" {
		return false
	}
	if hasSegmentSuffix(Module(relPath), qualifier) {
		return true
	}
	dir := path.Dir(strings.ReplaceAll(relPath, "\\", "/"))
	return dir != "." && hasSegmentSuffix(strings.ReplaceAll(dir, "/", "."), qualifier)
}

func hasSegmentSuffix(s, suffix string) bool {
	if s == suffix {
		return true
	}
	return strings.HasSuffix(s, "."+suffix)
}
