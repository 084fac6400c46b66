package workerpool

import (
	"fmt"
	"path/filepath"

	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/harvest"
	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/model"
	"github.com/DeusData/codeflow/internal/parser"
)

// HarvestFile is the default ParseFunc: read the file, pick the language by
// extension (C when unknown) and harvest it with the worker's parser set.
func HarvestFile(set *parser.Set, t Task) (*model.FileResult, error) {
	l, _ := lang.LanguageForExtension(filepath.Ext(t.AbsPath))
	src, err := discover.ReadFile(t.AbsPath)
	if err != nil {
		return nil, err
	}
	r, err := harvest.HarvestWith(set, src, string(l))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.RelPath, err)
	}
	defer r.Close()

	return &model.FileResult{
		Project:     t.Project,
		Filename:    t.RelPath,
		Path:        t.AbsPath,
		Language:    string(r.Language),
		Success:     true,
		Hash:        harvest.HashSource(string(src)),
		Entities:    r.Entities(t.Project, t.RelPath),
		Calls:       r.CallSites(t.RelPath),
		Inheritance: r.InheritanceEdges(t.Project, t.RelPath),
		Occurrences: r.OccurrencesIn(t.RelPath),
	}, nil
}
