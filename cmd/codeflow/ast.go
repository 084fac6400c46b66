package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codeflow/internal/discover"
	"github.com/DeusData/codeflow/internal/lang"
	"github.com/DeusData/codeflow/internal/parser"
)

func newASTCmd(_ *cli) *cobra.Command {
	var (
		maxText int
		depth   int
	)
	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the syntax tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			l, ok := lang.LanguageForExtension(filepath.Ext(path))
			if !ok {
				return fmt.Errorf("unsupported file type: %s", path)
			}
			src, err := discover.ReadFile(path)
			if err != nil {
				return err
			}
			tree, err := parser.Parse(l, src)
			if err != nil {
				return err
			}
			defer tree.Close()
			printAST(cmd.OutOrStdout(), tree.RootNode(), src, 0, depth, maxText)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxText, "max-text", 60, "truncate node text to this many bytes")
	cmd.Flags().IntVar(&depth, "depth", 0, "stop below this depth (0 = unlimited)")
	return cmd
}

func printAST(w io.Writer, node *tree_sitter.Node, source []byte, indent, maxDepth, maxText int) {
	if node == nil {
		return
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > maxText {
		text = text[:maxText] + "..."
	}
	fmt.Fprintf(w, "%s%s [%d:%d] (parent=%s) %q\n", strings.Repeat("  ", indent), node.Kind(),
		node.StartPosition().Row+1, node.StartPosition().Column, parentKind, text)
	if maxDepth > 0 && indent+1 >= maxDepth {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(w, node.Child(i), source, indent+1, maxDepth, maxText)
	}
}
