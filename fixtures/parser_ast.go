package fixtures

import (
	"fmt"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown parses a markdown table file: optional front matter, then
// tables. A heading of level two or deeper names the group of the tables
// below it; tables before any heading belong to the front-matter group, or
// to the file's base name.
func ParseMarkdown(content, source string) ([]Definition, error) {
	frontMatter, body, err := splitFrontMatter(content)
	if err != nil {
		return nil, err
	}
	base := Definition{}
	if frontMatter != nil {
		base = *frontMatter
	}
	base.Source = source
	if base.Group == "" {
		base.Group = baseName(source)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))

	var defs []Definition
	index := map[string]int{}
	group := base.Group

	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level >= 2 {
				group = groupName(extractNodeText(node, src))
			}
			return ast.WalkSkipChildren, nil

		case *extast.Table:
			cases, err := parseTableFromAST(node, src)
			if err != nil {
				return ast.WalkStop, fmt.Errorf("group %q: %w", group, err)
			}
			i, ok := index[group]
			if !ok {
				i = len(defs)
				index[group] = i
				defs = append(defs, Definition{Group: group}.Inherit(base))
			}
			defs[i].Cases = append(defs[i].Cases, cases...)
			logger.V(4).Infof("%s: %d cases in group %s", source, len(cases), group)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	if len(defs) == 0 {
		// No tables: the front matter alone still declares a (possibly empty) group.
		defs = append(defs, base)
	}
	return defs, nil
}

// parseTableFromAST converts a markdown table into cases. Rows shorter than
// the header are padded, empty cells are left out so the field takes its
// zero value.
func parseTableFromAST(tableNode *extast.Table, source []byte) ([]CaseSpec, error) {
	var headers []string
	var cases []CaseSpec
	nameCol, skipCol := -1, -1

	for child := tableNode.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				if _, ok := cell.(*extast.TableCell); ok {
					headers = append(headers, strings.TrimSpace(extractNodeText(cell, source)))
				}
			}
			for i, h := range headers {
				switch strings.ToLower(h) {
				case "name", "case", "test name":
					nameCol = i
				case "skip":
					skipCol = i
				}
			}
			if nameCol < 0 {
				return nil, fmt.Errorf("%w: columns %v", ErrNoNameColumn, headers)
			}

		case *extast.TableRow:
			values := make([]string, len(headers))
			i := 0
			for cell := row.FirstChild(); cell != nil && i < len(headers); cell = cell.NextSibling() {
				if _, ok := cell.(*extast.TableCell); ok {
					values[i] = strings.TrimSpace(extractNodeText(cell, source))
					i++
				}
			}
			cases = append(cases, parseTableRow(headers, values, nameCol, skipCol))
		}
	}
	return cases, nil
}

// parseTableRow converts a table row into a case.
func parseTableRow(headers, values []string, nameCol, skipCol int) CaseSpec {
	c := CaseSpec{Name: values[nameCol], Values: map[string]any{}}
	for i, header := range headers {
		switch {
		case i == nameCol:
		case i == skipCol:
			c.Skip = isSkipMarker(values[i])
		case values[i] != "":
			c.Values[header] = values[i]
		}
	}
	return c
}

func isSkipMarker(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "x", "skip", "1":
		return true
	}
	return false
}

// extractNodeText extracts plain text content from an AST node
func extractNodeText(node ast.Node, source []byte) string {
	var buf strings.Builder

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}
