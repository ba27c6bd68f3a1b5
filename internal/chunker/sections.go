package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// section is a heading-bounded span of a markdown document. Plain-text
// documents produce a single section with no header path.
type section struct {
	headerPath string // "# Roadmap > ## Fundamentals", empty for plain text
	text       string
}

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// splitSections pre-splits markdown at H1/H2 boundaries so token windows
// never straddle unrelated sections. Documents without headings come back
// as one section.
func splitSections(source []byte) []section {
	doc := markdownParser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return []section{{text: string(source)}}
	}

	// Flatten the TOC into document order with ancestor paths. The parsed
	// heading segment begins at the title text, after the "#" markers, so
	// lineStart backs up to the start of the heading line and bodyStart
	// skips past the title. The header path already carries the title;
	// section text is the body alone.
	type mark struct {
		headerPath string
		lineStart  int
		bodyStart  int
	}
	var marks []mark
	var walk func(items toc.Items, ancestors []string)
	walk = func(items toc.Items, ancestors []string) {
		for _, item := range items {
			path := append(append([]string{}, ancestors...), string(item.Title))
			if node := headingByID(doc, string(item.ID)); node != nil && node.Lines().Len() > 0 {
				lines := node.Lines()
				marks = append(marks, mark{
					headerPath: joinHeaderPath(path),
					lineStart:  lineStart(source, lines.At(0).Start),
					bodyStart:  lines.At(lines.Len() - 1).Stop,
				})
			}
			walk(item.Items, path)
		}
	}
	walk(tree.Items, nil)

	if len(marks) == 0 {
		return []section{{text: string(source)}}
	}

	var sections []section

	// Preamble before the first heading.
	if lead := strings.TrimSpace(string(source[:marks[0].lineStart])); lead != "" {
		sections = append(sections, section{text: lead})
	}

	for i, m := range marks {
		end := len(source)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		body := strings.TrimSpace(string(source[m.bodyStart:end]))
		if body == "" {
			continue
		}
		sections = append(sections, section{headerPath: m.headerPath, text: body})
	}
	return sections
}

// lineStart walks back from pos to the start of the line containing it.
func lineStart(source []byte, pos int) int {
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}

// joinHeaderPath renders a heading ancestry as "# A > ## B".
func joinHeaderPath(path []string) string {
	parts := make([]string, len(path))
	for i, title := range path {
		parts[i] = strings.Repeat("#", i+1) + " " + title
	}
	return strings.Join(parts, " > ")
}

// headingByID finds the heading node carrying the auto-generated ID.
func headingByID(root ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			if attr, ok := n.AttributeString("id"); ok {
				if b, ok := attr.([]byte); ok && string(b) == id {
					found = n
					return ast.WalkStop, nil
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}
