package ui

import (
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
	runewidth "github.com/mattn/go-runewidth"
)

// renderMarkdown lays markdown out as plain text rows no wider than width.
// Headings keep their '#' markers, list items get bullets or numbers, code
// blocks are indented and never wrapped.
func renderMarkdown(src string, width int) []string {
	src = strings.TrimSpace(src)
	if src == "" || width <= 0 {
		return nil
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(src))

	r := mdRenderer{width: width}
	r.blocks(doc, "", "")
	return r.lines
}

type mdRenderer struct {
	width int
	lines []string
}

// blocks renders the block children of n. first prefixes the first row
// emitted, rest every row after it.
func (r *mdRenderer) blocks(n ast.Node, first, rest string) {
	lead := first
	emit := func(text string) {
		avail := max(r.width-runewidth.StringWidth(lead), 1)
		for _, l := range wrap(text, avail) {
			r.lines = append(r.lines, lead+l)
			lead = rest
		}
	}
	for _, child := range n.GetChildren() {
		switch c := child.(type) {
		case *ast.Heading:
			emit(strings.Repeat("#", c.Level) + " " + inlineText(c))
		case *ast.Paragraph:
			emit(inlineText(c))
		case *ast.List:
			start := c.Start
			if start == 0 {
				start = 1
			}
			for i, item := range c.GetChildren() {
				bullet := "• "
				if c.ListFlags&ast.ListTypeOrdered != 0 {
					bullet = strconv.Itoa(start+i) + ". "
				}
				pad := strings.Repeat(" ", runewidth.StringWidth(bullet))
				if hasBlocks(item) {
					r.blocks(item, lead+bullet, rest+pad)
				} else {
					first, cont := lead+bullet, rest+pad
					for j, l := range wrap(inlineText(item), max(r.width-runewidth.StringWidth(first), 1)) {
						if j == 0 {
							r.lines = append(r.lines, first+l)
						} else {
							r.lines = append(r.lines, cont+l)
						}
					}
				}
				lead = rest
			}
		case *ast.CodeBlock:
			for _, l := range strings.Split(strings.TrimRight(string(c.Literal), "\n"), "\n") {
				r.lines = append(r.lines, runewidth.Truncate(lead+"  "+l, r.width, "…"))
				lead = rest
			}
		case *ast.BlockQuote:
			r.blocks(c, lead+"│ ", rest+"│ ")
			lead = rest
		case *ast.HorizontalRule:
			r.lines = append(r.lines, lead+strings.Repeat("─", max(r.width-runewidth.StringWidth(lead), 0)))
			lead = rest
		default:
			if c.AsContainer() != nil {
				r.blocks(c, lead, rest)
				lead = rest
			}
		}
	}
}

func hasBlocks(n ast.Node) bool {
	for _, c := range n.GetChildren() {
		switch c.(type) {
		case *ast.Paragraph, *ast.List, *ast.CodeBlock, *ast.BlockQuote, *ast.Heading, *ast.HorizontalRule:
			return true
		}
	}
	return false
}

// inlineText flattens the inline content of n.
func inlineText(n ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(n, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Literal)
		case *ast.Code:
			b.Write(v.Literal)
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte(' ')
		}
		return ast.GoToNext
	})
	return singleLine(b.String())
}
