package pdf

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markdownParser *markdown.Markdown = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// RenderMarkdown translates CommonMark markdown to HTML.
func RenderMarkdown(input io.Reader) string {

	// remove all tabs from the beginning of each line

	var unindentedContent = &bytes.Buffer{}

	lineScanner := bufio.NewScanner(input)
	for lineScanner.Scan() {
		line := lineScanner.Text()
		for len(line) > 0 && line[0] == '\t' {
			line = line[1:]
		}
		unindentedContent.WriteString(line)
		unindentedContent.WriteString("\n")
	}

	var result = &bytes.Buffer{}
	markdownParser.Render(result, unindentedContent.Bytes())
	return result.String()
}

// A block is a paragraph-like unit of flattened HTML content.
type block struct {
	Text    string
	Heading int  // 1..6, zero for body text
	Bullet  bool // list item
}

// blocks flattens an HTML fragment into a sequence of text blocks.
// Inline markup is dropped, block-level elements start a new block.
func blocks(htm string) []block {

	doc, err := html.Parse(strings.NewReader(htm))
	if err != nil {
		return []block{{Text: htm}}
	}

	var result = []block{}
	var current *block

	var flush = func() {
		if current != nil {
			current.Text = strings.Join(strings.Fields(current.Text), " ")
			if current.Text != "" {
				result = append(result, *current)
			}
			current = nil
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {

		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				flush()
				current = &block{Heading: int(n.Data[1] - '0')}
			case atom.P, atom.Blockquote, atom.Pre, atom.Tr:
				flush()
				current = &block{}
			case atom.Li:
				flush()
				current = &block{Bullet: true}
			case atom.Br:
				if current != nil {
					current.Text += " "
				}
			}
		}

		if n.Type == html.TextNode {
			if current == nil {
				current = &block{}
			}
			current.Text += n.Data
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}

		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P, atom.Blockquote, atom.Pre, atom.Li, atom.Tr:
				flush()
			}
		}
	}
	walk(doc)
	flush()

	return result
}
