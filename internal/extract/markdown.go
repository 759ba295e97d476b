package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates a document opened a YAML frontmatter
// block without closing it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Frontmatter holds the fields the markdown extractor understands. Other keys
// are ignored.
type Frontmatter struct {
	Title string `yaml:"title"`
	Draft bool   `yaml:"draft"`
	NoDoc bool   `yaml:"nodoc"`
}

// Markdown passes markdown sources through with their frontmatter removed.
// Drafts, documents marked nodoc and documents without any block content
// produce no documentation. A frontmatter title becomes the heading when the
// body has none.
type Markdown struct{}

func (Markdown) Extract(ctx context.Context, moduleID string) (string, error) {
	src, err := readSource(ctx, moduleID)
	if err != nil {
		return "", err
	}
	return RenderMarkdown(src)
}

// RenderMarkdown applies the markdown extractor to an in-memory document.
func RenderMarkdown(src []byte) (string, error) {
	raw, body, err := SplitFrontmatter(src)
	if err != nil {
		return "", err
	}
	var fm Frontmatter
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fm); err != nil {
			return "", err
		}
	}
	if fm.Draft || fm.NoDoc {
		return "", nil
	}

	root := goldmark.New().Parser().Parse(text.NewReader(body))
	hasContent, hasHeading := inspect(root)
	if !hasContent {
		return "", nil
	}
	out := strings.TrimSpace(string(body))
	if !hasHeading && fm.Title != "" {
		out = "# " + fm.Title + "\n\n" + out
	}
	return out, nil
}

// inspect reports whether the document has any block other than HTML
// comments, and whether its first block is a heading.
func inspect(root gmast.Node) (hasContent, startsWithHeading bool) {
	first := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == gmast.KindHTMLBlock {
			if hb, ok := n.(*gmast.HTMLBlock); ok && hb.HTMLBlockType == gmast.HTMLBlockType2 {
				continue
			}
		}
		hasContent = true
		if first {
			startsWithHeading = n.Kind() == gmast.KindHeading
			first = false
		}
	}
	return hasContent, startsWithHeading
}

// SplitFrontmatter separates a leading `---` delimited YAML block from the
// body. Documents without one return a nil block and the full input.
func SplitFrontmatter(content []byte) (frontmatter, body []byte, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, nil
	}
	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], nil
	}
	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-len("---")], nil, nil
		}
		return nil, nil, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], nil
}
