package javadoc

import (
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

// Filter turns a raw Javadoc comment into text suitable for a documentation
// comment in generated code.
type Filter interface {
	Filter(raw string) string
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(raw string) string

func (f FilterFunc) Filter(raw string) string {
	return f(raw)
}

// None drops all documentation.
var None Filter = FilterFunc(func(string) string { return "" })

// PlainText strips markup and keeps the text and block tags.
type PlainText struct{}

func (PlainText) Filter(raw string) string {
	return FormatPlainText(Parse(raw))
}

// Markdown converts common HTML markup and inline tags to Markdown.
type Markdown struct{}

func (Markdown) Filter(raw string) string {
	return Format(Parse(raw))
}

// ForName returns the filter for a doc format name ("plain", "markdown" or
// "none").
func ForName(name string) (Filter, bool) {
	switch strings.ToLower(name) {
	case "", "plain", "text":
		return PlainText{}, true
	case "markdown", "md":
		return Markdown{}, true
	case "none":
		return None, true
	}
	return nil, false
}

// Format renders doc as Markdown.
func Format(doc *Comment) string {
	return render(doc, true)
}

// FormatPlainText renders doc as plain text.
func FormatPlainText(doc *Comment) string {
	return render(doc, false)
}

func render(doc *Comment, markdown bool) string {
	var parts []string
	if body := htmlToText(nodesToHTML(doc.Body, markdown), markdown); body != "" {
		parts = append(parts, body)
	}
	for _, tag := range doc.Tags {
		parts = append(parts, formatBlockTag(tag, markdown))
	}
	return strings.Join(parts, "\n\n")
}

func formatBlockTag(tag BlockTag, markdown bool) string {
	line := "@" + tag.Name
	if tag.Argument != "" {
		line += " " + tag.Argument
	}
	if text := htmlToText(nodesToHTML(tag.Body, markdown), markdown); text != "" {
		line += " " + text
	}
	return line
}

// nodesToHTML renders inline tags into the surrounding HTML so that a single
// pass over the markup produces the final text.
func nodesToHTML(nodes []Node, markdown bool) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n := n.(type) {
		case Text:
			sb.WriteString(n.Content)
		case Code:
			if markdown {
				sb.WriteString("`" + xhtml.EscapeString(n.Content) + "`")
			} else {
				sb.WriteString(xhtml.EscapeString(n.Content))
			}
		case Literal:
			sb.WriteString(xhtml.EscapeString(n.Content))
		case Link:
			text := n.Label
			if text == "" {
				text = formatReference(n.Reference)
			}
			if markdown && !n.Plain && n.Label == "" {
				text = "`" + text + "`"
			}
			sb.WriteString(xhtml.EscapeString(text))
		case Value:
			sb.WriteString(xhtml.EscapeString(formatReference(n.Reference)))
		case InheritDoc, DocRoot:
		case UnknownInlineTag:
			sb.WriteString(xhtml.EscapeString(n.Content))
		}
	}
	return sb.String()
}

// formatReference turns java.util.List#add(E) into List.add.
func formatReference(ref string) string {
	class, member, hasMember := strings.Cut(ref, "#")
	if paren := strings.Index(member, "("); paren >= 0 {
		member = member[:paren]
	}
	if i := strings.LastIndex(class, "."); i >= 0 {
		class = class[i+1:]
	}
	switch {
	case !hasMember:
		return class
	case class == "":
		return member
	}
	return class + "." + member
}

var blankLines = regexp.MustCompile(`\n{3,}`)

func htmlToText(markup string, markdown bool) string {
	var sb strings.Builder
	var hrefs []string
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return cleanup(sb.String())
		case xhtml.TextToken:
			sb.Write(z.Text())
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			var href string
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					href = string(val)
				}
			}
			if tag == "a" {
				hrefs = append(hrefs, href)
			}
			sb.WriteString(startTag(tag, href, markdown))
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			var href string
			if tag == "a" && len(hrefs) > 0 {
				href = hrefs[len(hrefs)-1]
				hrefs = hrefs[:len(hrefs)-1]
			}
			sb.WriteString(endTag(tag, href, markdown))
		}
	}
}

func startTag(tag, href string, markdown bool) string {
	switch tag {
	case "p", "ul", "ol", "dl", "table", "blockquote":
		return "\n\n"
	case "br", "tr", "dt", "dd":
		return "\n"
	case "li":
		return "\n- "
	}
	if !markdown {
		return ""
	}
	switch tag {
	case "b", "strong":
		return "**"
	case "i", "em":
		return "*"
	case "code", "tt":
		return "`"
	case "pre":
		return "\n```\n"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "\n\n" + strings.Repeat("#", int(tag[1]-'0')) + " "
	case "a":
		if href != "" {
			return "["
		}
	}
	return ""
}

func endTag(tag, href string, markdown bool) string {
	switch tag {
	case "p", "ul", "ol", "dl", "table", "blockquote":
		return "\n\n"
	}
	if !markdown {
		return ""
	}
	switch tag {
	case "b", "strong":
		return "**"
	case "i", "em":
		return "*"
	case "code", "tt":
		return "`"
	case "pre":
		return "\n```\n"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "\n\n"
	case "a":
		if href != "" {
			return "](" + href + ")"
		}
	}
	return ""
}

func cleanup(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
