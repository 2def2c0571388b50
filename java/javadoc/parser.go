package javadoc

import (
	"strings"
	"unicode"
)

// tags whose first word is an argument rather than description
var argumentTags = map[string]bool{
	"param":       true,
	"throws":      true,
	"exception":   true,
	"serialField": true,
	"provides":    true,
	"uses":        true,
}

// Parse parses a Javadoc comment. The comment may include the /** and */
// delimiters and the leading asterisks of each line.
func Parse(javadoc string) *Comment {
	lines := strings.Split(stripDelimiters(javadoc), "\n")

	doc := &Comment{}
	var (
		body    []string
		current *BlockTag
		tagText []string
		depth   int
		inPre   bool
	)
	flush := func() {
		if current != nil {
			current.Body = parseInline(strings.Join(tagText, "\n"))
			doc.Tags = append(doc.Tags, *current)
		}
		current, tagText = nil, nil
	}

	for _, line := range lines {
		line = stripLinePrefix(line)
		if depth == 0 && !inPre {
			if name, rest, ok := blockTagStart(line); ok {
				flush()
				current = &BlockTag{Name: name}
				if argumentTags[name] {
					current.Argument, rest = splitWord(rest)
				}
				tagText = append(tagText, rest)
				depth, inPre = scanNesting(line, depth, inPre)
				continue
			}
		}
		if current != nil {
			tagText = append(tagText, line)
		} else {
			body = append(body, line)
		}
		depth, inPre = scanNesting(line, depth, inPre)
	}
	flush()

	doc.Body = parseInline(strings.TrimSpace(strings.Join(body, "\n")))
	return doc
}

func stripDelimiters(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/**")
	s = strings.TrimSuffix(s, "*/")
	return s
}

// stripLinePrefix removes leading whitespace and a single asterisk.
func stripLinePrefix(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "*/") {
		trimmed = trimmed[1:]
		return strings.TrimPrefix(trimmed, " ")
	}
	return strings.TrimPrefix(line, " ")
}

func blockTagStart(line string) (name, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 2 || trimmed[0] != '@' || !unicode.IsLetter(rune(trimmed[1])) {
		return "", "", false
	}
	end := 1
	for end < len(trimmed) && isTagNameByte(trimmed[end]) {
		end++
	}
	return trimmed[1:end], strings.TrimLeft(trimmed[end:], " \t"), true
}

// scanNesting tracks unbalanced braces and <pre> blocks, inside which a line
// starting with @ is content and not a block tag.
func scanNesting(line string, depth int, inPre bool) (int, bool) {
	lower := strings.ToLower(line)
	if strings.LastIndex(lower, "<pre") > strings.LastIndex(lower, "</pre") {
		inPre = true
	} else if strings.Contains(lower, "</pre") {
		inPre = false
	}
	for _, ch := range line {
		switch ch {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth, inPre
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func isTagNameByte(b byte) bool {
	return b == '-' || b == '.' || b == '_' || unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

// parseInline splits text into Text nodes and inline tags.
func parseInline(s string) []Node {
	var nodes []Node
	var text strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "{@") {
			content, next, ok := readBalanced(s, i+1)
			if ok {
				if text.Len() > 0 {
					nodes = append(nodes, Text{Content: text.String()})
					text.Reset()
				}
				nodes = append(nodes, inlineTag(content[1:]))
				i = next
				continue
			}
		}
		text.WriteByte(s[i])
		i++
	}
	if text.Len() > 0 {
		nodes = append(nodes, Text{Content: text.String()})
	}
	return nodes
}

// readBalanced reads from s[start] up to the '}' that closes the '{' before
// start, handling nested braces.
func readBalanced(s string, start int) (content string, next int, ok bool) {
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return s[start:i], i + 1, true
			}
			depth--
		}
	}
	return "", 0, false
}

func inlineTag(s string) Node {
	name, content := splitWord(s)
	switch name {
	case "code":
		return Code{Content: trimOneSpace(s[len(name):])}
	case "literal":
		return Literal{Content: trimOneSpace(s[len(name):])}
	case "link", "linkplain":
		ref, label := splitWord(content)
		return Link{Reference: ref, Label: strings.TrimSpace(label), Plain: name == "linkplain"}
	case "value":
		return Value{Reference: strings.TrimSpace(content)}
	case "inheritDoc":
		return InheritDoc{}
	case "docRoot":
		return DocRoot{}
	}
	return UnknownInlineTag{Name: name, Content: content}
}

func trimOneSpace(s string) string {
	if strings.HasPrefix(s, " ") {
		return s[1:]
	}
	return s
}
