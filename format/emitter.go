package format

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/javadoc"
)

// Emitter accumulates TypeScript declaration text. It tracks the current
// indentation depth and resolves type names through a rename table.
//
// An Emitter is used for one output module and is not safe for concurrent use.
type Emitter struct {
	out    strings.Builder
	unit   string
	depth  int
	indent string
	names  *java.Names
	docs   javadoc.Filter
}

// NewEmitter returns an Emitter indenting with unit. names may be nil.
func NewEmitter(unit string, names *java.Names, docs javadoc.Filter) *Emitter {
	if docs == nil {
		docs = javadoc.PlainText{}
	}
	return &Emitter{unit: unit, names: names, docs: docs}
}

// Block runs fn one indentation level deeper. The previous depth is restored
// however fn returns.
func (e *Emitter) Block(fn func()) {
	defer e.setDepth(e.depth)
	e.setDepth(e.depth + 1)
	fn()
}

func (e *Emitter) setDepth(depth int) {
	if depth == e.depth {
		return
	}
	e.depth = depth
	e.indent = strings.Repeat(e.unit, depth)
}

// Depth returns the current indentation depth.
func (e *Emitter) Depth() int {
	return e.depth
}

// Print appends text without indentation or newline.
func (e *Emitter) Print(text string) {
	e.out.WriteString(text)
}

// Printf appends a template. Each %s consumes the next argument: type
// references, members and parameter lists are rendered, anything else is
// formatted with fmt.Sprint. %% produces a literal percent sign.
func (e *Emitter) Printf(format string, args ...any) {
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			e.out.WriteByte(c)
			continue
		}
		switch format[i+1] {
		case 's':
			if next >= len(args) {
				panic(errors.AssertionFailedf("template %q: missing argument %d", format, next))
			}
			e.arg(args[next])
			next++
			i++
		case '%':
			e.out.WriteByte('%')
			i++
		default:
			e.out.WriteByte(c)
		}
	}
	if next != len(args) {
		panic(errors.AssertionFailedf("template %q: %d arguments, %d used", format, len(args), next))
	}
}

// Println appends the current indent, a template and a newline.
func (e *Emitter) Println(format string, args ...any) {
	e.out.WriteString(e.indent)
	e.Printf(format, args...)
	e.out.WriteByte('\n')
}

func (e *Emitter) arg(a any) {
	switch a := a.(type) {
	case java.TypeRef:
		e.Type(a)
	case java.Member:
		e.Render(a)
	case []java.Parameter:
		for i, p := range a {
			if i > 0 {
				e.out.WriteString(", ")
			}
			e.Printf("%s: %s", safeIdentifier(p.Name), p.Type)
		}
	case []java.TypeRef:
		for i, t := range a {
			if i > 0 {
				e.out.WriteString(", ")
			}
			e.Type(t)
		}
	case string:
		e.out.WriteString(a)
	default:
		e.out.WriteString(fmt.Sprint(a))
	}
}

// Doc writes a documentation comment for the raw Javadoc text. Nothing is
// written when the filtered text is empty. Lines lose their leading
// whitespace except inside ``` fences.
func (e *Emitter) Doc(raw string, tags ...string) {
	var lines []string
	if raw != "" {
		text := strings.ReplaceAll(e.docs.Filter(raw), "*/", "*\\/")
		fenced := false
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimLeft(line, " \t")
			switch {
			case strings.HasPrefix(trimmed, "```"):
				fenced = !fenced
				lines = append(lines, trimmed)
			case fenced:
				lines = append(lines, strings.TrimRight(line, " \t"))
			case trimmed != "":
				lines = append(lines, trimmed)
			}
		}
	}
	lines = append(lines, tags...)
	if len(lines) == 0 {
		return
	}
	e.Println("/**")
	for _, line := range lines {
		e.out.WriteString(e.indent)
		if line == "" {
			e.out.WriteString(" *\n")
			continue
		}
		e.out.WriteString(" * ")
		e.out.WriteString(line)
		e.out.WriteByte('\n')
	}
	e.Println(" */")
}

// Render writes a member through the TypeScript renderer.
func (e *Emitter) Render(m java.Member) {
	if m == nil {
		panic(errors.AssertionFailedf("render: nil member"))
	}
	m.Accept(&memberRenderer{e: e})
}

// Type writes a type reference through the TypeScript renderer.
func (e *Emitter) Type(t java.TypeRef) {
	if t == nil {
		panic(errors.AssertionFailedf("render: nil type reference"))
	}
	t.Accept(&typeRenderer{e: e})
}

// TypeName returns the display name of a nominal type: the rename table
// entry if present, the TypeScript builtin if there is one, else the
// qualified name with dots replaced by underscores.
func (e *Emitter) TypeName(t java.TypeRef) string {
	if name, ok := e.names.Lookup(t); ok {
		return name
	}
	if s, ok := t.(java.Simple); ok {
		if name, ok := builtinTypes[s.QualifiedName]; ok {
			return name
		}
	}
	return SanitizeName(t.Name())
}

// SanitizeName turns a qualified Java name into a flat identifier.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// String returns the text written so far.
func (e *Emitter) String() string {
	return e.out.String()
}

// Bytes returns the text written so far.
func (e *Emitter) Bytes() []byte {
	return []byte(e.out.String())
}
