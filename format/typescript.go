package format

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/javadoc"
)

var builtinTypes = map[string]string{
	"void":                "void",
	"boolean":             "boolean",
	"byte":                "number",
	"short":               "number",
	"int":                 "number",
	"long":                "number",
	"float":               "number",
	"double":              "number",
	"char":                "string",
	"java.lang.String":    "string",
	"java.lang.Object":    "any",
	"java.lang.Boolean":   "boolean",
	"java.lang.Byte":      "number",
	"java.lang.Short":     "number",
	"java.lang.Integer":   "number",
	"java.lang.Long":      "number",
	"java.lang.Float":     "number",
	"java.lang.Double":    "number",
	"java.lang.Character": "string",
}

// IsBuiltin reports whether a qualified Java name renders as a TypeScript
// builtin type.
func IsBuiltin(name string) bool {
	_, ok := builtinTypes[name]
	return ok
}

var reservedWords = map[string]bool{
	"arguments": true,
	"await":     true,
	"debugger":  true,
	"delete":    true,
	"export":    true,
	"function":  true,
	"in":        true,
	"let":       true,
	"typeof":    true,
	"var":       true,
	"with":      true,
	"yield":     true,
}

func safeIdentifier(name string) string {
	if reservedWords[name] {
		return name + "_"
	}
	return name
}

type typeRenderer struct {
	e *Emitter
}

func (r *typeRenderer) renamed(t java.TypeRef) bool {
	name, ok := r.e.names.Lookup(t)
	if ok {
		r.e.Print(name)
	}
	return ok
}

func (r *typeRenderer) VisitSimple(t java.Simple) {
	r.e.Print(r.e.TypeName(t))
	if t.Arity > 0 {
		r.e.Print("<" + strings.TrimSuffix(strings.Repeat("any, ", t.Arity), ", ") + ">")
	}
}

func (r *typeRenderer) VisitParametrized(t java.Parametrized) {
	if r.renamed(t) {
		return
	}
	r.e.Printf("%s<%s>", r.e.TypeName(t.Base), t.Args)
}

func (r *typeRenderer) VisitWildcard(t java.Wildcard) {
	if r.renamed(t) {
		return
	}
	if t.Bound == nil {
		r.e.Print("any")
		return
	}
	r.e.Type(t.Bound)
}

func (r *typeRenderer) VisitArray(t java.Array) {
	if r.renamed(t) {
		return
	}
	if _, union := t.Element.(java.Nullable); union {
		r.e.Printf("(%s)", t.Element)
	} else {
		r.e.Type(t.Element)
	}
	r.e.Print(strings.Repeat("[]", t.Dimensions))
}

func (r *typeRenderer) VisitNullable(t java.Nullable) {
	if r.renamed(t) {
		return
	}
	r.e.Printf("%s | null", t.Inner)
}

type bodyKind int

const (
	classBody bodyKind = iota
	interfaceBody
	namespaceBody
)

type memberRenderer struct {
	e    *Emitter
	body bodyKind
}

func (r *memberRenderer) static(isStatic bool) string {
	if isStatic && r.body == classBody {
		return "static "
	}
	return ""
}

func overrideTag(isOverride bool) []string {
	if isOverride {
		return []string{"@override"}
	}
	return nil
}

func (r *memberRenderer) VisitField(m java.Field) {
	r.e.Doc(m.Doc)
	if r.body == namespaceBody {
		r.e.Println("const %s: %s;", m.Name, m.Type)
		return
	}
	r.e.Println("%s%s: %s;", r.static(m.IsStatic), m.Name, m.Type)
}

func (r *memberRenderer) VisitConstructor(m java.Constructor) {
	r.e.Doc(m.Doc)
	r.e.Println("constructor(%s);", m.Params)
}

func (r *memberRenderer) VisitMethod(m java.Method) {
	r.e.Doc(m.Doc, overrideTag(m.IsOverride)...)
	prefix := r.static(m.IsStatic)
	if r.body == namespaceBody {
		prefix = "function "
	}
	if len(m.TypeParams) > 0 {
		r.e.Println("%s%s<%s>(%s): %s;", prefix, m.Name, m.TypeParams, m.Params, m.ReturnType)
		return
	}
	r.e.Println("%s%s(%s): %s;", prefix, m.Name, m.Params, m.ReturnType)
}

func (r *memberRenderer) VisitGetter(m java.Getter) {
	r.e.Doc(m.Doc, overrideTag(m.IsOverride)...)
	if r.body == namespaceBody {
		r.e.Println("function %s(): %s;", m.Name, m.Type)
		return
	}
	r.e.Println("%sget %s(): %s;", r.static(m.IsStatic), java.PropertyName(m.Name), m.Type)
}

func (r *memberRenderer) VisitSetter(m java.Setter) {
	r.e.Doc(m.Doc, overrideTag(m.IsOverride)...)
	if r.body == namespaceBody {
		r.e.Println("function %s(value: %s): void;", m.Name, m.ParamType)
		return
	}
	r.e.Println("%sset %s(value: %s);", r.static(m.IsStatic), java.PropertyName(m.Name), m.ParamType)
}

func (r *memberRenderer) VisitDeclaration(d *java.Declaration) {
	e := r.e
	e.Doc(d.Doc)

	name := d.SimpleName()
	var typeParams string
	if tps := d.TypeParams(); len(tps) > 0 {
		typeParams = "<" + r.typeList(tps) + ">"
	}

	body := classBody
	header := "export class " + name + typeParams
	switch d.Kind {
	case java.KindInterface, java.KindAnnotation:
		body = interfaceBody
		header = "export interface " + name + typeParams
		if supers := append(append([]java.TypeRef{}, d.SuperTypes...), d.Interfaces...); len(supers) > 0 {
			header += " extends " + r.typeList(supers)
		}
	default:
		if len(d.SuperTypes) > 0 {
			header += " extends " + r.typeList(d.SuperTypes[:1])
		}
		if len(d.Interfaces) > 0 {
			header += " implements " + r.typeList(d.Interfaces)
		}
	}

	var companions []java.Member
	inner := &memberRenderer{e: e, body: body}
	e.Println("%s {", header)
	e.Block(func() {
		for _, m := range d.Members {
			if _, nested := m.(*java.Declaration); nested || (body == interfaceBody && isStatic(m)) {
				companions = append(companions, m)
				continue
			}
			m.Accept(inner)
		}
	})
	e.Println("}")

	if len(companions) == 0 {
		return
	}
	ns := &memberRenderer{e: e, body: namespaceBody}
	e.Println("export namespace %s {", name)
	e.Block(func() {
		for _, m := range companions {
			m.Accept(ns)
		}
	})
	e.Println("}")
}

// typeList renders refs into a separate string so it can be embedded in a
// header built before the line is printed.
func (r *memberRenderer) typeList(refs []java.TypeRef) string {
	sub := &Emitter{unit: r.e.unit, names: r.e.names, docs: r.e.docs}
	sub.Printf("%s", refs)
	return sub.String()
}

func isStatic(m java.Member) bool {
	switch m := m.(type) {
	case java.Field:
		return m.IsStatic
	case java.Method:
		return m.IsStatic
	case java.Getter:
		return m.IsStatic
	case java.Setter:
		return m.IsStatic
	}
	return false
}

// TypeScriptEncoder writes a declaration as TypeScript.
type TypeScriptEncoder struct {
	w      io.Writer
	decl   *java.Declaration
	indent string
	names  *java.Names
	docs   javadoc.Filter
}

type Option func(*TypeScriptEncoder)

func WithIndent(unit string) Option {
	return func(enc *TypeScriptEncoder) { enc.indent = unit }
}

func WithNames(names *java.Names) Option {
	return func(enc *TypeScriptEncoder) { enc.names = names }
}

func WithDocFilter(f javadoc.Filter) Option {
	return func(enc *TypeScriptEncoder) { enc.docs = f }
}

func NewTypeScriptEncoder(w io.Writer, opts ...Option) *TypeScriptEncoder {
	enc := &TypeScriptEncoder{w: w, indent: "    "}
	for _, opt := range opts {
		opt(enc)
	}
	return enc
}

func (enc *TypeScriptEncoder) Encode(decl *java.Declaration) error {
	enc.decl = decl
	text, err := enc.MarshalText()
	if err != nil {
		return err
	}
	_, err = enc.w.Write(text)
	return err
}

func (enc *TypeScriptEncoder) MarshalText() ([]byte, error) {
	if enc.decl == nil {
		return nil, errors.New("no declaration to encode")
	}
	e := NewEmitter(enc.indent, enc.names, enc.docs)
	e.Render(enc.decl)
	return e.Bytes(), nil
}
