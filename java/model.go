package java

import "strings"

type DeclarationKind string

const (
	KindClass      DeclarationKind = "class"
	KindInterface  DeclarationKind = "interface"
	KindEnum       DeclarationKind = "enum"
	KindAnnotation DeclarationKind = "annotation"
)

// Member is a part of a Declaration: Field, Constructor, Method, Getter,
// Setter or a nested *Declaration.
type Member interface {
	Accept(v MemberVisitor)
	member()
}

// MemberVisitor has one method per Member variant.
type MemberVisitor interface {
	VisitField(m Field)
	VisitConstructor(m Constructor)
	VisitMethod(m Method)
	VisitGetter(m Getter)
	VisitSetter(m Setter)
	VisitDeclaration(d *Declaration)
}

type Parameter struct {
	Name string
	Type TypeRef
}

type Field struct {
	Name     string
	Type     TypeRef
	Doc      string
	IsStatic bool
}

type Constructor struct {
	Name   string
	Params []Parameter
	Doc    string
}

type Method struct {
	Name       string
	ReturnType TypeRef
	Params     []Parameter
	TypeParams []TypeRef
	Doc        string
	IsStatic   bool
	IsOverride bool
}

// Getter is a method classified as a property read. Name is the method name.
type Getter struct {
	Name       string
	Type       TypeRef
	Doc        string
	IsStatic   bool
	IsOverride bool
}

// Setter is a method classified as a property write. Name is the method name.
type Setter struct {
	Name       string
	ParamType  TypeRef
	Doc        string
	IsStatic   bool
	IsOverride bool
}

// Declaration is an extracted type. It is also a Member so that nested types
// can appear in their outer type's member list.
type Declaration struct {
	Doc        string
	IsStatic   bool
	Self       TypeRef
	Kind       DeclarationKind
	SuperTypes []TypeRef
	Interfaces []TypeRef
	Members    []Member
	// Package is the Java package of the outermost declaration.
	Package string
}

func (m Field) Accept(v MemberVisitor)        { v.VisitField(m) }
func (m Constructor) Accept(v MemberVisitor)  { v.VisitConstructor(m) }
func (m Method) Accept(v MemberVisitor)       { v.VisitMethod(m) }
func (m Getter) Accept(v MemberVisitor)       { v.VisitGetter(m) }
func (m Setter) Accept(v MemberVisitor)       { v.VisitSetter(m) }
func (d *Declaration) Accept(v MemberVisitor) { v.VisitDeclaration(d) }

func (Field) member()        {}
func (Constructor) member()  {}
func (Method) member()       {}
func (Getter) member()       {}
func (Setter) member()       {}
func (*Declaration) member() {}

// Name returns the qualified name, e.g. java.util.Map.Entry.
func (d *Declaration) Name() string {
	return d.Self.Name()
}

func (d *Declaration) SimpleName() string {
	name := d.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// LocalName returns the name relative to the package, e.g. Map.Entry.
func (d *Declaration) LocalName() string {
	name := d.Name()
	if d.Package != "" && strings.HasPrefix(name, d.Package+".") {
		return name[len(d.Package)+1:]
	}
	return name
}

// TypeParams returns the type variables of a generic declaration.
func (d *Declaration) TypeParams() []TypeRef {
	if p, ok := d.Self.(Parametrized); ok {
		return p.Args
	}
	return nil
}

// Nested returns the nested declarations in member order.
func (d *Declaration) Nested() []*Declaration {
	var nested []*Declaration
	for _, m := range d.Members {
		if inner, ok := m.(*Declaration); ok {
			nested = append(nested, inner)
		}
	}
	return nested
}

// PropertyName turns an accessor name like getFooBar into fooBar.
func PropertyName(accessor string) string {
	name := accessor
	for _, prefix := range []string{"get", "set"} {
		if len(name) > len(prefix) && strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	if len(name) > 1 && isUpper(name[0]) && isUpper(name[1]) {
		return name
	}
	if name != "" && isUpper(name[0]) {
		return strings.ToLower(name[:1]) + name[1:]
	}
	return name
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// WalkTypeRefs calls fn for every type reference in d, including nested
// declarations, type arguments and array elements.
func WalkTypeRefs(d *Declaration, fn func(TypeRef)) {
	w := &typeRefWalker{fn: fn}
	w.VisitDeclaration(d)
}

type typeRefWalker struct {
	fn func(TypeRef)
}

func (w *typeRefWalker) ref(t TypeRef) {
	if t != nil {
		t.Accept(w)
	}
}

func (w *typeRefWalker) refs(ts []TypeRef) {
	for _, t := range ts {
		w.ref(t)
	}
}

func (w *typeRefWalker) params(ps []Parameter) {
	for _, p := range ps {
		w.ref(p.Type)
	}
}

func (w *typeRefWalker) VisitSimple(t Simple) { w.fn(t) }

func (w *typeRefWalker) VisitParametrized(t Parametrized) {
	w.fn(t)
	w.ref(t.Base)
	w.refs(t.Args)
}

func (w *typeRefWalker) VisitWildcard(t Wildcard) {
	w.fn(t)
	w.ref(t.Bound)
}

func (w *typeRefWalker) VisitArray(t Array) {
	w.fn(t)
	w.ref(t.Element)
}

func (w *typeRefWalker) VisitNullable(t Nullable) {
	w.fn(t)
	w.ref(t.Inner)
}

func (w *typeRefWalker) VisitField(m Field) { w.ref(m.Type) }

func (w *typeRefWalker) VisitConstructor(m Constructor) { w.params(m.Params) }

func (w *typeRefWalker) VisitMethod(m Method) {
	w.ref(m.ReturnType)
	w.params(m.Params)
	w.refs(m.TypeParams)
}

func (w *typeRefWalker) VisitGetter(m Getter) { w.ref(m.Type) }

func (w *typeRefWalker) VisitSetter(m Setter) { w.ref(m.ParamType) }

func (w *typeRefWalker) VisitDeclaration(d *Declaration) {
	w.ref(d.Self)
	w.refs(d.SuperTypes)
	w.refs(d.Interfaces)
	for _, m := range d.Members {
		m.Accept(w)
	}
}
