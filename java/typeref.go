package java

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// TypeRef is a reference to a type as it appears in a declaration signature.
//
// The set of implementations is closed: Simple, Parametrized, Wildcard, Array
// and Nullable. Two TypeRefs are equal when their keys are equal.
type TypeRef interface {
	// Name is the qualified name of the underlying nominal type.
	Name() string
	// Key is a canonical structural encoding of the reference.
	Key() string
	Accept(v TypeRefVisitor)
	typeRef()
}

// TypeRefVisitor has one method per TypeRef variant.
type TypeRefVisitor interface {
	VisitSimple(t Simple)
	VisitParametrized(t Parametrized)
	VisitWildcard(t Wildcard)
	VisitArray(t Array)
	VisitNullable(t Nullable)
}

type BoundKind string

const (
	BoundUpper BoundKind = "extends"
	BoundLower BoundKind = "super"
)

// Simple is a bare nominal reference. Arity is the number of type parameters
// the referenced type declares, or 0 when unknown.
type Simple struct {
	QualifiedName string
	Arity         int
}

type Parametrized struct {
	Base TypeRef
	Args []TypeRef
}

// Wildcard is a type argument of unknown type. Bound is nil for "?".
type Wildcard struct {
	Bound TypeRef
	Kind  BoundKind
}

type Array struct {
	Element    TypeRef
	Dimensions int
}

type Nullable struct {
	Inner TypeRef
}

var (
	Void    = Simple{QualifiedName: "void"}
	Boolean = Simple{QualifiedName: "boolean"}
	Byte    = Simple{QualifiedName: "byte"}
	Short   = Simple{QualifiedName: "short"}
	Char    = Simple{QualifiedName: "char"}
	Int     = Simple{QualifiedName: "int"}
	Long    = Simple{QualifiedName: "long"}
	Float   = Simple{QualifiedName: "float"}
	Double  = Simple{QualifiedName: "double"}
	String  = Simple{QualifiedName: "java.lang.String"}
	Object  = Simple{QualifiedName: "java.lang.Object"}
)

var builtins = map[string]Simple{
	"void":             Void,
	"boolean":          Boolean,
	"byte":             Byte,
	"short":            Short,
	"char":             Char,
	"int":              Int,
	"long":             Long,
	"float":            Float,
	"double":           Double,
	"java.lang.String": String,
}

// Builtin returns the fixed reference for a primitive, void or java.lang.String.
func Builtin(name string) (Simple, bool) {
	s, ok := builtins[name]
	return s, ok
}

func (t Simple) Name() string { return t.QualifiedName }
func (t Simple) Key() string {
	if t.Arity == 0 {
		return t.QualifiedName
	}
	return t.QualifiedName + "/" + strconv.Itoa(t.Arity)
}
func (t Simple) Accept(v TypeRefVisitor) { v.VisitSimple(t) }
func (Simple) typeRef()                  {}

func (t Parametrized) Name() string { return t.Base.Name() }
func (t Parametrized) Key() string {
	var sb strings.Builder
	sb.WriteString(t.Base.Key())
	sb.WriteByte('<')
	for i, arg := range t.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.Key())
	}
	sb.WriteByte('>')
	return sb.String()
}
func (t Parametrized) Accept(v TypeRefVisitor) { v.VisitParametrized(t) }
func (Parametrized) typeRef()                  {}

func (t Wildcard) Name() string {
	if t.Bound == nil {
		return "?"
	}
	return t.Bound.Name()
}
func (t Wildcard) Key() string {
	if t.Bound == nil {
		return "?"
	}
	return "? " + string(t.Kind) + " " + t.Bound.Key()
}
func (t Wildcard) Accept(v TypeRefVisitor) { v.VisitWildcard(t) }
func (Wildcard) typeRef()                  {}

func (t Array) Name() string { return t.Element.Name() }
func (t Array) Key() string {
	return t.Element.Key() + strings.Repeat("[]", t.Dimensions)
}
func (t Array) Accept(v TypeRefVisitor) { v.VisitArray(t) }
func (Array) typeRef()                  {}

func (t Nullable) Name() string            { return t.Inner.Name() }
func (t Nullable) Key() string             { return t.Inner.Key() + "?" }
func (t Nullable) Accept(v TypeRefVisitor) { v.VisitNullable(t) }
func (Nullable) typeRef()                  {}

// Equal reports whether a and b are structurally equal.
func Equal(a, b TypeRef) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// MakeArray wraps ref into an array of the given dimensions. Wrapping an
// array adds to its dimensions.
func MakeArray(ref TypeRef, dimensions int) TypeRef {
	if dimensions <= 0 {
		return ref
	}
	if arr, ok := ref.(Array); ok {
		return Array{Element: arr.Element, Dimensions: arr.Dimensions + dimensions}
	}
	return Array{Element: ref, Dimensions: dimensions}
}

// EnumSuperClass returns the implicit base of an enum, java.lang.Enum<self>.
func EnumSuperClass(self TypeRef) TypeRef {
	return Parametrized{
		Base: Simple{QualifiedName: "java.lang.Enum", Arity: 1},
		Args: []TypeRef{self},
	}
}

// FromHandle converts a resolver type handle into a TypeRef.
func FromHandle(h TypeHandle) (TypeRef, error) {
	if h == nil {
		return nil, errors.Mark(errors.New("missing type handle"), ErrUnresolvedType)
	}
	desc, err := h.Describe()
	if err != nil {
		return nil, errors.Mark(err, ErrUnresolvedType)
	}

	switch desc.Kind {
	case TypeKindVoid:
		return Void, nil
	case TypeKindPrimitive:
		if s, ok := Builtin(desc.Name); ok {
			return s, nil
		}
		return nil, errors.Mark(errors.Newf("unknown primitive type %q", desc.Name), ErrUnresolvedType)
	case TypeKindVariable:
		return Simple{QualifiedName: desc.Name}, nil
	case TypeKindReference:
		if len(desc.Args) == 0 {
			if s, ok := Builtin(desc.Name); ok {
				return s, nil
			}
			return Simple{QualifiedName: desc.Name, Arity: desc.Arity}, nil
		}
		args := make([]TypeRef, 0, len(desc.Args))
		for _, a := range desc.Args {
			ref, err := FromHandle(a)
			if err != nil {
				return nil, err
			}
			args = append(args, ref)
		}
		arity := desc.Arity
		if arity == 0 {
			arity = len(args)
		}
		return Parametrized{Base: Simple{QualifiedName: desc.Name, Arity: arity}, Args: args}, nil
	case TypeKindArray:
		elem, err := FromHandle(desc.Element)
		if err != nil {
			return nil, err
		}
		dims := desc.Dimensions
		if dims < 1 {
			dims = 1
		}
		return MakeArray(elem, dims), nil
	case TypeKindWildcard:
		w := Wildcard{Kind: desc.BoundKind}
		if desc.Bound != nil {
			bound, err := FromHandle(desc.Bound)
			if err != nil {
				return nil, err
			}
			w.Bound = bound
		}
		if w.Kind == "" {
			w.Kind = BoundUpper
		}
		return w, nil
	}
	return nil, errors.Mark(errors.Newf("unsupported type kind %q for %q", desc.Kind, desc.Name), ErrUnresolvedType)
}

// FromDeclaration returns the reference a declared type uses for itself.
func FromDeclaration(name string, decl *TypeDecl) (TypeRef, error) {
	if len(decl.TypeParams) == 0 {
		return Simple{QualifiedName: name}, nil
	}
	args := make([]TypeRef, 0, len(decl.TypeParams))
	for _, tp := range decl.TypeParams {
		ref, err := FromHandle(tp)
		if err != nil {
			return nil, err
		}
		args = append(args, ref)
	}
	return Parametrized{Base: Simple{QualifiedName: name, Arity: len(args)}, Args: args}, nil
}

// Names maps type references to the display name used in one output module.
type Names struct {
	names map[string]string
}

func NewNames() *Names {
	return &Names{names: make(map[string]string)}
}

func (n *Names) Set(ref TypeRef, name string) {
	n.names[ref.Key()] = name
}

func (n *Names) Lookup(ref TypeRef) (string, bool) {
	if n == nil {
		return "", false
	}
	name, ok := n.names[ref.Key()]
	return name, ok
}

func (n *Names) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}
