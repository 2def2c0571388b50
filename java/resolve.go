package java

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	// ErrParse marks errors caused by a source unit that could not be parsed.
	ErrParse = errors.New("parse failure")
	// ErrUnresolvedType marks errors caused by a type that could not be resolved.
	ErrUnresolvedType = errors.New("unresolved type")
)

// SourceUnit is one Java compilation unit. Name is the qualified name of the
// principal type, usually derived from the file path.
type SourceUnit struct {
	Name string
	Path string
	Code []byte
}

// Resolver parses source text into a resolved declaration tree.
type Resolver interface {
	Resolve(ctx context.Context, unit SourceUnit) (*CompilationUnit, error)
}

type Problem struct {
	Line    int
	Column  int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%d:%d: %s", p.Line, p.Column, p.Message)
}

// ParseError is returned by a Resolver when the unit is not valid Java.
type ParseError struct {
	Unit     string
	Problems []Problem
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Unit, strings.Join(parts, "; "))
}

type CompilationUnit struct {
	Package string
	Types   []*TypeDecl
}

type DeclKind string

const (
	DeclClass      DeclKind = "class"
	DeclInterface  DeclKind = "interface"
	DeclEnum       DeclKind = "enum"
	DeclAnnotation DeclKind = "annotation"
	DeclRecord     DeclKind = "record"
)

type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
	AccessPackage   Access = "package"
)

type Modifiers struct {
	Access      Access
	Static      bool
	Annotations []string
}

// HasAnnotation reports whether an annotation with the given simple name is
// present. Qualified annotation names match on their last segment.
func (m Modifiers) HasAnnotation(name string) bool {
	for _, a := range m.Annotations {
		if a == name || strings.HasSuffix(a, "."+name) {
			return true
		}
	}
	return false
}

// BodyDecl is a declaration inside a type body: *FieldDecl, *MethodDecl,
// *ConstructorDecl or *TypeDecl.
type BodyDecl interface {
	Mods() Modifiers
	bodyDecl()
}

type TypeDecl struct {
	Name          string
	QualifiedName string
	Kind          DeclKind
	Modifiers     Modifiers
	Doc           string
	TypeParams    []TypeHandle
	Extends       []TypeHandle
	Implements    []TypeHandle
	Constants     []EnumConstantDecl
	Components    []ParamDecl
	Members       []BodyDecl
}

type EnumConstantDecl struct {
	Name string
	Doc  string
}

type VariableDecl struct {
	Name string
	Type TypeHandle
}

type FieldDecl struct {
	Modifiers Modifiers
	Doc       string
	Variables []VariableDecl
}

type ParamDecl struct {
	Name        string
	Type        TypeHandle
	Annotations []string
}

type MethodDecl struct {
	Modifiers  Modifiers
	Doc        string
	Name       string
	ReturnType TypeHandle
	Params     []ParamDecl
	TypeParams []TypeHandle
}

type ConstructorDecl struct {
	Modifiers Modifiers
	Doc       string
	Name      string
	Params    []ParamDecl
}

func (d *TypeDecl) Mods() Modifiers        { return d.Modifiers }
func (d *FieldDecl) Mods() Modifiers       { return d.Modifiers }
func (d *MethodDecl) Mods() Modifiers      { return d.Modifiers }
func (d *ConstructorDecl) Mods() Modifiers { return d.Modifiers }

func (*TypeDecl) bodyDecl()        {}
func (*FieldDecl) bodyDecl()       {}
func (*MethodDecl) bodyDecl()      {}
func (*ConstructorDecl) bodyDecl() {}

// IsInterfaceLike reports whether members without an access modifier are
// implicitly public.
func (d *TypeDecl) IsInterfaceLike() bool {
	return d.Kind == DeclInterface || d.Kind == DeclAnnotation
}

type TypeKind string

const (
	TypeKindPrimitive TypeKind = "primitive"
	TypeKindVoid      TypeKind = "void"
	TypeKindReference TypeKind = "reference"
	TypeKindVariable  TypeKind = "variable"
	TypeKindArray     TypeKind = "array"
	TypeKindWildcard  TypeKind = "wildcard"
)

// TypeHandle is a resolver-owned reference to a type.
type TypeHandle interface {
	Describe() (TypeDescription, error)
}

// TypeDescription is what a resolver knows about a type handle.
type TypeDescription struct {
	Kind TypeKind
	// Name is fully qualified for references, the keyword for primitives
	// and the bare name for type variables.
	Name       string
	Arity      int
	Args       []TypeHandle
	Element    TypeHandle
	Dimensions int
	Bound      TypeHandle
	BoundKind  BoundKind
}

// Describe lets a TypeDescription serve as its own handle.
func (d TypeDescription) Describe() (TypeDescription, error) {
	return d, nil
}

type unresolvedHandle struct {
	name   string
	reason string
}

func (h unresolvedHandle) Describe() (TypeDescription, error) {
	return TypeDescription{}, errors.Mark(errors.Newf("cannot resolve type %q: %s", h.name, h.reason), ErrUnresolvedType)
}

// UnresolvedHandle returns a handle whose Describe always fails.
func UnresolvedHandle(name, reason string) TypeHandle {
	return unresolvedHandle{name: name, reason: reason}
}
