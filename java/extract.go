package java

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tsbind.java")

// Extractor turns resolved source units into Declarations.
type Extractor struct {
	resolver Resolver
	nullable []string
}

type ExtractorOption func(*Extractor)

// WithNullableAnnotations sets the annotation names that mark a field,
// return value or parameter as nullable.
func WithNullableAnnotations(names ...string) ExtractorOption {
	return func(x *Extractor) {
		x.nullable = names
	}
}

func NewExtractor(resolver Resolver, opts ...ExtractorOption) *Extractor {
	x := &Extractor{
		resolver: resolver,
		nullable: []string{"Nullable", "CheckForNull"},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract produces the Declaration for the principal type of unit.
//
// It returns nil without an error when the principal type is not public or
// the unit declares no type. Parse failures are marked with ErrParse and
// unresolvable types with ErrUnresolvedType. Other resolver errors, such as
// cancellation, are returned as they are.
func (x *Extractor) Extract(ctx context.Context, unit SourceUnit) (*Declaration, error) {
	cu, err := x.resolver.Resolve(ctx, unit)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) && !errors.Is(err, ErrParse) {
			return nil, errors.Mark(err, ErrParse)
		}
		return nil, err
	}
	if len(cu.Types) == 0 {
		log.Debugf("%s declares no types", unit.Name)
		return nil, nil
	}

	principal := cu.Types[0]
	if principal.Modifiers.Access != AccessPublic {
		log.Debugf("skipping non-public type %s", principal.QualifiedName)
		return nil, nil
	}

	name := unit.Name
	if name == "" {
		name = principal.QualifiedName
	}
	t := &typeExtraction{x: x, pkg: cu.Package}
	decl, err := t.process(name, principal)
	if err != nil {
		return nil, errors.Wrapf(err, "extract %s", name)
	}
	return decl, nil
}

type typeExtraction struct {
	x   *Extractor
	pkg string
}

func (t *typeExtraction) process(name string, td *TypeDecl) (*Declaration, error) {
	self, err := FromDeclaration(name, td)
	if err != nil {
		return nil, err
	}

	d := &Declaration{
		Doc:      td.Doc,
		IsStatic: td.Modifiers.Static,
		Self:     self,
		Package:  t.pkg,
	}

	switch td.Kind {
	case DeclClass, DeclRecord:
		d.Kind = KindClass
		if d.SuperTypes, err = refs(td.Extends); err != nil {
			return nil, err
		}
		if d.Interfaces, err = refs(td.Implements); err != nil {
			return nil, err
		}
	case DeclInterface:
		d.Kind = KindInterface
		if d.SuperTypes, err = refs(td.Extends); err != nil {
			return nil, err
		}
	case DeclEnum:
		d.Kind = KindEnum
		d.SuperTypes = []TypeRef{EnumSuperClass(self)}
		if d.Interfaces, err = refs(td.Implements); err != nil {
			return nil, err
		}
		d.Members = append(d.Members, enumMembers(self, td.Constants)...)
	case DeclAnnotation:
		d.Kind = KindAnnotation
	default:
		return nil, errors.AssertionFailedf("unknown declaration kind %q", td.Kind)
	}

	if td.Kind == DeclRecord {
		members, err := t.recordMembers(td)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, members...)
	}

	for _, body := range td.Members {
		if !isVisible(td, body.Mods()) {
			continue
		}
		switch m := body.(type) {
		case *FieldDecl:
			fields, err := t.fields(td, m)
			if err != nil {
				return nil, err
			}
			d.Members = append(d.Members, fields...)
		case *MethodDecl:
			member, err := t.method(m)
			if err != nil {
				return nil, err
			}
			d.Members = append(d.Members, member)
		case *ConstructorDecl:
			params, err := t.params(m.Params)
			if err != nil {
				return nil, err
			}
			d.Members = append(d.Members, Constructor{Name: m.Name, Params: params, Doc: m.Doc})
		case *TypeDecl:
			inner, err := t.process(name+"."+m.Name, m)
			if err != nil {
				return nil, err
			}
			if td.IsInterfaceLike() || m.Kind != DeclClass {
				inner.IsStatic = true
			}
			d.Members = append(d.Members, inner)
		}
	}
	return d, nil
}

// isVisible reports whether a member with the given modifiers is part of the
// public surface of its enclosing type.
func isVisible(outer *TypeDecl, mods Modifiers) bool {
	switch mods.Access {
	case AccessPublic:
		return true
	case AccessPackage:
		return outer.IsInterfaceLike()
	}
	return false
}

func enumMembers(self TypeRef, constants []EnumConstantDecl) []Member {
	members := make([]Member, 0, len(constants)+2)
	for _, c := range constants {
		members = append(members, Field{Name: c.Name, Type: self, Doc: c.Doc, IsStatic: true})
	}
	members = append(members,
		Method{
			Name:       "valueOf",
			ReturnType: self,
			Params:     []Parameter{{Name: "name", Type: String}},
			IsStatic:   true,
		},
		Method{
			Name:       "values",
			ReturnType: MakeArray(self, 1),
			IsStatic:   true,
		},
	)
	return members
}

func (t *typeExtraction) recordMembers(td *TypeDecl) ([]Member, error) {
	params, err := t.params(td.Components)
	if err != nil {
		return nil, err
	}

	var hasCanonical bool
	declared := make(map[string]bool)
	for _, body := range td.Members {
		switch m := body.(type) {
		case *ConstructorDecl:
			if len(m.Params) == len(td.Components) {
				hasCanonical = true
			}
		case *MethodDecl:
			if len(m.Params) == 0 {
				declared[m.Name] = true
			}
		}
	}

	var members []Member
	if !hasCanonical {
		members = append(members, Constructor{Name: td.Name, Params: params})
	}
	for _, p := range params {
		if declared[p.Name] {
			continue
		}
		members = append(members, Method{Name: p.Name, ReturnType: p.Type})
	}
	return members, nil
}

func (t *typeExtraction) fields(outer *TypeDecl, f *FieldDecl) ([]Member, error) {
	members := make([]Member, 0, len(f.Variables))
	for _, v := range f.Variables {
		ref, err := FromHandle(v.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", v.Name)
		}
		members = append(members, Field{
			Name:     v.Name,
			Type:     t.x.wrapNullable(ref, f.Modifiers.Annotations),
			Doc:      f.Doc,
			IsStatic: f.Modifiers.Static || outer.IsInterfaceLike(),
		})
	}
	return members, nil
}

func (t *typeExtraction) method(m *MethodDecl) (Member, error) {
	ret, err := FromHandle(m.ReturnType)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Name)
	}
	params, err := t.params(m.Params)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Name)
	}

	isVoid := Equal(ret, Void)
	isOverride := m.Modifiers.HasAnnotation("Override")
	generic := len(m.TypeParams) > 0

	switch {
	case len(m.Name) > 3 && strings.HasPrefix(m.Name, "get") && !isVoid && len(params) == 0 && !generic:
		return Getter{
			Name:       m.Name,
			Type:       t.x.wrapNullable(ret, m.Modifiers.Annotations),
			Doc:        m.Doc,
			IsStatic:   m.Modifiers.Static,
			IsOverride: isOverride,
		}, nil
	case len(m.Name) > 4 && strings.HasPrefix(m.Name, "set") && isVoid && len(params) == 1 && !generic:
		return Setter{
			Name:       m.Name,
			ParamType:  params[0].Type,
			Doc:        m.Doc,
			IsStatic:   m.Modifiers.Static,
			IsOverride: isOverride,
		}, nil
	}

	typeParams, err := refs(m.TypeParams)
	if err != nil {
		return nil, errors.Wrapf(err, "method %s", m.Name)
	}
	return Method{
		Name:       m.Name,
		ReturnType: t.x.wrapNullable(ret, m.Modifiers.Annotations),
		Params:     params,
		TypeParams: typeParams,
		Doc:        m.Doc,
		IsStatic:   m.Modifiers.Static,
		IsOverride: isOverride,
	}, nil
}

func (t *typeExtraction) params(decls []ParamDecl) ([]Parameter, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	params := make([]Parameter, 0, len(decls))
	for _, p := range decls {
		ref, err := FromHandle(p.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Name)
		}
		params = append(params, Parameter{Name: p.Name, Type: t.x.wrapNullable(ref, p.Annotations)})
	}
	return params, nil
}

func (x *Extractor) wrapNullable(ref TypeRef, annotations []string) TypeRef {
	if _, ok := ref.(Nullable); ok {
		return ref
	}
	mods := Modifiers{Annotations: annotations}
	for _, name := range x.nullable {
		if mods.HasAnnotation(name) {
			return Nullable{Inner: ref}
		}
	}
	return ref
}

func refs(handles []TypeHandle) ([]TypeRef, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	out := make([]TypeRef, 0, len(handles))
	for _, h := range handles {
		ref, err := FromHandle(h)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}
