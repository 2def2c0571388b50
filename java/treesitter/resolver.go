// Package treesitter resolves Java source units with tree-sitter-java.
package treesitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tliron/commonlog"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/dhamidi/tsbind/java"
)

var log = commonlog.GetLogger("tsbind.treesitter")

// maxProblems caps the syntax problems reported for one unit.
const maxProblems = 20

// Resolver implements java.Resolver on top of tree-sitter. It is safe for
// concurrent use: every call creates its own parser.
type Resolver struct {
	language *sitter.Language
	known    map[string]bool
	strict   bool
}

type Option func(*Resolver)

// WithKnownTypes supplies qualified names of types that exist elsewhere in
// the batch. They disambiguate wildcard imports and same-package references.
func WithKnownTypes(known map[string]bool) Option {
	return func(r *Resolver) { r.known = known }
}

// WithStrictImports makes simple names that no import or known type claims
// unresolvable when the unit has wildcard imports. Without it such a name
// is taken from the wildcard package when there is exactly one.
func WithStrictImports(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

func New(opts ...Option) *Resolver {
	r := &Resolver{language: sitter.NewLanguage(tsjava.Language())}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, unit java.SourceUnit) (*java.CompilationUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(r.language); err != nil {
		return nil, errors.Wrap(err, "load java grammar")
	}

	name := unit.Name
	if name == "" {
		name = unit.Path
	}

	tree := parser.Parse(unit.Code, nil)
	if tree == nil {
		return nil, &java.ParseError{Unit: name, Problems: []java.Problem{{Line: 1, Column: 1, Message: "parser produced no tree"}}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &java.ParseError{Unit: name, Problems: collectProblems(root, unit.Code)}
	}

	f := &file{
		src:      unit.Code,
		resolver: r,
		imports:  map[string]string{},
		declared: map[string]declared{},
	}
	f.header(root)
	for i := uint(0); i < root.NamedChildCount(); i++ {
		f.register(root.NamedChild(i), "", "")
	}

	cu := &java.CompilationUnit{Package: f.pkg}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if !isTypeDeclaration(n.Kind()) {
			continue
		}
		cu.Types = append(cu.Types, f.typeDecl(n, f.qualify(f.name(n)), nil))
	}
	log.Debugf("resolved %s: package %q, %d top-level types", name, cu.Package, len(cu.Types))
	return cu, nil
}

// PackageName returns the package declared by a Java source. A source
// without a package declaration is in the default package and yields "".
// ok is false when the package cannot be determined because the source does
// not parse far enough.
func PackageName(code []byte) (pkg string, ok bool) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(tsjava.Language())); err != nil {
		return "", false
	}
	tree := parser.Parse(code, nil)
	if tree == nil {
		return "", false
	}
	defer tree.Close()

	root := tree.RootNode()
	f := &file{src: code}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if n.Kind() != "package_declaration" {
			continue
		}
		for j := uint(0); j < n.NamedChildCount(); j++ {
			c := n.NamedChild(j)
			if c.Kind() == "identifier" || c.Kind() == "scoped_identifier" {
				return f.text(c), true
			}
		}
		return "", false
	}
	return "", !root.HasError()
}

func collectProblems(root *sitter.Node, src []byte) []java.Problem {
	var problems []java.Problem
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if len(problems) >= maxProblems {
			return
		}
		pos := n.StartPosition()
		switch {
		case n.IsMissing():
			problems = append(problems, java.Problem{
				Line:    int(pos.Row) + 1,
				Column:  int(pos.Column) + 1,
				Message: "missing " + n.Kind(),
			})
			return
		case n.IsError():
			problems = append(problems, java.Problem{
				Line:    int(pos.Row) + 1,
				Column:  int(pos.Column) + 1,
				Message: fmt.Sprintf("unexpected %q", excerpt(n.Utf8Text(src))),
			})
			return
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if len(problems) == 0 {
		problems = append(problems, java.Problem{Line: 1, Column: 1, Message: "syntax error"})
	}
	return problems
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 40 {
		return text[:40] + "..."
	}
	return text
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"annotation_type_declaration", "record_declaration":
		return true
	}
	return false
}

type declared struct {
	qualified string
	arity     int
}

// file holds the per-unit state of one resolution. It never outlives the
// tree it was built from.
type file struct {
	src       []byte
	resolver  *Resolver
	pkg       string
	imports   map[string]string
	wildcards []string
	declared  map[string]declared
}

func (f *file) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(f.src)
}

func (f *file) name(n *sitter.Node) string {
	return f.text(n.ChildByFieldName("name"))
}

func (f *file) qualify(name string) string {
	if f.pkg == "" {
		return name
	}
	return f.pkg + "." + name
}

func (f *file) header(root *sitter.Node) {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		switch n.Kind() {
		case "package_declaration":
			for j := uint(0); j < n.NamedChildCount(); j++ {
				c := n.NamedChild(j)
				if c.Kind() == "identifier" || c.Kind() == "scoped_identifier" {
					f.pkg = f.text(c)
				}
			}
		case "import_declaration":
			f.importDecl(n)
		}
	}
}

func (f *file) importDecl(n *sitter.Node) {
	var path string
	static, wildcard := false, false
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		switch c.Kind() {
		case "static":
			static = true
		case "asterisk":
			wildcard = true
		case "identifier", "scoped_identifier":
			path = f.text(c)
		}
	}
	switch {
	case static || path == "":
	case wildcard:
		f.wildcards = append(f.wildcards, path)
	default:
		f.imports[path[strings.LastIndex(path, ".")+1:]] = path
	}
}

// register records every type declared in the unit under its local dotted
// path and, if not already taken, its simple name.
func (f *file) register(n *sitter.Node, localPrefix, qualifiedPrefix string) {
	if !isTypeDeclaration(n.Kind()) {
		return
	}
	name := f.name(n)
	local, qualified := name, f.qualify(name)
	if localPrefix != "" {
		local = localPrefix + "." + name
		qualified = qualifiedPrefix + "." + name
	}
	d := declared{qualified: qualified, arity: len(f.typeParameterNames(n))}
	f.declared[local] = d
	if _, taken := f.declared[name]; !taken {
		f.declared[name] = d
	}
	for _, m := range f.bodyMembers(n) {
		f.register(m, local, qualified)
	}
}

// bodyMembers returns the named children of a declaration body, descending
// into enum_body_declarations.
func (f *file) bodyMembers(n *sitter.Node) []*sitter.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var members []*sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		c := body.NamedChild(i)
		if c.Kind() == "enum_body_declarations" {
			for j := uint(0); j < c.NamedChildCount(); j++ {
				members = append(members, c.NamedChild(j))
			}
			continue
		}
		members = append(members, c)
	}
	return members
}

func (f *file) typeParameterNames(n *sitter.Node) []string {
	tps := n.ChildByFieldName("type_parameters")
	if tps == nil {
		return nil
	}
	var names []string
	for i := uint(0); i < tps.NamedChildCount(); i++ {
		tp := tps.NamedChild(i)
		if tp.Kind() != "type_parameter" {
			continue
		}
		for j := uint(0); j < tp.NamedChildCount(); j++ {
			if c := tp.NamedChild(j); c.Kind() == "type_identifier" || c.Kind() == "identifier" {
				names = append(names, f.text(c))
				break
			}
		}
	}
	return names
}

// scope is a chain of type variables visible at a point in the unit.
type scope struct {
	vars   map[string]bool
	parent *scope
}

func (s *scope) with(names []string) *scope {
	if len(names) == 0 {
		return s
	}
	vars := make(map[string]bool, len(names))
	for _, n := range names {
		vars[n] = true
	}
	return &scope{vars: vars, parent: s}
}

func (s *scope) has(name string) bool {
	for ; s != nil; s = s.parent {
		if s.vars[name] {
			return true
		}
	}
	return false
}

func variables(names []string) []java.TypeHandle {
	handles := make([]java.TypeHandle, 0, len(names))
	for _, n := range names {
		handles = append(handles, java.TypeDescription{Kind: java.TypeKindVariable, Name: n})
	}
	return handles
}

func (f *file) typeDecl(n *sitter.Node, qualified string, outer *scope) *java.TypeDecl {
	tparams := f.typeParameterNames(n)
	sc := outer.with(tparams)
	td := &java.TypeDecl{
		Name:          f.name(n),
		QualifiedName: qualified,
		Modifiers:     f.modifiers(n),
		Doc:           f.doc(n),
		TypeParams:    variables(tparams),
	}

	switch n.Kind() {
	case "class_declaration":
		td.Kind = java.DeclClass
		if sup := n.ChildByFieldName("superclass"); sup != nil {
			td.Extends = f.typeList(sup, sc)
		}
		td.Implements = f.superInterfaces(n, sc)
	case "interface_declaration":
		td.Kind = java.DeclInterface
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if c := n.NamedChild(i); c.Kind() == "extends_interfaces" {
				td.Extends = f.typeList(c, sc)
			}
		}
	case "enum_declaration":
		td.Kind = java.DeclEnum
		td.Implements = f.superInterfaces(n, sc)
		if body := n.ChildByFieldName("body"); body != nil {
			for i := uint(0); i < body.NamedChildCount(); i++ {
				if c := body.NamedChild(i); c.Kind() == "enum_constant" {
					td.Constants = append(td.Constants, java.EnumConstantDecl{Name: f.name(c), Doc: f.doc(c)})
				}
			}
		}
	case "annotation_type_declaration":
		td.Kind = java.DeclAnnotation
	case "record_declaration":
		td.Kind = java.DeclRecord
		td.Implements = f.superInterfaces(n, sc)
		td.Components = f.params(n.ChildByFieldName("parameters"), sc)
	}

	for _, m := range f.bodyMembers(n) {
		if d := f.bodyDecl(m, qualified, sc); d != nil {
			td.Members = append(td.Members, d)
		}
	}
	return td
}

func (f *file) superInterfaces(n *sitter.Node, sc *scope) []java.TypeHandle {
	si := n.ChildByFieldName("interfaces")
	if si == nil {
		return nil
	}
	for i := uint(0); i < si.NamedChildCount(); i++ {
		if c := si.NamedChild(i); c.Kind() == "type_list" {
			return f.typeList(c, sc)
		}
	}
	return nil
}

// typeList collects the types under n, looking through a type_list child.
func (f *file) typeList(n *sitter.Node, sc *scope) []java.TypeHandle {
	var handles []java.TypeHandle
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c.Kind() == "type_list" {
			handles = append(handles, f.typeList(c, sc)...)
			continue
		}
		handles = append(handles, f.typeHandle(c, sc))
	}
	return handles
}

func (f *file) bodyDecl(n *sitter.Node, outer string, sc *scope) java.BodyDecl {
	switch n.Kind() {
	case "field_declaration", "constant_declaration":
		fd := &java.FieldDecl{Modifiers: f.modifiers(n), Doc: f.doc(n)}
		base := f.typeHandle(n.ChildByFieldName("type"), sc)
		for i := uint(0); i < n.NamedChildCount(); i++ {
			v := n.NamedChild(i)
			if v.Kind() != "variable_declarator" {
				continue
			}
			fd.Variables = append(fd.Variables, java.VariableDecl{
				Name: f.name(v),
				Type: withDimensions(base, f.dimensions(v.ChildByFieldName("dimensions"))),
			})
		}
		return fd
	case "method_declaration":
		tparams := f.typeParameterNames(n)
		msc := sc.with(tparams)
		ret := f.typeHandle(n.ChildByFieldName("type"), msc)
		return &java.MethodDecl{
			Modifiers:  f.modifiers(n),
			Doc:        f.doc(n),
			Name:       f.name(n),
			ReturnType: withDimensions(ret, f.dimensions(n.ChildByFieldName("dimensions"))),
			Params:     f.params(n.ChildByFieldName("parameters"), msc),
			TypeParams: variables(tparams),
		}
	case "annotation_type_element_declaration":
		ret := f.typeHandle(n.ChildByFieldName("type"), sc)
		return &java.MethodDecl{
			Modifiers:  f.modifiers(n),
			Doc:        f.doc(n),
			Name:       f.name(n),
			ReturnType: withDimensions(ret, f.dimensions(n.ChildByFieldName("dimensions"))),
		}
	case "constructor_declaration":
		msc := sc.with(f.typeParameterNames(n))
		return &java.ConstructorDecl{
			Modifiers: f.modifiers(n),
			Doc:       f.doc(n),
			Name:      f.name(n),
			Params:    f.params(n.ChildByFieldName("parameters"), msc),
		}
	}
	if isTypeDeclaration(n.Kind()) {
		return f.typeDecl(n, outer+"."+f.name(n), sc)
	}
	return nil
}

func (f *file) params(n *sitter.Node, sc *scope) []java.ParamDecl {
	if n == nil {
		return nil
	}
	var params []java.ParamDecl
	for i := uint(0); i < n.NamedChildCount(); i++ {
		p := n.NamedChild(i)
		switch p.Kind() {
		case "formal_parameter":
			t := f.typeHandle(p.ChildByFieldName("type"), sc)
			params = append(params, java.ParamDecl{
				Name:        f.name(p),
				Type:        withDimensions(t, f.dimensions(p.ChildByFieldName("dimensions"))),
				Annotations: f.modifiers(p).Annotations,
			})
		case "spread_parameter":
			var param java.ParamDecl
			for j := uint(0); j < p.NamedChildCount(); j++ {
				c := p.NamedChild(j)
				switch c.Kind() {
				case "modifiers":
					param.Annotations = f.modifiers(p).Annotations
				case "variable_declarator":
					param.Name = f.name(c)
				default:
					if param.Type == nil {
						param.Type = withDimensions(f.typeHandle(c, sc), 1)
					}
				}
			}
			params = append(params, param)
		}
	}
	return params
}

func (f *file) dimensions(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return strings.Count(f.text(n), "[")
}

func withDimensions(h java.TypeHandle, dims int) java.TypeHandle {
	if dims == 0 {
		return h
	}
	desc, err := h.Describe()
	if err != nil {
		return h
	}
	if desc.Kind == java.TypeKindArray {
		desc.Dimensions += dims
		return desc
	}
	return java.TypeDescription{Kind: java.TypeKindArray, Element: h, Dimensions: dims}
}

func (f *file) modifiers(n *sitter.Node) java.Modifiers {
	mods := java.Modifiers{Access: java.AccessPackage}
	var node *sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c.Kind() == "modifiers" {
			node = c
			break
		}
	}
	if node == nil {
		return mods
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		switch c.Kind() {
		case "public":
			mods.Access = java.AccessPublic
		case "protected":
			mods.Access = java.AccessProtected
		case "private":
			mods.Access = java.AccessPrivate
		case "static":
			mods.Static = true
		case "marker_annotation", "annotation":
			mods.Annotations = append(mods.Annotations, f.text(c.ChildByFieldName("name")))
		}
	}
	return mods
}

// doc returns the raw /** */ comment immediately preceding n, if any.
func (f *file) doc(n *sitter.Node) string {
	prev := n.PrevSibling()
	for prev != nil && prev.Kind() == "line_comment" {
		prev = prev.PrevSibling()
	}
	if prev == nil || prev.Kind() != "block_comment" {
		return ""
	}
	text := f.text(prev)
	if !strings.HasPrefix(text, "/**") || text == "/**/" {
		return ""
	}
	return text
}

var primitiveKinds = map[string]bool{
	"integral_type":       true,
	"floating_point_type": true,
	"boolean_type":        true,
}

func (f *file) typeHandle(n *sitter.Node, sc *scope) java.TypeHandle {
	if n == nil {
		return java.UnresolvedHandle("", "missing type")
	}
	kind := n.Kind()
	switch {
	case kind == "void_type":
		return java.TypeDescription{Kind: java.TypeKindVoid, Name: "void"}
	case primitiveKinds[kind]:
		return java.TypeDescription{Kind: java.TypeKindPrimitive, Name: f.text(n)}
	}

	switch kind {
	case "type_identifier":
		return f.resolveSimple(f.text(n), sc)
	case "scoped_type_identifier":
		return f.resolveDotted(f.scopedName(n), sc)
	case "generic_type":
		var base java.TypeHandle
		var args []java.TypeHandle
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c.Kind() == "type_arguments" {
				args = f.typeList(c, sc)
			} else if base == nil {
				base = f.typeHandle(c, sc)
			}
		}
		if base == nil {
			return java.UnresolvedHandle(f.text(n), "generic type without base")
		}
		desc, err := base.Describe()
		if err != nil {
			return base
		}
		desc.Args = args
		return desc
	case "array_type":
		elem := f.typeHandle(n.ChildByFieldName("element"), sc)
		return withDimensions(elem, f.dimensions(n.ChildByFieldName("dimensions")))
	case "annotated_type":
		for i := n.NamedChildCount(); i > 0; i-- {
			c := n.NamedChild(i - 1)
			if c.Kind() != "marker_annotation" && c.Kind() != "annotation" {
				return f.typeHandle(c, sc)
			}
		}
	case "wildcard":
		desc := java.TypeDescription{Kind: java.TypeKindWildcard, BoundKind: java.BoundUpper}
		for i := uint(0); i < n.ChildCount(); i++ {
			c := n.Child(i)
			switch c.Kind() {
			case "super":
				desc.BoundKind = java.BoundLower
			case "extends", "?", "marker_annotation", "annotation":
			default:
				if c.IsNamed() {
					desc.Bound = f.typeHandle(c, sc)
				}
			}
		}
		return desc
	}
	return java.UnresolvedHandle(f.text(n), "unsupported type syntax "+kind)
}

// scopedName flattens a scoped_type_identifier to a dotted name, dropping
// type arguments of the qualifying parts.
func (f *file) scopedName(n *sitter.Node) string {
	var parts []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		switch c.Kind() {
		case "type_identifier":
			parts = append(parts, f.text(c))
		case "scoped_type_identifier":
			parts = append(parts, f.scopedName(c))
		case "generic_type":
			if c.NamedChildCount() > 0 {
				base := c.NamedChild(0)
				if base.Kind() == "scoped_type_identifier" {
					parts = append(parts, f.scopedName(base))
				} else {
					parts = append(parts, f.text(base))
				}
			}
		}
	}
	return strings.Join(parts, ".")
}

func reference(d declared) java.TypeDescription {
	return java.TypeDescription{Kind: java.TypeKindReference, Name: d.qualified, Arity: d.arity}
}

func (f *file) resolveSimple(name string, sc *scope) java.TypeHandle {
	if sc.has(name) {
		return java.TypeDescription{Kind: java.TypeKindVariable, Name: name}
	}
	switch name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double":
		return java.TypeDescription{Kind: java.TypeKindPrimitive, Name: name}
	}
	if d, ok := f.declared[name]; ok {
		return reference(d)
	}
	if q, ok := f.imports[name]; ok {
		return reference(declared{qualified: q})
	}
	if javaLangTypes[name] {
		return reference(declared{qualified: "java.lang." + name})
	}

	known := f.resolver.known
	var candidates []string
	for _, pkg := range f.wildcards {
		if known[pkg+"."+name] {
			candidates = append(candidates, pkg+"."+name)
		}
	}
	switch len(candidates) {
	case 0:
	case 1:
		return reference(declared{qualified: candidates[0]})
	default:
		return java.UnresolvedHandle(name, "ambiguous between "+strings.Join(candidates, ", "))
	}

	samePackage := f.qualify(name)
	if known[samePackage] {
		return reference(declared{qualified: samePackage})
	}
	switch {
	case len(f.wildcards) == 0:
		return reference(declared{qualified: samePackage})
	case f.resolver.strict:
		return java.UnresolvedHandle(name, "not declared, imported or known")
	case len(f.wildcards) == 1:
		log.Debugf("%s: assuming %s comes from %s.*", f.pkg, name, f.wildcards[0])
		return reference(declared{qualified: f.wildcards[0] + "." + name})
	}
	return java.UnresolvedHandle(name, "may come from any of "+strings.Join(f.wildcards, ".*, ")+".*")
}

func (f *file) resolveDotted(name string, sc *scope) java.TypeHandle {
	if d, ok := f.declared[name]; ok {
		return reference(d)
	}
	first, rest, _ := strings.Cut(name, ".")
	if first == "" || strings.ToLower(first[:1]) == first[:1] {
		return reference(declared{qualified: name})
	}
	head := f.resolveSimple(first, sc)
	desc, err := head.Describe()
	if err != nil {
		return head
	}
	if desc.Kind != java.TypeKindReference {
		return java.UnresolvedHandle(name, "cannot select a member type of "+first)
	}
	return reference(declared{qualified: desc.Name + "." + rest})
}

var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "Class": true, "System": true,
	"Throwable": true, "Exception": true, "RuntimeException": true, "Error": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true,
	"Float": true, "Double": true, "Character": true, "Boolean": true,
	"Number": true, "Comparable": true, "CharSequence": true,
	"Iterable": true, "Cloneable": true, "Runnable": true, "AutoCloseable": true,
	"Thread": true, "StringBuilder": true, "StringBuffer": true,
	"Math": true, "Enum": true, "Record": true, "Void": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"NullPointerException": true, "UnsupportedOperationException": true,
	"IndexOutOfBoundsException": true, "InterruptedException": true,
	"Override": true, "Deprecated": true, "SuppressWarnings": true, "FunctionalInterface": true,
}
