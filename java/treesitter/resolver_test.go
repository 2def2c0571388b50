package treesitter

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/tsbind/java"
)

func resolve(t *testing.T, r *Resolver, code string) *java.CompilationUnit {
	t.Helper()
	cu, err := r.Resolve(context.Background(), java.SourceUnit{Name: "test", Code: []byte(code)})
	require.NoError(t, err)
	return cu
}

func ref(t *testing.T, h java.TypeHandle) java.TypeRef {
	t.Helper()
	r, err := java.FromHandle(h)
	require.NoError(t, err)
	return r
}

func TestResolveClassHeader(t *testing.T) {
	cu := resolve(t, New(), `
package com.example;

import java.util.List;
import java.io.Serializable;

/**
 * A box.
 */
public class Box<T> extends Base implements Serializable, Comparable<Box<T>> {
}
`)
	require.Len(t, cu.Types, 1)
	assert.Equal(t, "com.example", cu.Package)

	box := cu.Types[0]
	assert.Equal(t, "Box", box.Name)
	assert.Equal(t, "com.example.Box", box.QualifiedName)
	assert.Equal(t, java.DeclClass, box.Kind)
	assert.Equal(t, java.AccessPublic, box.Modifiers.Access)
	assert.Contains(t, box.Doc, "A box.")
	assert.True(t, len(box.Doc) > 3 && box.Doc[:3] == "/**")

	require.Len(t, box.TypeParams, 1)
	assert.Equal(t, "T", ref(t, box.TypeParams[0]).Key())

	require.Len(t, box.Extends, 1)
	assert.Equal(t, "com.example.Base", ref(t, box.Extends[0]).Key())

	require.Len(t, box.Implements, 2)
	assert.Equal(t, "java.io.Serializable", ref(t, box.Implements[0]).Key())
	assert.Equal(t, "java.lang.Comparable/1<com.example.Box/1<T>>", ref(t, box.Implements[1]).Key())
}

func TestResolveMembers(t *testing.T) {
	cu := resolve(t, New(), `
package p;

import java.util.Map;

public class Holder {
    /** The count. */
    public static final int a = 1, b[] = {};

    private String hidden;

    public Holder(int x, String... rest) {}

    public <K> Map<K, ? extends Number> lookup(K key, @Nullable String[] names) { return null; }

    int legacy()[] { return null; }
}
`)
	require.Len(t, cu.Types, 1)
	members := cu.Types[0].Members
	require.Len(t, members, 5)

	field, ok := members[0].(*java.FieldDecl)
	require.True(t, ok)
	assert.Equal(t, "/** The count. */", field.Doc)
	assert.True(t, field.Modifiers.Static)
	require.Len(t, field.Variables, 2)
	assert.Equal(t, "int", ref(t, field.Variables[0].Type).Key())
	assert.Equal(t, "b", field.Variables[1].Name)
	assert.Equal(t, "int[]", ref(t, field.Variables[1].Type).Key())

	hidden := members[1].(*java.FieldDecl)
	assert.Equal(t, java.AccessPrivate, hidden.Modifiers.Access)

	ctor, ok := members[2].(*java.ConstructorDecl)
	require.True(t, ok)
	require.Len(t, ctor.Params, 2)
	assert.Equal(t, "rest", ctor.Params[1].Name)
	assert.Equal(t, "java.lang.String[]", ref(t, ctor.Params[1].Type).Key())

	lookup, ok := members[3].(*java.MethodDecl)
	require.True(t, ok)
	assert.Equal(t, "lookup", lookup.Name)
	require.Len(t, lookup.TypeParams, 1)
	assert.Equal(t, "java.util.Map/2<K,? extends java.lang.Number>", ref(t, lookup.ReturnType).Key())
	require.Len(t, lookup.Params, 2)
	assert.Equal(t, "K", ref(t, lookup.Params[0].Type).Key())
	assert.Equal(t, []string{"Nullable"}, lookup.Params[1].Annotations)

	legacy := members[4].(*java.MethodDecl)
	assert.Equal(t, java.AccessPackage, legacy.Modifiers.Access)
	assert.Equal(t, "int[]", ref(t, legacy.ReturnType).Key())
}

func TestResolveNestedAndEnum(t *testing.T) {
	cu := resolve(t, New(), `
package p;

public interface Shape {
    Kind kind();

    /** Kinds. */
    enum Kind implements Shape.Marker {
        /** Round. */
        CIRCLE,
        SQUARE;

        public Outer.Inner helper() { return null; }
    }

    interface Marker {}
}
`)
	shape := cu.Types[0]
	assert.Equal(t, java.DeclInterface, shape.Kind)
	require.Len(t, shape.Members, 3)

	kind := shape.Members[0].(*java.MethodDecl)
	assert.Equal(t, "p.Shape.Kind", ref(t, kind.ReturnType).Key())

	enum := shape.Members[1].(*java.TypeDecl)
	assert.Equal(t, java.DeclEnum, enum.Kind)
	assert.Equal(t, "p.Shape.Kind", enum.QualifiedName)
	assert.Equal(t, "/** Kinds. */", enum.Doc)
	require.Len(t, enum.Constants, 2)
	assert.Equal(t, "CIRCLE", enum.Constants[0].Name)
	assert.Equal(t, "/** Round. */", enum.Constants[0].Doc)
	assert.Equal(t, "", enum.Constants[1].Doc)
	require.Len(t, enum.Implements, 1)
	assert.Equal(t, "p.Shape.Marker", ref(t, enum.Implements[0]).Key())

	require.Len(t, enum.Members, 1)
	helper := enum.Members[0].(*java.MethodDecl)
	assert.Equal(t, "p.Outer.Inner", ref(t, helper.ReturnType).Key())
}

func TestResolveRecordAndAnnotation(t *testing.T) {
	cu := resolve(t, New(), `
package p;

public record Pair<A, B>(A first, B second) {}

@interface Tag {
    String value();
    int[] weights() default {};
}
`)
	require.Len(t, cu.Types, 2)

	pair := cu.Types[0]
	assert.Equal(t, java.DeclRecord, pair.Kind)
	require.Len(t, pair.Components, 2)
	assert.Equal(t, "second", pair.Components[1].Name)
	assert.Equal(t, "B", ref(t, pair.Components[1].Type).Key())

	tag := cu.Types[1]
	assert.Equal(t, java.DeclAnnotation, tag.Kind)
	require.Len(t, tag.Members, 2)
	weights := tag.Members[1].(*java.MethodDecl)
	assert.Equal(t, "int[]", ref(t, weights.ReturnType).Key())
}

func TestResolveOrder(t *testing.T) {
	src := `
package p;

import a.List;
import b.*;
import c.*;

public class Use<List> {
    public List typeVar;
    public Helper fromWildcard;
    public Local samePackage;
    public Ambiguous twice;
    public String lang;
    public java.util.Date qualified;
}
`
	known := map[string]bool{"b.Helper": true, "b.Ambiguous": true, "c.Ambiguous": true, "p.Local": true}
	cu := resolve(t, New(WithKnownTypes(known)), src)
	fields := cu.Types[0].Members

	typ := func(i int) java.TypeHandle { return fields[i].(*java.FieldDecl).Variables[0].Type }
	assert.Equal(t, "List", ref(t, typ(0)).Key())
	assert.Equal(t, "b.Helper", ref(t, typ(1)).Key())
	assert.Equal(t, "p.Local", ref(t, typ(2)).Key())

	_, err := java.FromHandle(typ(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, java.ErrUnresolvedType))

	assert.Equal(t, "java.lang.String", ref(t, typ(4)).Key())
	assert.Equal(t, "java.util.Date", ref(t, typ(5)).Key())
}

func TestStrictImports(t *testing.T) {
	src := `
package p;

import q.*;

public class Use {
    public Mystery m;
}
`
	cu := resolve(t, New(WithStrictImports(true)), src)
	_, err := java.FromHandle(cu.Types[0].Members[0].(*java.FieldDecl).Variables[0].Type)
	assert.True(t, errors.Is(err, java.ErrUnresolvedType))

	cu = resolve(t, New(WithStrictImports(true), WithKnownTypes(map[string]bool{"p.Mystery": true})), src)
	assert.Equal(t, "p.Mystery", ref(t, cu.Types[0].Members[0].(*java.FieldDecl).Variables[0].Type).Key())

	cu = resolve(t, New(), src)
	assert.Equal(t, "q.Mystery", ref(t, cu.Types[0].Members[0].(*java.FieldDecl).Variables[0].Type).Key())
}

func TestResolveSingleWildcardImport(t *testing.T) {
	cu := resolve(t, New(), `
package com.ex;

import java.util.*;

public class Sink<T> {
    public List<? super T> sink;
    public Local local;
}
`)
	fields := cu.Types[0].Members
	sink := ref(t, fields[0].(*java.FieldDecl).Variables[0].Type)
	assert.Equal(t, "java.util.List<? super T>", sink.Key())

	local := ref(t, fields[1].(*java.FieldDecl).Variables[0].Type)
	assert.Equal(t, "java.util.Local", local.Key(), "an unknown name is taken from the only wildcard package")

	cu = resolve(t, New(WithKnownTypes(map[string]bool{"com.ex.Local": true})), `
package com.ex;

import java.util.*;

public class Sink {
    public Local local;
}
`)
	assert.Equal(t, "com.ex.Local", ref(t, cu.Types[0].Members[0].(*java.FieldDecl).Variables[0].Type).Key())
}

func TestResolveSeveralWildcardImports(t *testing.T) {
	cu := resolve(t, New(), `
package com.ex;

import java.util.*;
import java.io.*;

public class Sink {
    public List items;
}
`)
	_, err := java.FromHandle(cu.Types[0].Members[0].(*java.FieldDecl).Variables[0].Type)
	require.Error(t, err)
	assert.True(t, errors.Is(err, java.ErrUnresolvedType))
	assert.Contains(t, err.Error(), "java.util.*, java.io.*")

	_, err = java.NewExtractor(New()).Extract(context.Background(), java.SourceUnit{
		Name: "com.ex.Sink",
		Code: []byte("package com.ex;\nimport java.util.*;\nimport java.io.*;\npublic class Sink { public List items; }\n"),
	})
	assert.True(t, errors.Is(err, java.ErrUnresolvedType))
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		src string
		pkg string
		ok  bool
	}{
		{"package com.foo;\npublic enum Color { RED }\n", "com.foo", true},
		{"// header\npackage p;\nclass A {}\n", "p", true},
		{"public class Top {}\n", "", true},
		{"package q;\npublic class Broken {\n", "q", true},
	}
	for _, tt := range tests {
		pkg, ok := PackageName([]byte(tt.src))
		assert.Equal(t, tt.pkg, pkg, tt.src)
		assert.Equal(t, tt.ok, ok, tt.src)
	}
}

func TestResolveParseError(t *testing.T) {
	_, err := New().Resolve(context.Background(), java.SourceUnit{
		Name: "p.Broken",
		Code: []byte("package p;\n\npublic class Broken {\n    int x = ;\n}\n"),
	})
	require.Error(t, err)

	var perr *java.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "p.Broken", perr.Unit)
	require.NotEmpty(t, perr.Problems)
	assert.Equal(t, 4, perr.Problems[0].Line)
}

func TestResolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Resolve(ctx, java.SourceUnit{Name: "x", Code: []byte("class X {}")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractThroughResolver(t *testing.T) {
	x := java.NewExtractor(New())
	decl, err := x.Extract(context.Background(), java.SourceUnit{
		Name: "geo.Point",
		Code: []byte(`
package geo;

/** A point. */
public class Point {
    public int x;
    public int y;
    public int getX() { return x; }
    void hidden() {}
}
`),
	})
	require.NoError(t, err)
	require.NotNil(t, decl)
	assert.Equal(t, "geo.Point", decl.Name())
	assert.Equal(t, "geo", decl.Package)
	require.Len(t, decl.Members, 3)
	assert.IsType(t, java.Getter{}, decl.Members[2])
}
