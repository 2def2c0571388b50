package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/javadoc"
)

func pointDecl() *java.Declaration {
	return &java.Declaration{
		Doc:  "/** A point. */",
		Self: java.Simple{QualifiedName: "geo.Point"},
		Kind: java.KindClass,
		Members: []java.Member{
			java.Field{Name: "x", Type: java.Int},
			java.Field{Name: "y", Type: java.Int},
			java.Getter{Name: "getX", Type: java.Int},
		},
		Package: "geo",
	}
}

func TestRenderPoint(t *testing.T) {
	names := java.NewNames()
	names.Set(java.Simple{QualifiedName: "geo.Point"}, "Point")

	var buf bytes.Buffer
	enc := NewTypeScriptEncoder(&buf, WithIndent("  "), WithNames(names))
	if err := enc.Encode(pointDecl()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `/**
 * A point.
 */
export class Point {
  x: number;
  y: number;
  get x(): number;
}
`
	if got := buf.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	decl := pointDecl()
	first := NewEmitter("\t", nil, nil)
	first.Render(decl)
	second := NewEmitter("\t", nil, nil)
	second.Render(decl)
	if first.String() != second.String() {
		t.Errorf("renders differ:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestRenderEnum(t *testing.T) {
	self := java.Simple{QualifiedName: "a.Color"}
	decl := &java.Declaration{
		Self:       self,
		Kind:       java.KindEnum,
		SuperTypes: []java.TypeRef{java.EnumSuperClass(self)},
		Members: []java.Member{
			java.Field{Name: "RED", Type: self, Doc: "Red.", IsStatic: true},
			java.Method{Name: "valueOf", ReturnType: self, Params: []java.Parameter{{Name: "name", Type: java.String}}, IsStatic: true},
			java.Method{Name: "values", ReturnType: java.MakeArray(self, 1), IsStatic: true},
		},
	}
	names := java.NewNames()
	names.Set(self, "Color")

	e := NewEmitter("  ", names, nil)
	e.Render(decl)

	want := `export class Color extends java_lang_Enum<Color> {
  /**
   * Red.
   */
  static RED: Color;
  static valueOf(name: string): Color;
  static values(): Color[];
}
`
	if got := e.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderInterfaceWithCompanionNamespace(t *testing.T) {
	store := java.Simple{QualifiedName: "a.Store", Arity: 1}
	decl := &java.Declaration{
		Self:       java.Parametrized{Base: store, Args: []java.TypeRef{java.Simple{QualifiedName: "T"}}},
		Kind:       java.KindInterface,
		SuperTypes: []java.TypeRef{java.Simple{QualifiedName: "a.Base"}},
		Members: []java.Member{
			java.Method{Name: "get", ReturnType: java.Simple{QualifiedName: "T"}, Params: []java.Parameter{{Name: "key", Type: java.String}}},
			java.Field{Name: "EMPTY", Type: store, IsStatic: true},
			java.Method{
				Name:       "of",
				TypeParams: []java.TypeRef{java.Simple{QualifiedName: "U"}},
				Params:     []java.Parameter{{Name: "in", Type: java.Simple{QualifiedName: "U"}}},
				ReturnType: java.Parametrized{Base: store, Args: []java.TypeRef{java.Simple{QualifiedName: "U"}}},
				IsStatic:   true,
			},
			java.Setter{Name: "setName", ParamType: java.String},
			&java.Declaration{Self: java.Simple{QualifiedName: "a.Store.Entry"}, Kind: java.KindClass, IsStatic: true},
		},
	}
	names := java.NewNames()
	names.Set(store, "Store")

	e := NewEmitter("  ", names, nil)
	e.Render(decl)

	want := `export interface Store<T> extends a_Base {
  get(key: string): T;
  set name(value: string);
}
export namespace Store {
  const EMPTY: Store<any>;
  function of<U>(in_: U): Store<U>;
  export class Entry {
  }
}
`
	if got := e.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderClassHeritageAndConstructor(t *testing.T) {
	decl := &java.Declaration{
		Self:       java.Simple{QualifiedName: "a.Impl"},
		Kind:       java.KindClass,
		SuperTypes: []java.TypeRef{java.Simple{QualifiedName: "a.Base"}},
		Interfaces: []java.TypeRef{java.Simple{QualifiedName: "a.One"}, java.Simple{QualifiedName: "a.Two"}},
		Members: []java.Member{
			java.Constructor{Name: "Impl", Params: []java.Parameter{{Name: "a", Type: java.Int}, {Name: "b", Type: java.MakeArray(java.String, 1)}}},
			java.Method{Name: "toString", ReturnType: java.String, IsOverride: true},
			java.Getter{Name: "getInstance", Type: java.Simple{QualifiedName: "a.Impl"}, IsStatic: true},
		},
	}

	e := NewEmitter("    ", nil, nil)
	e.Render(decl)

	want := `export class Impl extends a_Base implements a_One, a_Two {
    constructor(a: number, b: string[]);
    /**
     * @override
     */
    toString(): string;
    static get instance(): a_Impl;
}
`
	if got := e.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTypeRendering(t *testing.T) {
	names := java.NewNames()
	names.Set(java.Simple{QualifiedName: "java.util.Map", Arity: 2}, "Map")

	tests := []struct {
		ref  java.TypeRef
		want string
	}{
		{java.Int, "number"},
		{java.Char, "string"},
		{java.Void, "void"},
		{java.Object, "any"},
		{java.Simple{QualifiedName: "T"}, "T"},
		{java.Simple{QualifiedName: "java.util.List", Arity: 1}, "java_util_List<any>"},
		{java.Simple{QualifiedName: "java.util.Map", Arity: 2}, "Map<any, any>"},
		{java.Parametrized{Base: java.Simple{QualifiedName: "java.util.Map", Arity: 2}, Args: []java.TypeRef{java.String, java.MakeArray(java.Int, 2)}}, "Map<string, number[][]>"},
		{java.Wildcard{Kind: java.BoundUpper}, "any"},
		{java.Wildcard{Kind: java.BoundLower, Bound: java.Simple{QualifiedName: "a.B"}}, "a_B"},
		{java.Nullable{Inner: java.Simple{QualifiedName: "java.lang.Integer"}}, "number | null"},
		{java.MakeArray(java.Nullable{Inner: java.String}, 1), "(string | null)[]"},
	}

	for _, tt := range tests {
		e := NewEmitter("  ", names, nil)
		e.Type(tt.ref)
		if got := e.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.ref.Key(), got, tt.want)
		}
	}
}

func TestRenameTableWinsForWholeReference(t *testing.T) {
	list := java.Parametrized{Base: java.Simple{QualifiedName: "java.util.List", Arity: 1}, Args: []java.TypeRef{java.String}}
	names := java.NewNames()
	names.Set(list, "Strings")

	e := NewEmitter("  ", names, nil)
	e.Printf("%s / %s", list, java.MakeArray(list, 1))
	if got := e.String(); got != "Strings / Strings[]" {
		t.Errorf("unexpected %q", got)
	}
}

func TestDocEscapesCommentTerminator(t *testing.T) {
	e := NewEmitter("  ", nil, nil)
	e.Block(func() {
		e.Render(java.Field{Name: "x", Type: java.Int, Doc: "Closes */ early.\n\n   Indented line."})
	})

	want := `  /**
   * Closes *\/ early.
   * Indented line.
   */
  x: number;
`
	if got := e.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
	if strings.Count(e.String(), "*/") != 1 {
		t.Errorf("expected exactly one comment terminator")
	}
}

func TestDocKeepsIndentationInsideFences(t *testing.T) {
	sample := javadoc.FilterFunc(func(string) string {
		return "  Example:\n```java\nif (ready) {\n    start();\n\n}\n```\n  Done."
	})
	e := NewEmitter("  ", nil, sample)
	e.Render(java.Field{Name: "x", Type: java.Int, Doc: "/** ignored */"})

	want := `/**
 * Example:
 * ` + "```java" + `
 * if (ready) {
 *     start();
 *
 * }
 * ` + "```" + `
 * Done.
 */
x: number;
`
	if got := e.String(); got != want {
		t.Errorf("unexpected output\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmptyDocIsOmitted(t *testing.T) {
	e := NewEmitter("  ", nil, nil)
	e.Render(java.Method{Name: "values", ReturnType: java.MakeArray(java.Int, 1), IsStatic: true, Doc: ""})
	if got := e.String(); got != "static values(): number[];\n" {
		t.Errorf("unexpected %q", got)
	}
}

func TestBlockRestoresDepthOnPanic(t *testing.T) {
	e := NewEmitter("  ", nil, nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic")
			}
		}()
		e.Block(func() {
			e.Block(func() {
				e.Render(nil)
			})
		})
	}()

	if e.Depth() != 0 {
		t.Fatalf("expected depth 0 after panic, got %d", e.Depth())
	}
	e.Println("done")
	if got := e.String(); got != "done\n" {
		t.Errorf("expected unindented line, got %q", got)
	}
}

func TestPrintfTemplate(t *testing.T) {
	e := NewEmitter("  ", nil, nil)
	e.Block(func() {
		e.Println("%s: %s; // 100%%", "count", java.Long)
	})
	e.Print("end")
	if got := e.String(); got != "  count: number; // 100%\nend" {
		t.Errorf("unexpected %q", got)
	}
}
