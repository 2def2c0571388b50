package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhamidi/tsbind/java"
)

// LineModelEncoder writes one tab-separated line per declaration and member.
type LineModelEncoder struct {
	w     io.Writer
	model *java.Declaration
}

func NewLineModelEncoder(w io.Writer) *LineModelEncoder {
	return &LineModelEncoder{w: w}
}

func (e *LineModelEncoder) Encode(model *java.Declaration) error {
	e.model = model
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineModelEncoder) MarshalText() ([]byte, error) {
	if e.model == nil {
		return nil, errors.New("no declaration to encode")
	}
	l := &lineWriter{}
	l.VisitDeclaration(e.model)
	return []byte(l.sb.String()), nil
}

type lineWriter struct {
	sb strings.Builder
}

func (l *lineWriter) VisitField(m java.Field) {
	fmt.Fprintf(&l.sb, "field\t%s\t%s\t%s\n", m.Name, typeString(m.Type), modifiersStr(m.IsStatic, false))
}

func (l *lineWriter) VisitConstructor(m java.Constructor) {
	fmt.Fprintf(&l.sb, "constructor\t%s\t%s\n", m.Name, parametersStr(m.Params))
}

func (l *lineWriter) VisitMethod(m java.Method) {
	name := m.Name
	if len(m.TypeParams) > 0 {
		name = "<" + typeListString(m.TypeParams) + ">" + name
	}
	fmt.Fprintf(&l.sb, "method\t%s\t%s\t%s\t%s\n", name, typeString(m.ReturnType), parametersStr(m.Params), modifiersStr(m.IsStatic, m.IsOverride))
}

func (l *lineWriter) VisitGetter(m java.Getter) {
	fmt.Fprintf(&l.sb, "getter\t%s\t%s\t%s\n", m.Name, typeString(m.Type), modifiersStr(m.IsStatic, m.IsOverride))
}

func (l *lineWriter) VisitSetter(m java.Setter) {
	fmt.Fprintf(&l.sb, "setter\t%s\t%s\t%s\n", m.Name, typeString(m.ParamType), modifiersStr(m.IsStatic, m.IsOverride))
}

func (l *lineWriter) VisitDeclaration(d *java.Declaration) {
	fmt.Fprintf(&l.sb, "%s\t%s\t%s\t%s\t%s\n",
		d.Kind,
		typeString(d.Self),
		orDash(typeListString(d.SuperTypes)),
		orDash(typeListString(d.Interfaces)),
		modifiersStr(d.IsStatic, false),
	)
	for _, m := range d.Members {
		m.Accept(l)
	}
}

func modifiersStr(isStatic, isOverride bool) string {
	var mods []string
	if isStatic {
		mods = append(mods, "static")
	}
	if isOverride {
		mods = append(mods, "override")
	}
	if len(mods) == 0 {
		return "-"
	}
	return strings.Join(mods, ",")
}

func parametersStr(params []java.Parameter) string {
	if len(params) == 0 {
		return "-"
	}
	var parts []string
	for _, p := range params {
		parts = append(parts, typeString(p.Type)+" "+p.Name)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// typeString renders a type reference in Java syntax.
func typeString(t java.TypeRef) string {
	j := &javaTypeWriter{}
	t.Accept(j)
	return j.sb.String()
}

func typeListString(ts []java.TypeRef) string {
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, typeString(t))
	}
	return strings.Join(parts, ",")
}

type javaTypeWriter struct {
	sb strings.Builder
}

func (j *javaTypeWriter) VisitSimple(t java.Simple) {
	j.sb.WriteString(t.QualifiedName)
}

func (j *javaTypeWriter) VisitParametrized(t java.Parametrized) {
	t.Base.Accept(j)
	j.sb.WriteString("<" + typeListString(t.Args) + ">")
}

func (j *javaTypeWriter) VisitWildcard(t java.Wildcard) {
	j.sb.WriteString("?")
	if t.Bound != nil {
		j.sb.WriteString(" " + string(t.Kind) + " ")
		t.Bound.Accept(j)
	}
}

func (j *javaTypeWriter) VisitArray(t java.Array) {
	t.Element.Accept(j)
	j.sb.WriteString(strings.Repeat("[]", t.Dimensions))
}

func (j *javaTypeWriter) VisitNullable(t java.Nullable) {
	j.sb.WriteString("@Nullable ")
	t.Inner.Accept(j)
}
