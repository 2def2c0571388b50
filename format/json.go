package format

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dhamidi/tsbind/java"
)

// JSONModelEncoder writes a declaration tree as indented JSON.
type JSONModelEncoder struct {
	w     io.Writer
	model *java.Declaration
}

func NewJSONModelEncoder(w io.Writer) *JSONModelEncoder {
	return &JSONModelEncoder{w: w}
}

func (e *JSONModelEncoder) Encode(model *java.Declaration) error {
	e.model = model
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONModelEncoder) MarshalText() ([]byte, error) {
	if e.model == nil {
		return nil, errors.New("no declaration to encode")
	}
	b := &jsonBuilder{}
	b.VisitDeclaration(e.model)
	return json.MarshalIndent(b.member, "", "  ")
}

type jsonMember struct {
	Kind       string          `json:"kind"`
	Name       string          `json:"name"`
	Type       string          `json:"type,omitempty"`
	Doc        string          `json:"doc,omitempty"`
	Static     bool            `json:"static,omitempty"`
	Override   bool            `json:"override,omitempty"`
	TypeParams []string        `json:"typeParams,omitempty"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	SuperTypes []string        `json:"superTypes,omitempty"`
	Interfaces []string        `json:"interfaces,omitempty"`
	Members    []jsonMember    `json:"members,omitempty"`
}

type jsonParameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonBuilder struct {
	member jsonMember
}

func jsonParameters(params []java.Parameter) []jsonParameter {
	var out []jsonParameter
	for _, p := range params {
		out = append(out, jsonParameter{Name: p.Name, Type: typeString(p.Type)})
	}
	return out
}

func jsonTypes(ts []java.TypeRef) []string {
	var out []string
	for _, t := range ts {
		out = append(out, typeString(t))
	}
	return out
}

func (b *jsonBuilder) VisitField(m java.Field) {
	b.member = jsonMember{Kind: "field", Name: m.Name, Type: typeString(m.Type), Doc: m.Doc, Static: m.IsStatic}
}

func (b *jsonBuilder) VisitConstructor(m java.Constructor) {
	b.member = jsonMember{Kind: "constructor", Name: m.Name, Doc: m.Doc, Parameters: jsonParameters(m.Params)}
}

func (b *jsonBuilder) VisitMethod(m java.Method) {
	b.member = jsonMember{
		Kind:       "method",
		Name:       m.Name,
		Type:       typeString(m.ReturnType),
		Doc:        m.Doc,
		Static:     m.IsStatic,
		Override:   m.IsOverride,
		TypeParams: jsonTypes(m.TypeParams),
		Parameters: jsonParameters(m.Params),
	}
}

func (b *jsonBuilder) VisitGetter(m java.Getter) {
	b.member = jsonMember{Kind: "getter", Name: m.Name, Type: typeString(m.Type), Doc: m.Doc, Static: m.IsStatic, Override: m.IsOverride}
}

func (b *jsonBuilder) VisitSetter(m java.Setter) {
	b.member = jsonMember{Kind: "setter", Name: m.Name, Type: typeString(m.ParamType), Doc: m.Doc, Static: m.IsStatic, Override: m.IsOverride}
}

func (b *jsonBuilder) VisitDeclaration(d *java.Declaration) {
	out := jsonMember{
		Kind:       string(d.Kind),
		Name:       typeString(d.Self),
		Doc:        d.Doc,
		Static:     d.IsStatic,
		SuperTypes: jsonTypes(d.SuperTypes),
		Interfaces: jsonTypes(d.Interfaces),
	}
	for _, m := range d.Members {
		inner := &jsonBuilder{}
		m.Accept(inner)
		out.Members = append(out.Members, inner.member)
	}
	b.member = out
}
