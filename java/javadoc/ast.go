// Package javadoc parses Javadoc comments and flattens them into text.
package javadoc

// Node is the interface implemented by all Javadoc AST nodes.
type Node interface {
	node()
}

// Comment is a parsed Javadoc comment.
type Comment struct {
	Body []Node     // Main description
	Tags []BlockTag // @param, @return, ...
}

// Text is description text. It may contain HTML markup.
type Text struct {
	Content string
}

func (Text) node() {}

// Code represents an {@code ...} inline tag.
type Code struct {
	Content string
}

func (Code) node() {}

// Literal represents an {@literal ...} inline tag.
type Literal struct {
	Content string
}

func (Literal) node() {}

// Link represents an {@link ...} or {@linkplain ...} inline tag.
type Link struct {
	Reference string // e.g. java.util.List#add(Object)
	Label     string
	Plain     bool
}

func (Link) node() {}

// Value represents an {@value ...} inline tag.
type Value struct {
	Reference string
}

func (Value) node() {}

type InheritDoc struct{}

func (InheritDoc) node() {}

type DocRoot struct{}

func (DocRoot) node() {}

// UnknownInlineTag is any other {@name content} tag.
type UnknownInlineTag struct {
	Name    string
	Content string
}

func (UnknownInlineTag) node() {}

// BlockTag is a tag like "@param name description". Argument holds the
// parameter or exception name for tags that take one.
type BlockTag struct {
	Name     string
	Argument string
	Body     []Node
}
