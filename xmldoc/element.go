package xmldoc

import (
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
)

// Attr is an attribute of an Element.
type Attr struct {
	Namespace *classmeta.Namespace
	Name      string
	Value     string
}

// Element is a node of the generic element tree.
type Element struct {
	Namespace *classmeta.Namespace
	Name      string
	Attrs     []Attr
	// Character data, written before Children.
	Text     string
	Children []*Element
	// Nil elements are written with xsi:nil="true".
	Nil bool

	// Set for elements built from collections. Their children are the items.
	collection bool
}

// NewElement returns an element with the given name.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Attr returns the value of the first attribute named name.
func (element *Element) Attr(name string) (string, bool) {
	for _, attr := range element.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttr adds an attribute, replacing an existing attribute of the same name and
// namespace.
func (element *Element) SetAttr(namespace *classmeta.Namespace, name string, value string) {
	for index, attr := range element.Attrs {
		if attr.Name == name && attr.Namespace.Same(namespace) {
			element.Attrs[index].Value = value
			return
		}
	}
	element.Attrs = append(element.Attrs, Attr{Namespace: namespace, Name: name, Value: value})
}

// Append adds children.
func (element *Element) Append(children ...*Element) {
	element.Children = append(element.Children, children...)
}

// Child returns the first child named name.
func (element *Element) Child(name string) *Element {
	for _, child := range element.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// IsLeaf reports whether the element carries no child elements.
func (element *Element) IsLeaf() bool {
	return len(element.Children) == 0
}

// Walk calls visit for the element and all its descendants, depth first.
func (element *Element) Walk(visit func(element *Element)) {
	visit(element)
	for _, child := range element.Children {
		child.Walk(visit)
	}
}
