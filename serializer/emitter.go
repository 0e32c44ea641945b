package serializer

import (
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
)

// Node is an emitter-specific piece of output: an RDF term, an XML element, and so on.
type Node interface{}

// Shape is the structural category of a composite value.
type Shape int

const (
	ShapeMap Shape = iota
	ShapeBean
	// Ordered collection.
	ShapeSeq
	// Unordered collection.
	ShapeBag
	// Linked list.
	ShapeList
)

func (shape Shape) String() string {
	switch shape {
	case ShapeMap:
		return "map"
	case ShapeBean:
		return "bean"
	case ShapeSeq:
		return "seq"
	case ShapeBag:
		return "bag"
	case ShapeList:
		return "list"
	}
	return "unknown"
}

// IsCollection reports whether the shape holds collection items.
func (shape Shape) IsCollection() bool {
	return shape == ShapeSeq || shape == ShapeBag || shape == ShapeList
}

// Composite describes a map, bean or collection being opened.
type Composite struct {
	Shape Shape
	// Identifier of a bean, taken from its bean-URI property. Empty for anonymous
	// values.
	ID string
	// Number of entries, when known in advance.
	Size int
}

// Member describes the position of a child inside its parent composite.
type Member struct {
	// Property name or map key. Empty for collection items.
	Name string
	// Namespace of the member: the property's, else the bean's, else the session
	// default. Nil for map entries and collection items.
	Namespace *classmeta.Namespace
	// Bean property the member comes from. Nil for map entries and collection items.
	Property *classmeta.BeanPropertyMeta
	// Collection position, or -1.
	Index int
	// Set when the member is one of several repeated values of a multi-valued
	// collection.
	Repeated bool
}

// Format is the property's format, or FormatNormal when the member is not a property.
func (member Member) Format() classmeta.Format {
	if member.Property == nil {
		return classmeta.FormatNormal
	}
	return member.Property.Format()
}

/*
Emitter writes one wire syntax. The Walker decides what each value is and calls the
emitter in document order:

	EmitOpenComposite -> (child nodes, EmitMember)* -> EmitCloseComposite

Leaves are produced by EmitNull, EmitScalar and EmitLeafRef. The frame passed to every
call is the session's current frame for the value.

EmitScalar receives strings for KindString and KindChar, and a value of the basic Go type
(bool, int32, float64 ...) for KindNumber and KindBoolean.

EmitMember is also called with the parent of a multi-valued collection once per
element. Errors returned by an emitter are wrapped in a spanerrors.SerializeError unless
they already are span errors.
*/
type Emitter interface {
	EmitNull(frame *Frame) (Node, error)
	EmitScalar(frame *Frame, value interface{}, kind classmeta.Kind) (Node, error)
	EmitLeafRef(frame *Frame, uri string) (Node, error)
	EmitOpenComposite(frame *Frame, composite Composite) (Node, error)
	EmitMember(parent Node, member Member, child Node) error
	EmitCloseComposite(frame *Frame, node Node) (Node, error)
}
