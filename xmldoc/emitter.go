package xmldoc

import (
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"golang.org/x/xerrors"
)

// Names of the attributes added by AddClassAttrs and AddTypeAttrs.
const (
	ClassAttr = "_class"
	TypeAttr  = "type"
)

// Emitter builds an element tree. Each node it returns is an *Element.
type Emitter struct {
	config serializer.Config
}

// NewEmitter returns an element tree emitter.
func NewEmitter(config serializer.Config) *Emitter {
	return &Emitter{config: config}
}

// ElementName is the name used for values that are not a named member: the type's
// registered element name, else a name for its kind.
func ElementName(meta *classmeta.ClassMeta) string {
	if meta == nil {
		return "null"
	}
	if meta.ElementName() != "" {
		return meta.ElementName()
	}
	switch meta.Kind() {
	case classmeta.KindNull:
		return "null"
	case classmeta.KindBoolean:
		return "boolean"
	case classmeta.KindNumber:
		return "number"
	case classmeta.KindCollection, classmeta.KindArray:
		return "array"
	case classmeta.KindMap, classmeta.KindBean, classmeta.KindObject, classmeta.KindDelegate:
		return "object"
	}
	return "string"
}

func jsonType(meta *classmeta.ClassMeta) string {
	switch meta.Kind() {
	case classmeta.KindNull:
		return "null"
	case classmeta.KindBoolean:
		return "boolean"
	case classmeta.KindNumber:
		return "number"
	case classmeta.KindCollection, classmeta.KindArray:
		return "array"
	case classmeta.KindMap, classmeta.KindBean, classmeta.KindObject, classmeta.KindDelegate:
		return "object"
	}
	return "string"
}

func (emitter *Emitter) namespace(candidates ...*classmeta.Namespace) *classmeta.Namespace {
	if !emitter.config.EnableNamespaces {
		return nil
	}
	return classmeta.FirstNamespace(candidates...)
}

func (emitter *Emitter) newElement(frame *serializer.Frame, meta *classmeta.ClassMeta) *Element {
	element := &Element{
		Name: classmeta.EncodeElementName(ElementName(meta)),
	}
	if meta != nil {
		element.Namespace = emitter.namespace(meta.Namespace(), emitter.config.DefaultNamespace)
	} else {
		element.Namespace = emitter.namespace(emitter.config.DefaultNamespace)
	}

	if emitter.config.AddTypeAttrs && meta != nil {
		element.SetAttr(nil, TypeAttr, jsonType(meta))
	}
	return element
}

func (emitter *Emitter) EmitNull(frame *serializer.Frame) (serializer.Node, error) {
	element := &Element{
		Name:      "null",
		Namespace: emitter.namespace(emitter.config.DefaultNamespace),
		Nil:       true,
	}
	if emitter.config.AddTypeAttrs {
		element.SetAttr(nil, TypeAttr, "null")
	}
	return element, nil
}

func (emitter *Emitter) EmitScalar(
	frame *serializer.Frame, value interface{}, kind classmeta.Kind,
) (serializer.Node, error) {
	element := emitter.newElement(frame, frame.Serialized)
	element.Text = serializer.FormatScalar(value)
	return element, nil
}

func (emitter *Emitter) EmitLeafRef(frame *serializer.Frame, uri string) (serializer.Node, error) {
	element := emitter.newElement(frame, frame.Serialized)
	element.Text = uri
	return element, nil
}

func (emitter *Emitter) EmitOpenComposite(
	frame *serializer.Frame, composite serializer.Composite,
) (serializer.Node, error) {
	element := emitter.newElement(frame, frame.Serialized)
	element.collection = composite.Shape.IsCollection()

	if emitter.config.AddClassAttrs && !composite.Shape.IsCollection() &&
		frame.Actual != nil && frame.Actual != frame.Expected {
		element.SetAttr(nil, ClassAttr, frame.Actual.Name())
	}

	if composite.ID != "" {
		if property := frame.Serialized.BeanURIProperty(); property != nil {
			element.SetAttr(
				emitter.namespace(property.Namespace()),
				classmeta.EncodeElementName(property.Name()),
				composite.ID,
			)
		}
	}
	return element, nil
}

func (emitter *Emitter) EmitMember(
	parentNode serializer.Node, member serializer.Member, childNode serializer.Node,
) error {
	parent, ok := parentNode.(*Element)
	if !ok {
		return xerrors.Errorf("parent node is %T, not *Element", parentNode)
	}
	child, ok := childNode.(*Element)
	if !ok {
		return xerrors.Errorf("child node is %T, not *Element", childNode)
	}

	// Collection items keep their own name.
	if member.Name == "" {
		parent.Append(child)
		return nil
	}

	name := classmeta.EncodeElementName(member.Name)
	namespace := emitter.namespace(member.Namespace)

	if member.Property == nil {
		child.Name = name
		parent.Append(child)
		return nil
	}

	if !member.Repeated {
		switch member.Format() {
		case classmeta.FormatAttribute:
			if child.Nil {
				return nil
			}
			if child.IsLeaf() && !child.collection {
				parent.SetAttr(emitter.namespace(member.Property.Namespace()), name, child.Text)
				return nil
			}

		case classmeta.FormatContent:
			if child.Nil {
				return nil
			}
			parent.Text += child.Text
			parent.Append(child.Children...)
			return nil

		case classmeta.FormatCollapsed:
			if child.collection {
				childName := classmeta.EncodeElementName(member.Property.ChildName())
				for _, item := range child.Children {
					item.Name = childName
					item.Namespace = namespace
					parent.Append(item)
				}
				return nil
			}
		}
	}

	child.Name = name
	child.Namespace = namespace
	parent.Append(child)
	return nil
}

func (emitter *Emitter) EmitCloseComposite(
	frame *serializer.Frame, node serializer.Node,
) (serializer.Node, error) {
	return node, nil
}
