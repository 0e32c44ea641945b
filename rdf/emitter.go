package rdf

import (
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"golang.org/x/xerrors"
)

// resource is the node of an open map, bean or collection.
type resource struct {
	subject Term
	shape   serializer.Shape
	count   int
	// Items of a linked list, chained when the list is closed.
	listItems []Term
}

// Emitter adds statements to a Model. Leaves are returned as Term values, composites
// as resources that resolve to their subject.
type Emitter struct {
	config serializer.Config
	model  *Model
}

// NewEmitter returns an emitter writing to model.
func NewEmitter(config serializer.Config, model *Model) *Emitter {
	return &Emitter{
		config: config,
		model:  model,
	}
}

// TermOf resolves a node returned by the emitter to its RDF term.
func TermOf(node serializer.Node) (Term, error) {
	switch typed := node.(type) {
	case Term:
		return typed, nil
	case *resource:
		return typed.subject, nil
	}
	return Term{}, xerrors.Errorf("node %T is not an rdf node", node)
}

func (emitter *Emitter) EmitNull(frame *serializer.Frame) (serializer.Node, error) {
	return RDFNil, nil
}

func (emitter *Emitter) EmitScalar(
	frame *serializer.Frame, value interface{}, kind classmeta.Kind,
) (serializer.Node, error) {
	text := serializer.FormatScalar(value)
	if emitter.config.AddLiteralTypes &&
		(kind == classmeta.KindNumber || kind == classmeta.KindBoolean) {
		emitter.model.AddPrefix(XSDNamespace)
		return TypedLiteral(text, xsdDatatype(value)), nil
	}
	return Literal(text), nil
}

func (emitter *Emitter) EmitLeafRef(frame *serializer.Frame, uri string) (serializer.Node, error) {
	if uri == "" {
		return emitter.model.NewBlank(), nil
	}
	return IRI(uri), nil
}

func (emitter *Emitter) EmitOpenComposite(
	frame *serializer.Frame, composite serializer.Composite,
) (serializer.Node, error) {
	node := &resource{shape: composite.Shape}

	switch composite.Shape {
	case serializer.ShapeBean:
		if composite.ID != "" {
			node.subject = IRI(composite.ID)
		} else {
			node.subject = emitter.model.NewBlank()
		}
	case serializer.ShapeSeq:
		node.subject = emitter.model.NewBlank()
		emitter.model.Add(node.subject, RDFType, RDFSeq)
	case serializer.ShapeBag:
		node.subject = emitter.model.NewBlank()
		emitter.model.Add(node.subject, RDFType, RDFBag)
	case serializer.ShapeList:
		// The head is allocated when the list is closed.
	default:
		node.subject = emitter.model.NewBlank()
	}
	return node, nil
}

// predicate picks the namespace of a member: the property's own namespace, the
// member's namespace when namespaces are enabled, else the base namespace.
func (emitter *Emitter) predicate(member serializer.Member) Term {
	namespace := emitter.config.BaseNamespace
	switch {
	case member.Property != nil && member.Property.Namespace() != nil:
		namespace = member.Property.Namespace()
	case emitter.config.EnableNamespaces && member.Namespace != nil:
		namespace = member.Namespace
	}
	if namespace == nil {
		namespace = serializer.BaseNamespace
	}
	emitter.model.AddPrefix(namespace)
	return IRI(namespace.URI + classmeta.EncodeElementName(member.Name))
}

func (emitter *Emitter) EmitMember(
	parentNode serializer.Node, member serializer.Member, childNode serializer.Node,
) error {
	parent, ok := parentNode.(*resource)
	if !ok {
		return xerrors.Errorf("parent node %T is not an rdf resource", parentNode)
	}
	object, err := TermOf(childNode)
	if err != nil {
		return err
	}

	switch parent.shape {
	case serializer.ShapeSeq, serializer.ShapeBag:
		parent.count++
		emitter.model.Add(parent.subject, RDFMember(parent.count), object)
	case serializer.ShapeList:
		parent.listItems = append(parent.listItems, object)
	default:
		emitter.model.Add(parent.subject, emitter.predicate(member), object)
	}
	return nil
}

func (emitter *Emitter) EmitCloseComposite(
	frame *serializer.Frame, node serializer.Node,
) (serializer.Node, error) {
	list, ok := node.(*resource)
	if !ok || list.shape != serializer.ShapeList {
		return node, nil
	}

	if len(list.listItems) == 0 {
		list.subject = RDFNil
		return list, nil
	}

	cells := make([]Term, len(list.listItems))
	for index := range cells {
		cells[index] = emitter.model.NewBlank()
	}
	for index, item := range list.listItems {
		emitter.model.Add(cells[index], RDFFirst, item)
		rest := RDFNil
		if index+1 < len(cells) {
			rest = cells[index+1]
		}
		emitter.model.Add(cells[index], RDFRest, rest)
	}
	list.subject = cells[0]
	return list, nil
}
