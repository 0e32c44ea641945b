package xsd

import (
	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
)

// namespaceCollector is an emitter that writes nothing and records every namespace the
// walked values use.
type namespaceCollector struct {
	namespaces []*classmeta.Namespace
}

// Placeholder node; the walker only needs something non-nil.
type collected struct{}

func (collector *namespaceCollector) add(namespace *classmeta.Namespace) {
	if namespace == nil {
		return
	}
	for _, existing := range collector.namespaces {
		if existing.Same(namespace) {
			return
		}
	}
	collector.namespaces = append(collector.namespaces, namespace)
}

func (collector *namespaceCollector) addFrame(frame *serializer.Frame) {
	if frame.Serialized != nil {
		collector.add(frame.Serialized.Namespace())
	}
}

func (collector *namespaceCollector) EmitNull(frame *serializer.Frame) (serializer.Node, error) {
	return collected{}, nil
}

func (collector *namespaceCollector) EmitScalar(
	frame *serializer.Frame, value interface{}, kind classmeta.Kind,
) (serializer.Node, error) {
	collector.addFrame(frame)
	return collected{}, nil
}

func (collector *namespaceCollector) EmitLeafRef(
	frame *serializer.Frame, uri string,
) (serializer.Node, error) {
	collector.addFrame(frame)
	return collected{}, nil
}

func (collector *namespaceCollector) EmitOpenComposite(
	frame *serializer.Frame, composite serializer.Composite,
) (serializer.Node, error) {
	collector.addFrame(frame)
	if frame.Serialized != nil {
		for _, property := range frame.Serialized.Properties() {
			collector.add(property.Namespace())
		}
	}
	return collected{}, nil
}

func (collector *namespaceCollector) EmitMember(
	parent serializer.Node, member serializer.Member, child serializer.Node,
) error {
	collector.add(member.Namespace)
	return nil
}

func (collector *namespaceCollector) EmitCloseComposite(
	frame *serializer.Frame, node serializer.Node,
) (serializer.Node, error) {
	return node, nil
}

// DetectNamespaces walks value and returns the namespaces of the types and properties
// it reaches, in order of first use.
func DetectNamespaces(session *serializer.Session, value interface{}) ([]*classmeta.Namespace, error) {
	collector := &namespaceCollector{}
	walker := serializer.NewWalker(session, collector)
	if _, err := walker.Serialize(value, nil); err != nil {
		return nil, err
	}
	return collector.namespaces, nil
}

// TypeNamespaces returns the namespaces reachable from the type metadata of meta.
func TypeNamespaces(meta *classmeta.ClassMeta) []*classmeta.Namespace {
	collector := &namespaceCollector{}
	visited := make(map[*classmeta.ClassMeta]bool)

	var visit func(meta *classmeta.ClassMeta)
	visit = func(meta *classmeta.ClassMeta) {
		if meta == nil || visited[meta] {
			return
		}
		visited[meta] = true
		meta = meta.SerializedClassMeta()
		collector.add(meta.Namespace())
		visit(meta.KeyType())
		visit(meta.ValueType())
		visit(meta.ElementType())
		for _, property := range meta.Properties() {
			collector.add(property.Namespace())
			visit(property.ClassMeta())
		}
	}
	visit(meta)
	return collector.namespaces
}
