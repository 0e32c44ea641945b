package xmldoc

import (
	"io"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"go.uber.org/zap"
)

// Serializer writes values as XML documents.
type Serializer struct {
	config   serializer.Config
	resolver classmeta.Resolver
	logger   *zap.Logger
}

// NewSerializer returns an XML document serializer. logger may be nil.
func NewSerializer(
	config serializer.Config, resolver classmeta.Resolver, logger *zap.Logger,
) *Serializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serializer{
		config:   config,
		resolver: resolver,
		logger:   logger,
	}
}

// NewSession opens a session with the serializer's settings.
func (xmlSerializer *Serializer) NewSession() *serializer.Session {
	return serializer.NewSession(xmlSerializer.config, xmlSerializer.resolver, xmlSerializer.logger)
}

// Build converts value to an element tree.
func (xmlSerializer *Serializer) Build(
	session *serializer.Session, value interface{},
) (*Element, error) {
	walker := serializer.NewWalker(session, NewEmitter(session.Config()))
	node, err := walker.Serialize(value, nil)
	if err != nil {
		return nil, err
	}
	root, ok := node.(*Element)
	if !ok {
		return nil, spanerrors.SerializeError.Newf("emitter returned %T for the root", node)
	}
	return root, nil
}

// Serialize writes value to out as an XML document.
func (xmlSerializer *Serializer) Serialize(out io.Writer, value interface{}) error {
	return xmlSerializer.SerializeSession(xmlSerializer.NewSession(), out, value)
}

// SerializeSession writes value to out using an existing session.
func (xmlSerializer *Serializer) SerializeSession(
	session *serializer.Session, out io.Writer, value interface{},
) error {
	root, err := xmlSerializer.Build(session, value)
	if err != nil {
		return err
	}
	return xmlSerializer.WriteDocument(out, root)
}

// WriteDocument writes an element tree, with the prolog when XMLDeclaration is set.
func (xmlSerializer *Serializer) WriteDocument(out io.Writer, root *Element) error {
	config := xmlSerializer.config
	writer := NewWriter(out, config.UseIndentation, config.QuoteChar)

	if config.XMLDeclaration {
		writer.Append("<?xml").
			Attr("version", "1.0").
			Attr("encoding", "UTF-8").
			Append("?>\n")
	}

	document := &documentWriter{
		writer: writer,
		config: config,
	}
	document.writeElement(root, 0, true, false)

	if err := writer.Err(); err != nil {
		return spanerrors.SerializeError.New("error writing xml document", err)
	}
	return nil
}

type documentWriter struct {
	writer *Writer
	config serializer.Config
}

func (document *documentWriter) prefix(namespace *classmeta.Namespace) string {
	if !document.config.EnableNamespaces || namespace == nil ||
		namespace.Same(document.config.DefaultNamespace) {
		return ""
	}
	return namespace.Prefix
}

func (document *documentWriter) qualifiedName(namespace *classmeta.Namespace, name string) string {
	if prefix := document.prefix(namespace); prefix != "" {
		return prefix + ":" + name
	}
	return name
}

// usedNamespaces lists the namespaces referenced in the tree in order of first use,
// excluding the default namespace. hasNil reports whether any element is nil.
func (document *documentWriter) usedNamespaces(
	root *Element,
) (namespaces []*classmeta.Namespace, hasNil bool) {
	seen := make(map[string]bool)
	add := func(namespace *classmeta.Namespace) {
		if document.prefix(namespace) == "" || seen[namespace.URI] {
			return
		}
		seen[namespace.URI] = true
		namespaces = append(namespaces, namespace)
	}

	root.Walk(func(element *Element) {
		add(element.Namespace)
		for _, attr := range element.Attrs {
			add(attr.Namespace)
		}
		hasNil = hasNil || element.Nil
	})
	return namespaces, hasNil
}

func (document *documentWriter) writeElement(element *Element, depth int, root bool, inline bool) {
	writer := document.writer
	name := document.qualifiedName(element.Namespace, element.Name)

	indent := depth
	if inline {
		indent = 0
	}
	writer.OTag(indent, name)

	if root {
		namespaces, hasNil := document.usedNamespaces(element)
		if document.config.EnableNamespaces && document.config.DefaultNamespace != nil {
			writer.Attr("xmlns", document.config.DefaultNamespace.URI)
		}
		for _, namespace := range namespaces {
			writer.NSAttr("xmlns", namespace.Prefix, namespace.URI)
		}
		if hasNil {
			writer.NSAttr("xmlns", serializer.XSINamespace.Prefix, serializer.XSINamespace.URI)
		}
	}

	for _, attr := range element.Attrs {
		writer.NSAttr(document.prefix(attr.Namespace), attr.Name, attr.Value)
	}

	newline := func() {
		if !inline {
			writer.NL()
		}
	}

	switch {
	case element.Nil:
		writer.NSAttr(serializer.XSINamespace.Prefix, "nil", "true").CETag()
		newline()

	case element.Text == "" && len(element.Children) == 0:
		writer.CETag()
		newline()

	case len(element.Children) == 0:
		writer.CTag().Text(element.Text).ETag(0, name)
		newline()

	case element.Text != "":
		// Mixed content is written on one line so no whitespace is added to it.
		writer.CTag().Text(element.Text)
		for _, child := range element.Children {
			document.writeElement(child, 0, false, true)
		}
		writer.ETag(0, name)
		newline()

	default:
		writer.CTag()
		newline()
		for _, child := range element.Children {
			document.writeElement(child, depth+1, false, inline)
		}
		writer.ETag(indent, name)
		newline()
	}
}
