package xsd

import (
	"io"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/xmldoc"
	"go.uber.org/zap"
)

// Separator between the schema documents of different namespaces.
const Separator = "\x00"

// A global element, global attribute or type waiting to be written.
type queueEntry struct {
	namespace *classmeta.Namespace
	name      string
	meta      *classmeta.ClassMeta
}

/*
Schemas holds one schema document per namespace and the queues of global elements, types
and attributes still to be written.

Writing a type can queue further entries, possibly into other namespaces. ProcessQueue
keeps draining the queues until a full pass writes nothing new. Each (namespace, name)
pair is written at most once per queue kind.
*/
type Schemas struct {
	config           serializer.Config
	logger           *zap.Logger
	defaultNamespace *classmeta.Namespace

	schemas []*schema

	elementQueue   []queueEntry
	typeQueue      []queueEntry
	attributeQueue []queueEntry
}

// NewSchemas opens a schema for the default namespace and one for every namespace in
// namespaces, in order. Namespaces sharing a URI are opened once.
func NewSchemas(
	config serializer.Config,
	defaultNamespace *classmeta.Namespace,
	namespaces []*classmeta.Namespace,
	logger *zap.Logger,
) *Schemas {
	if logger == nil {
		logger = zap.NewNop()
	}

	all := []*classmeta.Namespace{defaultNamespace}
	for _, namespace := range namespaces {
		known := false
		for _, existing := range all {
			known = known || existing.Same(namespace)
		}
		if !known && namespace != nil {
			all = append(all, namespace)
		}
	}

	schemas := &Schemas{
		config:           config,
		logger:           logger,
		defaultNamespace: defaultNamespace,
	}
	for _, namespace := range all {
		schemas.schemas = append(schemas.schemas, newSchema(schemas, namespace, all))
	}
	return schemas
}

// Namespaces returns the target namespaces in document order.
func (schemas *Schemas) Namespaces() []*classmeta.Namespace {
	namespaces := make([]*classmeta.Namespace, len(schemas.schemas))
	for index, schema := range schemas.schemas {
		namespaces[index] = schema.target
	}
	return namespaces
}

func (schemas *Schemas) schemaFor(namespace *classmeta.Namespace) (*schema, error) {
	if namespace == nil {
		namespace = schemas.defaultNamespace
	}
	for _, schema := range schemas.schemas {
		if schema.target.Same(namespace) {
			return schema, nil
		}
	}
	return nil, spanerrors.ConfigurationError.Newf(
		"no schema defined for namespace %v", namespace,
	)
}

// QueueElement queues a global element. An empty name is derived from the type.
func (schemas *Schemas) QueueElement(
	namespace *classmeta.Namespace, name string, meta *classmeta.ClassMeta,
) {
	schemas.elementQueue = append(schemas.elementQueue, queueEntry{namespace, name, meta})
}

// QueueType queues a named complex type. An empty name is derived from the type.
func (schemas *Schemas) QueueType(
	namespace *classmeta.Namespace, name string, meta *classmeta.ClassMeta,
) {
	if name == "" {
		name = classmeta.EncodeElementName(meta.Name())
	}
	schemas.typeQueue = append(schemas.typeQueue, queueEntry{namespace, name, meta})
}

// QueueAttribute queues a global attribute.
func (schemas *Schemas) QueueAttribute(
	namespace *classmeta.Namespace, name string, meta *classmeta.ClassMeta,
) {
	schemas.attributeQueue = append(schemas.attributeQueue, queueEntry{namespace, name, meta})
}

// ProcessQueue writes queued entries until no pass produces anything new.
func (schemas *Schemas) ProcessQueue() error {
	for {
		changed := false

		for len(schemas.elementQueue) > 0 {
			entry := schemas.elementQueue[0]
			schemas.elementQueue = schemas.elementQueue[1:]
			schema, err := schemas.schemaFor(entry.namespace)
			if err != nil {
				return err
			}
			changed = schema.processElement(entry.name, entry.meta) || changed
		}

		for len(schemas.typeQueue) > 0 {
			entry := schemas.typeQueue[0]
			schemas.typeQueue = schemas.typeQueue[1:]
			schema, err := schemas.schemaFor(entry.namespace)
			if err != nil {
				return err
			}
			changed = schema.processType(entry.name, entry.meta) || changed
		}

		for len(schemas.attributeQueue) > 0 {
			entry := schemas.attributeQueue[0]
			schemas.attributeQueue = schemas.attributeQueue[1:]
			schema, err := schemas.schemaFor(entry.namespace)
			if err != nil {
				return err
			}
			changed = schema.processAttribute(entry.name, entry.meta) || changed
		}

		if !changed {
			return nil
		}
	}
}

// Process queues the root element for a value of type meta and processes the queue.
// A nil meta, or the Null ClassMeta, describes a null root.
func (schemas *Schemas) Process(meta *classmeta.ClassMeta) error {
	namespace := schemas.defaultNamespace
	if meta == nil || meta.Kind() == classmeta.KindNull {
		schemas.QueueElement(namespace, "null", meta)
	} else {
		if meta.ElementName() != "" && meta.Namespace() != nil {
			namespace = meta.Namespace()
		}
		schemas.QueueElement(namespace, meta.ElementName(), meta)
	}
	return schemas.ProcessQueue()
}

// WriteTo closes every schema and writes them, separated by Separator.
func (schemas *Schemas) WriteTo(out io.Writer) (int64, error) {
	var written int64
	for index, schema := range schemas.schemas {
		if index > 0 {
			count, err := io.WriteString(out, Separator)
			written += int64(count)
			if err != nil {
				return written, err
			}
		}
		count, err := io.WriteString(out, schema.close())
		written += int64(count)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// schema is one schema document under construction.
type schema struct {
	schemas *Schemas
	target  *classmeta.Namespace

	buffer *strings.Builder
	writer *xmldoc.Writer
	closed string

	processedElements   map[string]bool
	processedTypes      map[string]bool
	processedAttributes map[string]bool
}

func newSchema(
	schemas *Schemas, target *classmeta.Namespace, all []*classmeta.Namespace,
) *schema {
	config := schemas.config
	buffer := &strings.Builder{}
	writer := xmldoc.NewWriter(buffer, config.UseIndentation, config.QuoteChar)

	created := &schema{
		schemas:             schemas,
		target:              target,
		buffer:              buffer,
		writer:              writer,
		processedElements:   make(map[string]bool),
		processedTypes:      make(map[string]bool),
		processedAttributes: make(map[string]bool),
	}

	xs := classmeta.FirstNamespace(config.XSNamespace, serializer.XSNamespace)
	writer.OTag(0, "schema").
		Attr("xmlns", xs.URI).
		Attr("targetNamespace", target.URI).
		Attr("elementFormDefault", "qualified")
	if !target.Same(schemas.defaultNamespace) {
		writer.Attr("attributeFormDefault", "qualified")
	}
	for _, namespace := range all {
		writer.NSAttr("xmlns", namespace.Prefix, namespace.URI)
	}
	writer.CTag().NL()

	for _, namespace := range all {
		if namespace.Same(target) {
			continue
		}
		writer.OTag(1, "import").
			Attr("namespace", namespace.URI).
			Attr("schemaLocation", namespace.Prefix+".xsd").
			CETag().NL()
	}
	return created
}

func (schema *schema) close() string {
	if schema.closed == "" {
		schema.writer.ETag(0, "schema").NL()
		schema.closed = schema.buffer.String()
	}
	return schema.closed
}

func isComplex(meta *classmeta.ClassMeta) bool {
	switch meta.Kind() {
	case classmeta.KindMap, classmeta.KindBean, classmeta.KindCollection,
		classmeta.KindArray, classmeta.KindObject, classmeta.KindDelegate:
		return true
	}
	return false
}

func serialized(meta *classmeta.ClassMeta) *classmeta.ClassMeta {
	if meta == nil {
		return nil
	}
	return meta.SerializedClassMeta()
}

// attributeType is the simple type of an attribute holding meta.
func attributeType(meta *classmeta.ClassMeta) string {
	meta = serialized(meta)
	switch {
	case meta == nil:
		return "string"
	case meta.IsBoolean():
		return "boolean"
	case meta.IsNumber() && meta.IsDecimal():
		return "decimal"
	case meta.IsNumber():
		return "integer"
	}
	return "string"
}

// xmlType returns the type reference for an element of type meta placed in namespace.
// Named complex types are queued in namespace.
func (schema *schema) xmlType(namespace *classmeta.Namespace, meta *classmeta.ClassMeta) string {
	meta = serialized(meta)
	if meta == nil || meta.Kind() == classmeta.KindNull {
		return "string"
	}

	if namespace.Same(schema.target) && !schema.schemas.config.AddTypeAttrs {
		switch {
		case meta.IsBoolean():
			return "boolean"
		case meta.IsNumber() && meta.IsDecimal():
			return "decimal"
		case meta.IsNumber():
			return "integer"
		case !isComplex(meta):
			return "string"
		}
	}

	name := classmeta.EncodeElementName(meta.Name())
	schema.schemas.QueueType(namespace, name, meta)
	return namespace.Prefix + ":" + name
}

func (schema *schema) processElement(name string, meta *classmeta.ClassMeta) bool {
	meta = serialized(meta)
	if name == "" {
		name = xmldoc.ElementName(meta)
	}
	if schema.processedElements[name] {
		return false
	}
	schema.processedElements[name] = true

	var namespace *classmeta.Namespace
	if meta != nil {
		namespace = meta.Namespace()
	}
	namespace = classmeta.FirstNamespace(namespace, schema.schemas.defaultNamespace)

	schema.schemas.logger.Debug(
		"schema element", zap.String("namespace", schema.target.URI), zap.String("name", name),
	)
	schema.writer.OTag(1, "element").
		Attr("name", classmeta.EncodeElementName(name)).
		Attr("type", schema.xmlType(namespace, meta)).
		CETag().NL()
	return true
}

func (schema *schema) processAttribute(name string, meta *classmeta.ClassMeta) bool {
	if schema.processedAttributes[name] {
		return false
	}
	schema.processedAttributes[name] = true

	schema.schemas.logger.Debug(
		"schema attribute", zap.String("namespace", schema.target.URI), zap.String("name", name),
	)
	schema.writer.OTag(1, "attribute").
		Attr("name", classmeta.EncodeElementName(name)).
		Attr("type", attributeType(meta)).
		CETag().NL()
	return true
}

func (schema *schema) processType(name string, meta *classmeta.ClassMeta) bool {
	if schema.processedTypes[name] {
		return false
	}
	schema.processedTypes[name] = true

	schema.schemas.logger.Debug(
		"schema type", zap.String("namespace", schema.target.URI), zap.String("name", name),
	)

	config := schema.schemas.config
	writer := schema.writer
	meta = serialized(meta)

	writer.OTag(1, "complexType").Attr("name", name)
	if (meta.IsBean() && meta.ContentProperty() != nil) || meta.IsObject() {
		writer.Attr("mixed", "true")
	}
	writer.CTag().NL()

	if !isComplex(meta) {
		writer.STag(2, "simpleContent").NL()
		writer.OTag(3, "extension").Attr("base", attributeType(meta))
		if config.AddTypeAttrs {
			writer.CTag().NL()
			writer.OTag(4, "attribute").Attr("name", xmldoc.TypeAttr).Attr("type", "string").CETag().NL()
			writer.ETag(3, "extension").NL()
		} else {
			writer.CETag().NL()
		}
		writer.ETag(2, "simpleContent").NL()
		writer.ETag(1, "complexType").NL()
		return true
	}

	switch {
	case meta.IsBean():
		schema.writeBean(meta)
	case meta.IsCollectionOrArray():
		schema.writeCollection(meta)
	default:
		schema.writeAnySequence()
	}

	if config.AddClassAttrs {
		writer.OTag(2, "attribute").Attr("name", xmldoc.ClassAttr).Attr("type", "string").CETag().NL()
	}
	if config.AddTypeAttrs {
		writer.OTag(2, "attribute").Attr("name", xmldoc.TypeAttr).Attr("type", "string").CETag().NL()
	}
	writer.ETag(1, "complexType").NL()
	return true
}

func (schema *schema) writeAnySequence() {
	writer := schema.writer
	writer.STag(2, "sequence").NL()
	writer.OTag(3, "any").
		Attr("processContents", "skip").
		Attr("maxOccurs", "unbounded").
		Attr("minOccurs", "0").
		CETag().NL()
	writer.ETag(2, "sequence").NL()
}

func isAttributeProperty(property *classmeta.BeanPropertyMeta) bool {
	return property.Format() == classmeta.FormatAttribute || property.IsBeanURI()
}

func (schema *schema) writeBean(meta *classmeta.ClassMeta) {
	config := schema.schemas.config
	defaultNamespace := schema.schemas.defaultNamespace
	writer := schema.writer

	hasChildElements := false
	for _, property := range meta.Properties() {
		if !isAttributeProperty(property) && property.Format() != classmeta.FormatContent {
			hasChildElements = true
		}
	}

	switch {
	case meta.ContentProperty() != nil:
		writer.STag(2, "sequence").NL()
		writer.OTag(3, "any").
			Attr("processContents", "skip").
			Attr("minOccurs", "0").
			CETag().NL()
		writer.ETag(2, "sequence").NL()

	case hasChildElements:
		writer.STag(2, "sequence").NL()
		hasOtherNamespaceElement := false

		for _, property := range meta.Properties() {
			if isAttributeProperty(property) {
				continue
			}

			childType := property.ClassMeta()
			childName := property.Name()
			repeated := false
			switch {
			case property.Format() == classmeta.FormatCollapsed:
				repeated = true
				childName = property.ChildName()
				childType = elementTypeOf(childType)
			case childType.IsCollection() &&
				serializer.EffectiveCollectionFormat(config, childType, property) == classmeta.CollectionMultiValued:
				repeated = true
				childType = elementTypeOf(childType)
			}

			childNamespace := classmeta.FirstNamespace(
				property.Namespace(), childType.Namespace(), meta.Namespace(), defaultNamespace,
			)
			if property.Namespace() != nil {
				schema.schemas.QueueElement(childNamespace, property.Name(), childType)
				hasOtherNamespaceElement = true
				continue
			}

			writer.OTag(3, "element").
				Attr("name", classmeta.EncodeElementName(childName)).
				Attr("type", schema.xmlType(childNamespace, childType))
			switch {
			case repeated:
				writer.Attr("minOccurs", "0").Attr("maxOccurs", "unbounded")
			case config.TrimNulls:
				writer.Attr("minOccurs", "0")
			default:
				writer.Attr("nillable", "true")
			}
			writer.CETag().NL()
		}

		if hasOtherNamespaceElement {
			writer.OTag(3, "any").
				Attr("minOccurs", "0").
				Attr("maxOccurs", "unbounded").
				CETag().NL()
		}
		writer.ETag(2, "sequence").NL()
	}

	for _, property := range meta.Properties() {
		if !isAttributeProperty(property) {
			continue
		}
		propertyNamespace := classmeta.FirstNamespace(property.Namespace(), defaultNamespace)

		if !propertyNamespace.Same(schema.target) {
			schema.schemas.QueueAttribute(propertyNamespace, property.Name(), property.ClassMeta())
			writer.OTag(2, "attribute").
				Attr("ref", propertyNamespace.Prefix+":"+classmeta.EncodeElementName(property.Name())).
				CETag().NL()
			continue
		}

		writer.OTag(2, "attribute").
			Attr("name", classmeta.EncodeElementName(property.Name())).
			Attr("type", attributeType(property.ClassMeta())).
			CETag().NL()
	}
}

func elementTypeOf(meta *classmeta.ClassMeta) *classmeta.ClassMeta {
	if element := serialized(meta).ElementType(); element != nil {
		return element
	}
	return meta
}

func (schema *schema) writeCollection(meta *classmeta.ClassMeta) {
	elementType := meta.ElementType()
	if elementType == nil || serialized(elementType).IsObject() {
		schema.writeAnySequence()
		return
	}

	writer := schema.writer
	elementNamespace := classmeta.FirstNamespace(
		serialized(elementType).Namespace(), meta.Namespace(), schema.schemas.defaultNamespace,
	)

	writer.STag(2, "sequence").NL()
	writer.OTag(3, "choice").
		Attr("minOccurs", "0").
		Attr("maxOccurs", "unbounded").
		CTag().NL()
	writer.OTag(4, "element").
		Attr("name", classmeta.EncodeElementName(xmldoc.ElementName(serialized(elementType)))).
		Attr("type", schema.xmlType(elementNamespace, elementType)).
		CETag().NL()
	writer.OTag(4, "element").
		Attr("name", "null").
		Attr("type", "string").
		CETag().NL()
	writer.ETag(3, "choice").NL()
	writer.ETag(2, "sequence").NL()
}

// Document is one schema document recovered by Split.
type Document struct {
	TargetNamespace string
	Schema          string
}

// Split breaks the output of a schema generation into its documents. The first
// document is the schema of the default namespace.
func Split(output string) []Document {
	var documents []Document
	for _, part := range strings.Split(output, Separator) {
		if part == "" {
			continue
		}
		document := Document{Schema: part}
		if match := targetNamespacePattern.FindStringSubmatch(part); match != nil {
			document.TargetNamespace = match[1]
		}
		documents = append(documents, document)
	}
	return documents
}
