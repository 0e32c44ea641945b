package classmeta

// PropertyBuilder declares how one struct field is exposed as a bean property. Builder
// methods return a modified copy, so partially built values can be shared.
type PropertyBuilder struct {
	field            string
	name             string
	namespace        *Namespace
	format           Format
	childName        string
	beanURI          bool
	uri              bool
	collectionFormat CollectionFormat
}

// NewProperty starts a declaration for the struct field named field.
func NewProperty(field string) PropertyBuilder {
	return PropertyBuilder{field: field}
}

// Named sets the serialized property name. Defaults to the decapitalized field name.
func (builder PropertyBuilder) Named(name string) PropertyBuilder {
	builder.name = name
	return builder
}

// InNamespace places the property in namespace.
func (builder PropertyBuilder) InNamespace(namespace *Namespace) PropertyBuilder {
	builder.namespace = namespace
	return builder
}

// AsAttribute renders the property as an attribute in element-tree syntaxes.
func (builder PropertyBuilder) AsAttribute() PropertyBuilder {
	builder.format = FormatAttribute
	return builder
}

// AsCollapsed renders a collection property as repeated childName elements.
func (builder PropertyBuilder) AsCollapsed(childName string) PropertyBuilder {
	builder.format = FormatCollapsed
	builder.childName = childName
	return builder
}

// AsContent renders the property as the bean element's content.
func (builder PropertyBuilder) AsContent() PropertyBuilder {
	builder.format = FormatContent
	return builder
}

// AsBeanURI makes the property the identifier of the bean.
func (builder PropertyBuilder) AsBeanURI() PropertyBuilder {
	builder.beanURI = true
	return builder
}

// AsURI treats the property's value as a URI.
func (builder PropertyBuilder) AsURI() PropertyBuilder {
	builder.uri = true
	return builder
}

// WithCollectionFormat overrides the collection format for this property.
func (builder PropertyBuilder) WithCollectionFormat(format CollectionFormat) PropertyBuilder {
	builder.collectionFormat = format
	return builder
}

// BeanBuilder is the registration table entry for a struct type: its names, namespace
// and the ordered list of exposed properties.
type BeanBuilder struct {
	typeName    string
	elementName string
	namespace   *Namespace
	properties  []PropertyBuilder
}

// NewBean starts a bean declaration.
func NewBean() BeanBuilder {
	return BeanBuilder{}
}

// TypeName overrides the type name used by schema generators.
func (builder BeanBuilder) TypeName(name string) BeanBuilder {
	builder.typeName = name
	return builder
}

// ElementName sets the element name used when the bean is a root or sequence item.
func (builder BeanBuilder) ElementName(name string) BeanBuilder {
	builder.elementName = name
	return builder
}

// InNamespace sets the bean's default namespace.
func (builder BeanBuilder) InNamespace(namespace *Namespace) BeanBuilder {
	builder.namespace = namespace
	return builder
}

// Property appends a property. Properties are serialized in the order they are added.
// When no properties are added all exported fields are used.
func (builder BeanBuilder) Property(property PropertyBuilder) BeanBuilder {
	properties := make([]PropertyBuilder, len(builder.properties), len(builder.properties)+1)
	copy(properties, builder.properties)
	builder.properties = append(properties, property)
	return builder
}
