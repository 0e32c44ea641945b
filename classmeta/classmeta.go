package classmeta

import (
	"reflect"
)

/*
ClassMeta holds the immutable facts about one Go type that the serializers need: its
semantic kind, its element types, its bean properties and its swap.

ClassMeta values are created by a Registry, once per reflect.Type, and are safe to share
between concurrent serializations once returned.
*/
type ClassMeta struct {
	typ       reflect.Type
	kind      Kind
	name      string
	decimal   bool
	primitive bool

	// Element name and namespace used by element-tree syntaxes.
	elementName string
	namespace   *Namespace

	keyType     *ClassMeta
	valueType   *ClassMeta
	elementType *ClassMeta

	properties    []*BeanPropertyMeta
	propertyIndex map[string]*BeanPropertyMeta

	swap Swap
	// ClassMeta of the swap's declared surrogate type. Object when the surrogate type is
	// only known per value.
	swapped *ClassMeta

	collectionFormat CollectionFormat
}

// Type returns the described reflect.Type. Nil for the Object and Null ClassMeta.
func (meta *ClassMeta) Type() reflect.Type {
	return meta.typ
}

// Kind returns the semantic kind of the type.
func (meta *ClassMeta) Kind() Kind {
	return meta.kind
}

// Name is the stable type name used by schema generators, such as "Person" or
// "ArrayOfPerson".
func (meta *ClassMeta) Name() string {
	return meta.name
}

// ElementName is the registered element name of the type, or "" when none was given.
func (meta *ClassMeta) ElementName() string {
	return meta.elementName
}

// Namespace is the registered namespace of the type, or nil.
func (meta *ClassMeta) Namespace() *Namespace {
	return meta.namespace
}

func (meta *ClassMeta) IsObject() bool     { return meta.kind == KindObject }
func (meta *ClassMeta) IsString() bool     { return meta.kind == KindString }
func (meta *ClassMeta) IsChar() bool       { return meta.kind == KindChar }
func (meta *ClassMeta) IsNumber() bool     { return meta.kind == KindNumber }
func (meta *ClassMeta) IsBoolean() bool    { return meta.kind == KindBoolean }
func (meta *ClassMeta) IsMap() bool        { return meta.kind == KindMap }
func (meta *ClassMeta) IsBean() bool       { return meta.kind == KindBean }
func (meta *ClassMeta) IsCollection() bool { return meta.kind == KindCollection }
func (meta *ClassMeta) IsArray() bool      { return meta.kind == KindArray }
func (meta *ClassMeta) IsURI() bool        { return meta.kind == KindURI }
func (meta *ClassMeta) IsDelegate() bool   { return meta.kind == KindDelegate }

// IsDecimal reports whether a number type holds fractional values.
func (meta *ClassMeta) IsDecimal() bool {
	return meta.kind == KindNumber && meta.decimal
}

// IsPrimitive reports whether the underlying type is a Go basic value type: bool,
// numeric or string.
func (meta *ClassMeta) IsPrimitive() bool {
	return meta.primitive
}

// IsCollectionOrArray reports whether the type is a slice or an array.
func (meta *ClassMeta) IsCollectionOrArray() bool {
	return meta.kind == KindCollection || meta.kind == KindArray
}

// IsSimple reports whether values of the type serialize as a single text token.
func (meta *ClassMeta) IsSimple() bool {
	switch meta.kind {
	case KindMap, KindBean, KindCollection, KindArray, KindObject, KindDelegate:
		return false
	}
	return true
}

// KeyType returns the key type of a map type.
func (meta *ClassMeta) KeyType() *ClassMeta {
	return meta.keyType
}

// ValueType returns the value type of a map type.
func (meta *ClassMeta) ValueType() *ClassMeta {
	return meta.valueType
}

// ElementType returns the element type of a collection or array type.
func (meta *ClassMeta) ElementType() *ClassMeta {
	return meta.elementType
}

// Properties returns the bean properties in registration order.
func (meta *ClassMeta) Properties() []*BeanPropertyMeta {
	return meta.properties
}

// Property looks up a bean property by its serialized name.
func (meta *ClassMeta) Property(name string) (*BeanPropertyMeta, bool) {
	property, ok := meta.propertyIndex[name]
	return property, ok
}

// BeanURIProperty returns the property that carries the bean's identifier, if any.
func (meta *ClassMeta) BeanURIProperty() *BeanPropertyMeta {
	for _, property := range meta.properties {
		if property.IsBeanURI() {
			return property
		}
	}
	return nil
}

// ContentProperty returns the property rendered as element content, if any.
func (meta *ClassMeta) ContentProperty() *BeanPropertyMeta {
	for _, property := range meta.properties {
		if property.Format() == FormatContent {
			return property
		}
	}
	return nil
}

// AttributeProperties returns the properties rendered as attributes, in order.
func (meta *ClassMeta) AttributeProperties() []*BeanPropertyMeta {
	var attributes []*BeanPropertyMeta
	for _, property := range meta.properties {
		if property.Format() == FormatAttribute {
			attributes = append(attributes, property)
		}
	}
	return attributes
}

// Swap returns the swap registered for the type, or nil.
func (meta *ClassMeta) Swap() Swap {
	return meta.swap
}

// SerializedClassMeta returns the ClassMeta values of this type are serialized as:
// the swap's surrogate type when a swap is registered, otherwise the type itself.
func (meta *ClassMeta) SerializedClassMeta() *ClassMeta {
	if meta.swap != nil {
		return meta.swapped
	}
	return meta
}

// CollectionFormat is the registered collection format override for the type.
func (meta *ClassMeta) CollectionFormat() CollectionFormat {
	return meta.collectionFormat
}

func (meta *ClassMeta) String() string {
	return meta.name
}
