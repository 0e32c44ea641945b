package classmeta

import (
	"reflect"
	"sync"
)

// BeanPropertyMeta describes one property of a bean type.
type BeanPropertyMeta struct {
	name      string
	bean      *ClassMeta
	namespace *Namespace
	format    Format
	childName string
	beanURI   bool
	uri       bool

	collectionFormat CollectionFormat

	// Struct field index used to read the property from a bean value.
	index     []int
	fieldType reflect.Type

	resolver  *Registry
	typeOnce  sync.Once
	valueType *ClassMeta
}

// Name is the serialized name of the property, unique within its bean.
func (property *BeanPropertyMeta) Name() string {
	return property.name
}

// Bean returns the ClassMeta of the bean owning the property.
func (property *BeanPropertyMeta) Bean() *ClassMeta {
	return property.bean
}

// ClassMeta returns the declared value type of the property. It is resolved on first
// use so that self-referencing bean types can be described.
func (property *BeanPropertyMeta) ClassMeta() *ClassMeta {
	property.typeOnce.Do(func() {
		property.valueType = property.resolver.ClassMetaFor(property.fieldType)
	})
	return property.valueType
}

// Namespace is the property's own namespace, or nil.
func (property *BeanPropertyMeta) Namespace() *Namespace {
	return property.namespace
}

// Format tells element-tree syntaxes where to place the property.
func (property *BeanPropertyMeta) Format() Format {
	return property.format
}

// ChildName is the element name used for the items of a collapsed collection. Falls
// back to the property name.
func (property *BeanPropertyMeta) ChildName() string {
	if property.childName != "" {
		return property.childName
	}
	return property.name
}

// IsBeanURI reports whether the property carries the bean's identifier instead of
// being part of its body.
func (property *BeanPropertyMeta) IsBeanURI() bool {
	return property.beanURI
}

// IsURI reports whether the property's value should be treated as a URI.
func (property *BeanPropertyMeta) IsURI() bool {
	return property.uri
}

// CollectionFormat is the property's collection format override.
func (property *BeanPropertyMeta) CollectionFormat() CollectionFormat {
	return property.collectionFormat
}

// Get reads the property from a bean value. Pointers are followed. ok is false when
// the bean is nil or the field sits behind a nil embedded pointer.
func (property *BeanPropertyMeta) Get(bean interface{}) (value interface{}, ok bool) {
	beanValue := reflect.ValueOf(bean)
	for beanValue.Kind() == reflect.Ptr || beanValue.Kind() == reflect.Interface {
		if beanValue.IsNil() {
			return nil, false
		}
		beanValue = beanValue.Elem()
	}
	if beanValue.Kind() != reflect.Struct {
		return nil, false
	}

	field, err := beanValue.FieldByIndexErr(property.index)
	if err != nil {
		return nil, false
	}
	return field.Interface(), true
}

// Field returns the settable struct field of the property on an addressable bean
// value, allocating nil embedded pointers along the way.
func (property *BeanPropertyMeta) Field(bean reflect.Value) reflect.Value {
	field := bean
	for position, fieldIndex := range property.index {
		if position > 0 && field.Kind() == reflect.Ptr {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		field = field.Field(fieldIndex)
	}
	return field
}
