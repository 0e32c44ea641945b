package classmeta

import (
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
)

// Resolver answers type questions for the serializers.
type Resolver interface {
	// ClassMetaFor returns the ClassMeta of a declared type. A nil type returns Object.
	ClassMetaFor(t reflect.Type) *ClassMeta
	// ClassMetaForObject returns the ClassMeta of a runtime value. A nil value returns
	// the Null ClassMeta.
	ClassMetaForObject(value interface{}) *ClassMeta
	// Object is the ClassMeta used when nothing is known about a type.
	Object() *ClassMeta
}

// Delegate is implemented by wrapper values that serialize as the value they wrap.
type Delegate interface {
	Delegated() interface{}
}

var (
	delegateType  = reflect.TypeOf((*Delegate)(nil)).Elem()
	urlType       = reflect.TypeOf(url.URL{})
	charType      = reflect.TypeOf(spantypes.Char(0))
	objectMapType = reflect.TypeOf(spantypes.ObjectMap{})
)

/*
Registry is the default Resolver. ClassMeta values are built once per reflect.Type and
cached.

Struct types are described by the BeanBuilder registered for them, or, when none was
registered, from their exported fields and "span" struct tags:

	type Person struct {
		ID      string   `span:"id,beanuri"`
		Name    string   `span:"name,attr"`
		Friends []Person `span:"friends,collapsed,child=friend"`
		Secret  string   `span:"-"`
	}

Tag options are attr, collapsed, content, beanuri, uri, seq, bag, list, multi and
child=<name>.

Registration must happen before a type is first resolved. Registry is safe for
concurrent use.
*/
type Registry struct {
	mu sync.RWMutex

	metas             map[reflect.Type]*ClassMeta
	beans             map[reflect.Type]BeanBuilder
	swaps             map[reflect.Type]Swap
	collectionFormats map[reflect.Type]CollectionFormat

	object *ClassMeta
	null   *ClassMeta
}

// NewRegistry returns a registry with the default swaps for time.Time, uuid.UUID,
// spantypes.BinData and primitive.ObjectID installed.
func NewRegistry() *Registry {
	return &Registry{
		metas:             make(map[reflect.Type]*ClassMeta),
		beans:             make(map[reflect.Type]BeanBuilder),
		swaps:             defaultSwaps(),
		collectionFormats: make(map[reflect.Type]CollectionFormat),
		object:            &ClassMeta{kind: KindObject, name: "Object"},
		null:              &ClassMeta{kind: KindNull, name: "null"},
	}
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func (registry *Registry) checkUnresolved(t reflect.Type) error {
	if _, resolved := registry.metas[t]; resolved {
		return spanerrors.ConfigurationError.Newf(
			"type %v was already resolved and can no longer be registered", t,
		)
	}
	return nil
}

// RegisterBean declares how the struct type t is exposed.
func (registry *Registry) RegisterBean(t reflect.Type, bean BeanBuilder) error {
	t = baseType(t)
	if t == nil || t.Kind() != reflect.Struct {
		return spanerrors.ConfigurationError.Newf("bean type %v is not a struct", t)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if err := registry.checkUnresolved(t); err != nil {
		return err
	}

	names := make(map[string]bool, len(bean.properties))
	for _, property := range bean.properties {
		field, ok := t.FieldByName(property.field)
		if !ok || !field.IsExported() {
			return spanerrors.ConfigurationError.Newf(
				"bean type %v has no exported field %q", t, property.field,
			)
		}
		name := property.name
		if name == "" {
			name = decapitalize(property.field)
		}
		if names[name] {
			return spanerrors.ConfigurationError.Newf(
				"bean type %v declares property %q twice", t, name,
			)
		}
		names[name] = true
	}

	registry.beans[t] = bean
	return nil
}

// RegisterSwap installs a swap for t, replacing any default swap.
func (registry *Registry) RegisterSwap(t reflect.Type, swap Swap) error {
	t = baseType(t)

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if err := registry.checkUnresolved(t); err != nil {
		return err
	}
	registry.swaps[t] = swap
	return nil
}

// RegisterCollectionFormat sets the collection format used for values of the slice or
// array type t.
func (registry *Registry) RegisterCollectionFormat(
	t reflect.Type, format CollectionFormat,
) error {
	t = baseType(t)
	if t == nil || (t.Kind() != reflect.Slice && t.Kind() != reflect.Array) {
		return spanerrors.ConfigurationError.Newf(
			"collection format registered for non-collection type %v", t,
		)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if err := registry.checkUnresolved(t); err != nil {
		return err
	}
	registry.collectionFormats[t] = format
	return nil
}

func (registry *Registry) Object() *ClassMeta {
	return registry.object
}

// Null is the ClassMeta of nil values.
func (registry *Registry) Null() *ClassMeta {
	return registry.null
}

func (registry *Registry) ClassMetaForObject(value interface{}) *ClassMeta {
	if value == nil {
		return registry.null
	}
	return registry.ClassMetaFor(reflect.TypeOf(value))
}

// ClassMetaFor returns the ClassMeta of t. Pointer types share the ClassMeta of the
// type they point to.
func (registry *Registry) ClassMetaFor(t reflect.Type) *ClassMeta {
	t = baseType(t)
	if t == nil {
		return registry.object
	}

	registry.mu.RLock()
	meta, ok := registry.metas[t]
	registry.mu.RUnlock()
	if ok {
		return meta
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.resolveLocked(t)
}

// The ClassMeta is stored before it is filled so that recursive types resolve to
// themselves.
func (registry *Registry) resolveLocked(t reflect.Type) *ClassMeta {
	t = baseType(t)
	if t == nil {
		return registry.object
	}
	if meta, ok := registry.metas[t]; ok {
		return meta
	}

	meta := &ClassMeta{
		typ:              t,
		name:             typeName(t),
		collectionFormat: registry.collectionFormats[t],
	}
	registry.metas[t] = meta

	bean, registered := registry.beans[t]
	if registered {
		if bean.typeName != "" {
			meta.name = bean.typeName
		}
		meta.elementName = bean.elementName
		meta.namespace = bean.namespace
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		meta.primitive = true
	}

	switch {
	case t.Implements(delegateType) || reflect.PtrTo(t).Implements(delegateType):
		meta.kind = KindDelegate
	case t == uriType || t == urlType:
		meta.kind = KindURI
	case t == charType:
		meta.kind = KindChar
	case t == objectMapType:
		meta.kind = KindMap
		meta.keyType = registry.resolveLocked(stringType)
		meta.valueType = registry.object
	default:
		registry.fillByReflectKind(meta, t, bean, registered)
	}

	if swap, ok := registry.swaps[t]; ok {
		meta.swap = swap
		meta.swapped = registry.resolveLocked(swap.SwapType())
	}

	return meta
}

func (registry *Registry) fillByReflectKind(
	meta *ClassMeta, t reflect.Type, bean BeanBuilder, registered bool,
) {
	switch t.Kind() {
	case reflect.String:
		meta.kind = KindString
	case reflect.Bool:
		meta.kind = KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		meta.kind = KindNumber
	case reflect.Float32, reflect.Float64:
		meta.kind = KindNumber
		meta.decimal = true
	case reflect.Map:
		meta.kind = KindMap
		meta.keyType = registry.resolveLocked(t.Key())
		meta.valueType = registry.resolveLocked(t.Elem())
	case reflect.Slice:
		meta.kind = KindCollection
		meta.elementType = registry.resolveLocked(t.Elem())
	case reflect.Array:
		meta.kind = KindArray
		meta.elementType = registry.resolveLocked(t.Elem())
	case reflect.Struct:
		meta.kind = KindBean
		if _, swapped := registry.swaps[t]; swapped {
			return
		}
		if registered && len(bean.properties) > 0 {
			registry.describeRegistered(meta, t, bean)
		} else {
			registry.describeFields(meta, t)
		}
	default:
		meta.kind = KindObject
	}
}

func (registry *Registry) addProperty(meta *ClassMeta, property *BeanPropertyMeta) {
	if meta.propertyIndex == nil {
		meta.propertyIndex = make(map[string]*BeanPropertyMeta)
	}
	property.bean = meta
	property.resolver = registry
	meta.properties = append(meta.properties, property)
	meta.propertyIndex[property.name] = property
}

func (registry *Registry) describeRegistered(
	meta *ClassMeta, t reflect.Type, bean BeanBuilder,
) {
	for _, builder := range bean.properties {
		// Fields were checked by RegisterBean.
		field, _ := t.FieldByName(builder.field)
		name := builder.name
		if name == "" {
			name = decapitalize(builder.field)
		}
		registry.addProperty(meta, &BeanPropertyMeta{
			name:             name,
			namespace:        builder.namespace,
			format:           builder.format,
			childName:        builder.childName,
			beanURI:          builder.beanURI,
			uri:              builder.uri,
			collectionFormat: builder.collectionFormat,
			index:            field.Index,
			fieldType:        field.Type,
		})
	}
}

func (registry *Registry) describeFields(meta *ClassMeta, t reflect.Type) {
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && baseType(field.Type).Kind() == reflect.Struct {
			continue
		}

		property := &BeanPropertyMeta{
			name:      decapitalize(field.Name),
			index:     field.Index,
			fieldType: field.Type,
		}
		if !applyTag(property, field.Tag.Get("span")) {
			continue
		}
		if _, exists := meta.propertyIndex[property.name]; exists {
			continue
		}
		registry.addProperty(meta, property)
	}
}

// applyTag reads a "span" struct tag into property. Returns false when the field is
// excluded.
func applyTag(property *BeanPropertyMeta, tag string) bool {
	if tag == "-" {
		return false
	}
	if tag == "" {
		return true
	}

	options := strings.Split(tag, ",")
	if name := strings.TrimSpace(options[0]); name != "" {
		property.name = name
	}
	for _, option := range options[1:] {
		option = strings.TrimSpace(option)
		switch {
		case option == "attr":
			property.format = FormatAttribute
		case option == "collapsed":
			property.format = FormatCollapsed
		case option == "content":
			property.format = FormatContent
		case option == "beanuri":
			property.beanURI = true
		case option == "uri":
			property.uri = true
		case option == "seq":
			property.collectionFormat = CollectionSeq
		case option == "bag":
			property.collectionFormat = CollectionBag
		case option == "list":
			property.collectionFormat = CollectionList
		case option == "multi":
			property.collectionFormat = CollectionMultiValued
		case strings.HasPrefix(option, "child="):
			property.childName = strings.TrimPrefix(option, "child=")
		}
	}
	return true
}
