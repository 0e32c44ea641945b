package serializer

import (
	"reflect"
	"sort"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
)

// RootName is the frame name of the value handed to Walker.Serialize.
const RootName = "root"

// Slot is the position a value is written to inside its parent composite.
type Slot struct {
	Parent Node
	Member Member
}

// Walker traverses a value graph and drives an Emitter.
type Walker struct {
	session *Session
	emitter Emitter
}

// NewWalker returns a walker writing through emitter. The session holds the
// configuration and the recursion state.
func NewWalker(session *Session, emitter Emitter) *Walker {
	return &Walker{
		session: session,
		emitter: emitter,
	}
}

func (walker *Walker) Session() *Session {
	return walker.session
}

// Serialize writes value as the root of a document. expected may be nil.
func (walker *Walker) Serialize(
	value interface{}, expected *classmeta.ClassMeta,
) (Node, error) {
	return walker.SerializeAnything(value, expected, RootName, false, nil)
}

/*
SerializeAnything writes one value and returns the emitter's node for it.

isURI forces the value to be written as a resource reference. slot is the position in
the parent and may be nil; a nil node with a nil error means nothing was written, which
happens for trimmed nulls and for multi-valued collections, whose items are added to the
slot's parent directly.
*/
func (walker *Walker) SerializeAnything(
	value interface{},
	expected *classmeta.ClassMeta,
	name string,
	isURI bool,
	slot *Slot,
) (Node, error) {
	return walker.serialize(name, -1, value, expected, isURI, slot)
}

func (walker *Walker) serialize(
	name string,
	index int,
	value interface{},
	expected *classmeta.ClassMeta,
	isURI bool,
	slot *Slot,
) (Node, error) {
	session := walker.session
	resolver := session.resolver

	actual, err := session.push(name, index, value, expected)
	defer session.Pop()
	if err != nil {
		return nil, err
	}

	frame := session.Current()
	expected = frame.Expected

	var serialized *classmeta.ClassMeta
	if actual == nil || isNil(value) {
		value = nil
		serialized = expected.SerializedClassMeta()
	} else {
		if actual.IsDelegate() {
			if delegate, ok := asDelegate(value); ok {
				frame.Wrapped = actual
				value = delegate.Delegated()
				actual = resolver.ClassMetaForObject(value)
			}
		}
		value = indirect(value)
		serialized = actual.SerializedClassMeta()

		if swap := actual.Swap(); swap != nil && value != nil {
			value, err = swap.Swap(value)
			if err != nil {
				return nil, walker.wrap(frame, err, "swap "+classmeta.SwapName(swap)+" failed")
			}
			value = indirect(value)
			if serialized.IsObject() {
				serialized = resolver.ClassMetaForObject(value)
			}
		}
	}
	frame.Serialized = serialized

	if value == nil || (serialized.IsChar() && value == spantypes.Char(0)) {
		if slot != nil && slot.Member.Property != nil && session.config.TrimNulls {
			return nil, nil
		}
		node, err := walker.emitter.EmitNull(frame)
		return node, walker.wrap(frame, err, "error writing null")
	}

	switch {
	case isURI || serialized.IsURI():
		node, err := walker.emitter.EmitLeafRef(frame, ToString(value))
		return node, walker.wrap(frame, err, "error writing uri")

	case serialized.IsString() || serialized.IsChar():
		node, err := walker.emitter.EmitScalar(frame, ToString(value), serialized.Kind())
		return node, walker.wrap(frame, err, "error writing text")

	case serialized.IsNumber() || serialized.IsBoolean():
		node, err := walker.emitter.EmitScalar(frame, basicValue(value), serialized.Kind())
		return node, walker.wrap(frame, err, "error writing value")

	case serialized.IsMap():
		return walker.serializeMap(frame, value, serialized)

	case serialized.IsBean():
		return walker.serializeBean(frame, value, serialized)

	case serialized.IsCollectionOrArray():
		return walker.serializeCollection(frame, value, serialized, slot)
	}

	node, err := walker.emitter.EmitScalar(frame, ToString(value), classmeta.KindString)
	return node, walker.wrap(frame, err, "error writing text")
}

func (walker *Walker) serializeMap(
	frame *Frame, value interface{}, serialized *classmeta.ClassMeta,
) (Node, error) {
	entries, err := walker.mapEntries(value, serialized)
	if err != nil {
		swapName := classmeta.SwapName(serialized.KeyType().Swap())
		return nil, walker.wrap(frame, err, "swap "+swapName+" failed for map key")
	}

	node, err := walker.emitter.EmitOpenComposite(
		frame, Composite{Shape: ShapeMap, Size: len(entries)},
	)
	if err != nil {
		return nil, walker.wrap(frame, err, "error opening map")
	}

	valueType := serialized.ValueType()
	for _, entry := range entries {
		member := Member{Name: entry.key, Index: -1}
		child, err := walker.serialize(
			entry.key, -1, entry.value, valueType, false, &Slot{Parent: node, Member: member},
		)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := walker.emitter.EmitMember(node, member, child); err != nil {
			return nil, walker.wrap(frame, err, "error writing map entry "+entry.key)
		}
	}

	node, err = walker.emitter.EmitCloseComposite(frame, node)
	return node, walker.wrap(frame, err, "error closing map")
}

func (walker *Walker) serializeBean(
	frame *Frame, value interface{}, serialized *classmeta.ClassMeta,
) (Node, error) {
	config := walker.session.config

	var id string
	if uriProperty := serialized.BeanURIProperty(); uriProperty != nil {
		if raw, ok := uriProperty.Get(value); ok && !isNil(raw) {
			id = ToString(indirect(raw))
		}
	}

	properties := serialized.Properties()
	node, err := walker.emitter.EmitOpenComposite(
		frame, Composite{Shape: ShapeBean, ID: id, Size: len(properties)},
	)
	if err != nil {
		return nil, walker.wrap(frame, err, "error opening bean")
	}

	for _, property := range properties {
		if property.IsBeanURI() {
			continue
		}

		propertyValue, ok := property.Get(value)
		if !ok {
			propertyValue = nil
		}
		propertyType := property.ClassMeta()
		if walker.canIgnore(propertyValue) {
			continue
		}

		member := Member{
			Name: property.Name(),
			Namespace: classmeta.FirstNamespace(
				property.Namespace(), serialized.Namespace(), config.DefaultNamespace,
			),
			Property: property,
			Index:    -1,
		}
		child, err := walker.serialize(
			property.Name(),
			-1,
			propertyValue,
			propertyType,
			property.IsURI(),
			&Slot{Parent: node, Member: member},
		)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := walker.emitter.EmitMember(node, member, child); err != nil {
			return nil, walker.wrap(frame, err, "error writing property "+property.Name())
		}
	}

	node, err = walker.emitter.EmitCloseComposite(frame, node)
	return node, walker.wrap(frame, err, "error closing bean")
}

func (walker *Walker) serializeCollection(
	frame *Frame, value interface{}, serialized *classmeta.ClassMeta, slot *Slot,
) (Node, error) {
	items := walker.collectionItems(value)
	elementType := serialized.ElementType()
	format := walker.collectionFormat(serialized, slot)

	if format == classmeta.CollectionMultiValued && slot != nil && slot.Parent != nil {
		for index, item := range items {
			member := slot.Member
			member.Index = index
			member.Repeated = true

			child, err := walker.serialize("", index, item, elementType, false, nil)
			if err != nil {
				return nil, err
			}
			if err := walker.emitter.EmitMember(slot.Parent, member, child); err != nil {
				return nil, walker.wrap(frame, err, "error writing multi-valued item")
			}
		}
		return nil, nil
	}

	shape := ShapeSeq
	switch format {
	case classmeta.CollectionBag:
		shape = ShapeBag
	case classmeta.CollectionList:
		shape = ShapeList
	}

	node, err := walker.emitter.EmitOpenComposite(
		frame, Composite{Shape: shape, Size: len(items)},
	)
	if err != nil {
		return nil, walker.wrap(frame, err, "error opening collection")
	}

	for index, item := range items {
		child, err := walker.serialize("", index, item, elementType, false, nil)
		if err != nil {
			return nil, err
		}
		member := Member{Index: index}
		if err := walker.emitter.EmitMember(node, member, child); err != nil {
			return nil, walker.wrap(frame, err, "error writing collection item")
		}
	}

	node, err = walker.emitter.EmitCloseComposite(frame, node)
	return node, walker.wrap(frame, err, "error closing collection")
}

func (walker *Walker) collectionFormat(
	serialized *classmeta.ClassMeta, slot *Slot,
) classmeta.CollectionFormat {
	var property *classmeta.BeanPropertyMeta
	if slot != nil {
		property = slot.Member.Property
	}
	return EffectiveCollectionFormat(walker.session.config, serialized, property)
}

// EffectiveCollectionFormat resolves the collection format of a collection type written
// at property, which may be nil. Precedence, weakest first: config, type, property.
func EffectiveCollectionFormat(
	config Config, collection *classmeta.ClassMeta, property *classmeta.BeanPropertyMeta,
) classmeta.CollectionFormat {
	format := config.CollectionFormat
	if collection != nil && collection.CollectionFormat() != classmeta.CollectionDefault {
		format = collection.CollectionFormat()
	}
	if property != nil && property.CollectionFormat() != classmeta.CollectionDefault {
		format = property.CollectionFormat()
	}
	if format == classmeta.CollectionDefault {
		format = classmeta.CollectionSeq
	}
	return format
}

type mapEntry struct {
	key   string
	value interface{}
}

func (walker *Walker) mapEntries(
	value interface{}, serialized *classmeta.ClassMeta,
) ([]mapEntry, error) {
	if objectMap, ok := value.(spantypes.ObjectMap); ok {
		keys := objectMap.Keys()
		if walker.session.config.SortMaps {
			sort.Strings(keys)
		}
		entries := make([]mapEntry, len(keys))
		for index, key := range keys {
			entryValue, _ := objectMap.Get(key)
			entries[index] = mapEntry{key: key, value: entryValue}
		}
		return entries, nil
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Map {
		return nil, nil
	}

	keyType := serialized.KeyType()
	entries := make([]mapEntry, 0, reflected.Len())
	iterator := reflected.MapRange()
	for iterator.Next() {
		key, err := keyString(iterator.Key().Interface(), keyType)
		if err != nil {
			return nil, err
		}
		entries = append(entries, mapEntry{key: key, value: iterator.Value().Interface()})
	}
	// Built-in maps have no stable order, so they are always sorted.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].key < entries[j].key
	})
	return entries, nil
}

func keyString(key interface{}, keyType *classmeta.ClassMeta) (string, error) {
	if keyType == nil || keyType.Swap() == nil {
		return ToString(indirect(key)), nil
	}
	swapped, err := keyType.Swap().Swap(indirect(key))
	if err != nil {
		return "", err
	}
	return ToString(swapped), nil
}

func (walker *Walker) collectionItems(value interface{}) []interface{} {
	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Slice && reflected.Kind() != reflect.Array {
		return nil
	}

	items := make([]interface{}, reflected.Len())
	for index := range items {
		items[index] = reflected.Index(index).Interface()
	}

	if walker.session.config.SortCollections {
		keys := make([]string, len(items))
		for index, item := range items {
			keys[index] = ToString(indirect(item))
		}
		order := make([]int, len(items))
		for index := range order {
			order[index] = index
		}
		sort.SliceStable(order, func(i, j int) bool {
			return keys[order[i]] < keys[order[j]]
		})
		sorted := make([]interface{}, len(items))
		for position, index := range order {
			sorted[position] = items[index]
		}
		items = sorted
	}
	return items
}

func (walker *Walker) canIgnore(value interface{}) bool {
	config := walker.session.config
	if isNil(value) {
		return config.TrimNulls
	}

	if objectMap, ok := indirect(value).(spantypes.ObjectMap); ok {
		return config.TrimEmptyMaps && objectMap.Len() == 0
	}

	reflected := reflect.ValueOf(indirect(value))
	switch reflected.Kind() {
	case reflect.Slice, reflect.Array:
		return config.TrimEmptyCollections && reflected.Len() == 0
	case reflect.Map:
		return config.TrimEmptyMaps && reflected.Len() == 0
	}
	return false
}

// wrap turns emitter and swap failures into span errors carrying the frame's
// location. Span errors pass through unchanged.
func (walker *Walker) wrap(frame *Frame, err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := spanerrors.AsSpanError(err); ok {
		return err
	}

	typeName := frame.Expected.Name()
	if frame.Serialized != nil {
		typeName = frame.Serialized.Name()
	}
	return spanerrors.SerializeError.New(message, err).
		WithPath(frame.Path()).
		WithLocation(frame.Label(), typeName)
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface,
		reflect.Func, reflect.Chan:
		return reflected.IsNil()
	}
	return false
}

// indirect follows pointers. A nil pointer becomes nil.
func indirect(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Ptr {
		return value
	}
	for reflected.Kind() == reflect.Ptr {
		if reflected.IsNil() {
			return nil
		}
		reflected = reflected.Elem()
	}
	return reflected.Interface()
}

// asDelegate also finds Delegated methods declared on the pointer receiver.
func asDelegate(value interface{}) (classmeta.Delegate, bool) {
	if delegate, ok := value.(classmeta.Delegate); ok {
		return delegate, true
	}
	reflected := reflect.ValueOf(value)
	pointer := reflect.New(reflected.Type())
	pointer.Elem().Set(reflected)
	delegate, ok := pointer.Interface().(classmeta.Delegate)
	return delegate, ok
}
