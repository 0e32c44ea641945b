package spantypes

/*
ObjectMap is a string-keyed map that remembers insertion order. Built-in Go maps have no
stable iteration order, so serializers always sort their keys. ObjectMap entries are
emitted in the order they were first Put unless map sorting is enabled.

The zero value is ready to use.
*/
type ObjectMap struct {
	keys   []string
	values map[string]interface{}
}

// NewObjectMap returns an empty ObjectMap.
func NewObjectMap() *ObjectMap {
	return &ObjectMap{}
}

// Put stores value under key. Re-putting an existing key keeps its original position.
func (objectMap *ObjectMap) Put(key string, value interface{}) *ObjectMap {
	if objectMap.values == nil {
		objectMap.values = make(map[string]interface{})
	}
	if _, exists := objectMap.values[key]; !exists {
		objectMap.keys = append(objectMap.keys, key)
	}
	objectMap.values[key] = value
	return objectMap
}

// Get returns the value stored under key.
func (objectMap *ObjectMap) Get(key string) (value interface{}, ok bool) {
	value, ok = objectMap.values[key]
	return value, ok
}

// Delete removes key from the map.
func (objectMap *ObjectMap) Delete(key string) {
	if _, exists := objectMap.values[key]; !exists {
		return
	}
	delete(objectMap.values, key)
	for index, existing := range objectMap.keys {
		if existing == key {
			objectMap.keys = append(objectMap.keys[:index], objectMap.keys[index+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (objectMap *ObjectMap) Keys() []string {
	keys := make([]string, len(objectMap.keys))
	copy(keys, objectMap.keys)
	return keys
}

// Len returns the number of entries.
func (objectMap *ObjectMap) Len() int {
	return len(objectMap.keys)
}
