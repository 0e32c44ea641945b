package spantypes_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestObjectMapOrder(test *testing.T) {
	assert := assert.New(test)

	objectMap := spantypes.NewObjectMap().Put("b", 1).Put("a", 2).Put("c", 3)
	objectMap.Put("b", 4)

	assert.Equal([]string{"b", "a", "c"}, objectMap.Keys())
	assert.Equal(3, objectMap.Len())

	value, ok := objectMap.Get("b")
	assert.True(ok)
	assert.Equal(4, value)

	objectMap.Delete("a")
	objectMap.Delete("missing")
	assert.Equal([]string{"b", "c"}, objectMap.Keys())

	_, ok = objectMap.Get("a")
	assert.False(ok)

	keys := objectMap.Keys()
	keys[0] = "changed"
	assert.Equal([]string{"b", "c"}, objectMap.Keys())
}

func TestObjectMapZeroValue(test *testing.T) {
	assert := assert.New(test)

	var objectMap spantypes.ObjectMap
	_, ok := objectMap.Get("x")
	assert.False(ok)
	assert.Equal(0, objectMap.Len())

	objectMap.Put("x", nil)
	value, ok := objectMap.Get("x")
	assert.True(ok)
	assert.Nil(value)
}

func TestChar(test *testing.T) {
	assert.Equal(test, "é", spantypes.Char('é').String())
}

func TestObjectMapJSON(test *testing.T) {
	assert := assert.New(test)

	nested := spantypes.NewObjectMap().Put("z", true)
	objectMap := spantypes.NewObjectMap().Put("b", 1).Put("a", "x").Put("c", nested)

	encoded, err := json.Marshal(objectMap)
	require.NoError(test, err)
	assert.Equal(`{"b":1,"a":"x","c":{"z":true}}`, string(encoded))

	loaded := spantypes.ObjectMap{}
	require.NoError(test, json.Unmarshal([]byte(`{"y":[1,2],"x":null}`), &loaded))
	assert.Equal([]string{"y", "x"}, loaded.Keys())
	value, _ := loaded.Get("y")
	assert.Equal([]interface{}{1.0, 2.0}, value)

	assert.Error(json.Unmarshal([]byte(`[1]`), &loaded))
}

func TestObjectMapYAML(test *testing.T) {
	assert := assert.New(test)

	objectMap := spantypes.NewObjectMap().Put("b", 1).Put("a", "x")

	encoded, err := yaml.Marshal(objectMap)
	require.NoError(test, err)
	assert.Equal("b: 1\na: x\n", string(encoded))

	loaded := spantypes.ObjectMap{}
	require.NoError(test, yaml.Unmarshal([]byte("y: 1\nx: two\n"), &loaded))
	assert.Equal([]string{"y", "x"}, loaded.Keys())
	value, _ := loaded.Get("x")
	assert.Equal("two", value)
}
