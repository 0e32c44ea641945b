package encoding_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BinReceiver struct {
	Data spantypes.BinData
}

type UUIDReceiver struct {
	Data uuid.UUID
}

func TestBSONListRoundTrip(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	names := []Name{{First: "Harry", Last: "Potter"}, {First: "Ron", Last: "Weasley"}}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.BSON, names, &buffer))
	assert.Equal(1, bytes.Count(buffer.Bytes(), encoding.BsonListSepBytes))

	var loaded []Name
	require.NoError(test, engine.Decode(mimetype.BSON, &loaded, &buffer))
	assert.Equal(names, loaded)
}

func TestBSONListMustBePointer(test *testing.T) {
	engine := createEngine(test)

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.BSON, []Name{{First: "a"}}, &buffer))

	err := engine.Decode(mimetype.BSON, []Name{}, &buffer)
	assert.Error(test, err)
}

func TestUUIDToBSON(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	data := UUIDReceiver{Data: uuid.NewV4()}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.BSON, &data, &buffer))

	subtype, raw := bson.Raw(buffer.Bytes()).Lookup("data").Binary()
	assert.Equal(byte(0x3), subtype)
	assert.Equal(data.Data.Bytes(), raw)

	loaded := UUIDReceiver{}
	require.NoError(test, engine.Decode(mimetype.BSON, &loaded, &buffer))
	assert.Equal(data.Data, loaded.Data)
}

func TestBinBlobToBSON(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	data := BinReceiver{Data: spantypes.BinData("Test Data.")}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.BSON, &data, &buffer))

	subtype, _ := bson.Raw(buffer.Bytes()).Lookup("data").Binary()
	assert.Equal(byte(0x0), subtype)

	loaded := BinReceiver{}
	require.NoError(test, engine.Decode(mimetype.BSON, &loaded, &buffer))
	assert.Equal(data, loaded)
}

func TestUnmarshalToBinDataWrongSubtype(test *testing.T) {
	engine := createEngine(test)

	document, err := bson.Marshal(bson.M{"data": primitive.Binary{Subtype: 0x4, Data: []byte{1}}})
	require.NoError(test, err)

	loaded := BinReceiver{}
	err = engine.Decode(mimetype.BSON, &loaded, bytes.NewBuffer(document))
	assert.Error(test, err)
}

func TestBinBlobToJson(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	data := map[string]interface{}{"Data": spantypes.BinData("hi")}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.JSON, &data, &buffer))
	assert.Equal(`{"Data":"6869"}`, buffer.String())

	loaded := BinReceiver{}
	require.NoError(test, engine.Decode(mimetype.JSON, &loaded, &buffer))
	assert.Equal(spantypes.BinData("hi"), loaded.Data)
}

func TestNonHexDecodeError(test *testing.T) {
	engine := createEngine(test)

	loaded := BinReceiver{}
	err := engine.Decode(mimetype.JSON, &loaded, bytes.NewBufferString(`{"Data":"zz"}`))
	assert.Error(test, err)
}

func TestBsonUUIDToJson(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	value := uuid.NewV4()
	data := map[string]interface{}{
		"Data": primitive.Binary{Subtype: 0x3, Data: value.Bytes()},
	}

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.JSON, &data, &buffer))
	assert.Contains(buffer.String(), value.String())

	loaded := UUIDReceiver{}
	require.NoError(test, engine.Decode(mimetype.JSON, &loaded, &buffer))
	assert.Equal(value, loaded.Data)
}

func TestBsonBinNotSupportedError(test *testing.T) {
	engine := createEngine(test)

	data := map[string]interface{}{"Data": primitive.Binary{Subtype: 0x80, Data: []byte{1}}}
	err := engine.Encode(mimetype.JSON, &data, &bytes.Buffer{})
	assert.Error(test, err)
}

func TestBSONRawToJson(test *testing.T) {
	engine := createEngine(test)

	document, err := bson.Marshal(bson.M{"first": "Harry"})
	require.NoError(test, err)
	raw := bson.Raw(document)

	buffer := bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.JSON, &raw, &buffer))
	assert.Equal(test, `{"first":"Harry"}`, buffer.String())
}

func TestObjectMapKeepsOrder(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	objectMap := spantypes.NewObjectMap().Put("b", "1").Put("a", "2")

	for _, mimeType := range []mimetype.MimeType{mimetype.JSON, mimetype.YAML, mimetype.BSON} {
		buffer := bytes.Buffer{}
		require.NoError(test, engine.Encode(mimeType, objectMap, &buffer), mimeType)

		loaded := spantypes.ObjectMap{}
		require.NoError(test, engine.Decode(mimeType, &loaded, &buffer), mimeType)
		assert.Equal([]string{"b", "a"}, loaded.Keys(), mimeType)

		value, _ := loaded.Get("a")
		assert.Equal("2", value, mimeType)
	}
}
