package xmldoc_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/xmldoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Contact struct {
	ID     string `span:"id,beanuri"`
	Name   string `span:"name,attr"`
	Email  string
	Phones []string `span:"phones,collapsed,child=phone"`
	Note   *string
}

type Note struct {
	Lang string `span:"lang,attr"`
	Body string `span:"body,content"`
}

type Tagged struct {
	Tags []string `span:"tags,multi"`
}

type Address struct {
	City   string
	Street string
}

type Counter struct {
	Count int
}

func serialize(
	test *testing.T,
	config serializer.Config,
	resolver classmeta.Resolver,
	value interface{},
) string {
	buffer := &bytes.Buffer{}
	err := xmldoc.NewSerializer(config, resolver, nil).Serialize(buffer, value)
	require.NoError(test, err)
	return buffer.String()
}

func TestSerializeBean(test *testing.T) {
	assert := assert.New(test)
	registry := classmeta.NewRegistry()
	config := serializer.DefaultConfig()

	contact := &Contact{ID: "c1", Name: "Ann", Email: "a@x.io", Phones: []string{"1", "2"}}
	document := serialize(test, config, registry, contact)

	assert.Equal(
		`<object xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" id="c1" name="Ann">`+
			`<email>a@x.io</email><phone>1</phone><phone>2</phone>`+
			`<note xsi:nil="true"/></object>`,
		document,
	)

	loaded := Contact{}
	err := xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal(*contact, loaded)
}

func TestSerializeIndentedWithDefaultNamespace(test *testing.T) {
	namespace := classmeta.NewNamespace("ab", "http://example.com/ab/")
	config := serializer.DefaultConfig().
		WithEnableNamespaces(true).
		WithDefaultNamespace(namespace).
		WithIndentation(true).
		WithXMLDeclaration(true)

	document := serialize(
		test, config, classmeta.NewRegistry(), map[string]interface{}{"b": "x", "a": 1},
	)

	assert.Equal(test, `<?xml version="1.0" encoding="UTF-8"?>
<object xmlns="http://example.com/ab/">
	<a>1</a>
	<b>x</b>
</object>
`, document)
}

func TestSerializeRegisteredBeanNamespaces(test *testing.T) {
	assert := assert.New(test)

	namespace := classmeta.NewNamespace("ab", "http://example.com/ab/")
	registry := classmeta.NewRegistry()
	err := registry.RegisterBean(
		reflect.TypeOf(Address{}),
		classmeta.NewBean().
			ElementName("address").
			InNamespace(namespace).
			Property(classmeta.NewProperty("City").AsAttribute()).
			Property(classmeta.NewProperty("Street")),
	)
	require.NoError(test, err)

	config := serializer.DefaultConfig().WithEnableNamespaces(true)
	address := Address{City: "Oslo", Street: "Main"}
	document := serialize(test, config, registry, address)

	assert.Equal(
		`<ab:address xmlns:ab="http://example.com/ab/" city="Oslo">`+
			`<ab:street>Main</ab:street></ab:address>`,
		document,
	)

	loaded := Address{}
	err = xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal(address, loaded)

	// Without namespaces enabled no prefixes are written.
	document = serialize(test, serializer.DefaultConfig(), registry, address)
	assert.Equal(`<address city="Oslo"><street>Main</street></address>`, document)
}

func TestSerializeTypeAttrsRoundTrip(test *testing.T) {
	assert := assert.New(test)
	registry := classmeta.NewRegistry()
	config := serializer.DefaultConfig().WithAddTypeAttrs(true)

	document := serialize(test, config, registry, []interface{}{1, "x", true, nil})
	assert.Equal(
		`<array xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" type="array">`+
			`<number type="number">1</number>`+
			`<string type="string">x</string>`+
			`<boolean type="boolean">true</boolean>`+
			`<null type="null" xsi:nil="true"/></array>`,
		document,
	)

	var loaded interface{}
	err := xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal([]interface{}{int64(1), "x", true, nil}, loaded)
}

func TestSerializeContentProperty(test *testing.T) {
	assert := assert.New(test)
	registry := classmeta.NewRegistry()
	config := serializer.DefaultConfig()

	note := Note{Lang: "en", Body: "a < b"}
	document := serialize(test, config, registry, note)
	assert.Equal(`<object lang="en">a &lt; b</object>`, document)

	loaded := Note{}
	err := xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal(note, loaded)
}

func TestSerializeMultiValuedProperty(test *testing.T) {
	assert := assert.New(test)
	registry := classmeta.NewRegistry()
	config := serializer.DefaultConfig()

	document := serialize(test, config, registry, Tagged{Tags: []string{"a", "b"}})
	assert.Equal(`<object><tags>a</tags><tags>b</tags></object>`, document)

	loaded := Tagged{}
	err := xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal([]string{"a", "b"}, loaded.Tags)

	single := Tagged{}
	err = xmldoc.NewParser(config, registry).Parse(
		strings.NewReader(`<object><tags>only</tags></object>`), &single,
	)
	require.NoError(test, err)
	assert.Equal([]string{"only"}, single.Tags)
}

func TestSerializeEncodesNames(test *testing.T) {
	assert := assert.New(test)
	registry := classmeta.NewRegistry()
	config := serializer.DefaultConfig()

	document := serialize(test, config, registry, map[string]string{"first name": "Ann"})
	assert.Equal(`<object><first_x0020_name>Ann</first_x0020_name></object>`, document)

	loaded := map[string]string{}
	err := xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &loaded)
	require.NoError(test, err)
	assert.Equal(map[string]string{"first name": "Ann"}, loaded)

	document = serialize(test, config, registry, map[string]int{"a😀": 1})
	assert.Equal(`<object><a_xD83D__xDE00_>1</a_xD83D__xDE00_></object>`, document)

	counts := map[string]int{}
	err = xmldoc.NewParser(config, registry).Parse(strings.NewReader(document), &counts)
	require.NoError(test, err)
	assert.Equal(map[string]int{"a😀": 1}, counts)
}

func TestSerializeRecursionError(test *testing.T) {
	assert := assert.New(test)

	values := map[string]interface{}{}
	values["self"] = values

	buffer := &bytes.Buffer{}
	err := xmldoc.NewSerializer(
		serializer.DefaultConfig(), classmeta.NewRegistry(), nil,
	).Serialize(buffer, values)

	assert.ErrorIs(err, spanerrors.RecursionError)
	assert.Equal(0, buffer.Len())

	config := serializer.DefaultConfig().WithRecursion(serializer.RecursionOmit)
	xmlSerializer := xmldoc.NewSerializer(config, classmeta.NewRegistry(), nil)
	session := xmlSerializer.NewSession()
	err = xmlSerializer.SerializeSession(session, buffer, values)

	assert.NoError(err)
	assert.Equal(1, session.Omitted())
	assert.Contains(buffer.String(), `<self xsi:nil="true"/>`)
}

func TestParseErrors(test *testing.T) {
	assert := assert.New(test)
	parser := xmldoc.NewParser(serializer.DefaultConfig(), classmeta.NewRegistry())

	counter := Counter{}
	assert.ErrorIs(
		parser.Parse(strings.NewReader("<object><count>"), &counter),
		spanerrors.ParseError,
	)
	assert.ErrorIs(parser.Parse(strings.NewReader(""), &counter), spanerrors.ParseError)
	assert.ErrorIs(
		parser.Parse(strings.NewReader("<object/>"), counter), spanerrors.ParseError,
	)

	err := parser.Parse(
		strings.NewReader("<object><count>many</count></object>"), &counter,
	)
	assert.ErrorIs(err, spanerrors.ParseError)
	spanErr, ok := spanerrors.AsSpanError(err)
	require.True(test, ok)
	assert.Equal("count", spanErr.Property)
	assert.Equal("int", spanErr.TypeName)
}

func TestParseInfersGenericValues(test *testing.T) {
	assert := assert.New(test)
	parser := xmldoc.NewParser(serializer.DefaultConfig(), classmeta.NewRegistry())

	var loaded interface{}
	err := parser.Parse(strings.NewReader(
		`<object><name>Ann</name><pets><pet>a</pet><pet>b</pet></pets></object>`,
	), &loaded)
	require.NoError(test, err)

	assert.Equal(map[string]interface{}{
		"name": "Ann",
		"pets": []interface{}{"a", "b"},
	}, loaded)
}
