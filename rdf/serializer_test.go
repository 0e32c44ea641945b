package rdf_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/rdf"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	propNS = "http://illuscio.com/spanmarshal/property/"
	coreNS = "http://illuscio.com/spanmarshal/"
)

type Tagged struct {
	Tags []string `span:"tags,multi"`
}

type Doc struct {
	ID     string `span:"id,beanuri"`
	Link   string `span:"link,uri"`
	Parent *Doc
}

type Address struct {
	City string
}

func write(
	test *testing.T,
	config serializer.Config,
	resolver classmeta.Resolver,
	language rdf.Language,
	value interface{},
) string {
	buffer := &bytes.Buffer{}
	err := rdf.NewSerializer(config, resolver, nil, language).Serialize(buffer, value)
	require.NoError(test, err)
	return buffer.String()
}

func build(test *testing.T, config serializer.Config, value interface{}) *rdf.Model {
	rdfSerializer := rdf.NewSerializer(config, classmeta.NewRegistry(), nil, rdf.NTriples)
	model, err := rdfSerializer.Build(rdfSerializer.NewSession(), value)
	require.NoError(test, err)
	return model
}

func TestMultiValuedRepeatsPredicate(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig()
	value := Tagged{Tags: []string{"a", "b", "c"}}

	assert.Equal(
		`_:b1 <`+propNS+`tags> "a" .`+"\n"+
			`_:b1 <`+propNS+`tags> "b" .`+"\n"+
			`_:b1 <`+propNS+`tags> "c" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.NTriples, value),
	)

	assert.Equal(
		"@prefix smp: <"+propNS+"> .\n"+
			"\n"+
			`_:b1 smp:tags "a" ;`+"\n"+
			`    smp:tags "b" ;`+"\n"+
			`    smp:tags "c" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.Turtle, value),
	)

	// The session wide format applies to properties without their own format.
	untagged := map[string][]string{"tags": {"a", "b", "c"}}
	model := build(
		test,
		config.WithCollectionFormat(classmeta.CollectionMultiValued),
		untagged,
	)
	assert.Len(model.Objects(rdf.Blank("b1"), rdf.IRI(propNS+"tags")), 3)
}

func TestSeqAndBag(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig()
	assert.Equal(
		`_:b1 <`+rdfNS+`type> <`+rdfNS+`Seq> .`+"\n"+
			`_:b1 <`+rdfNS+`_1> "x" .`+"\n"+
			`_:b1 <`+rdfNS+`_2> "y" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.NTriples, []string{"x", "y"}),
	)

	assert.Equal(
		"@prefix rdf: <"+rdfNS+"> .\n"+
			"\n"+
			`_:b1 a rdf:Seq ;`+"\n"+
			`    rdf:_1 "x" ;`+"\n"+
			`    rdf:_2 "y" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.Turtle, []string{"x", "y"}),
	)

	model := build(test, config.WithCollectionFormat(classmeta.CollectionBag), []int{1})
	assert.Equal(
		[]rdf.Term{rdf.RDFBag}, model.Objects(rdf.Blank("b1"), rdf.RDFType),
	)
}

func TestList(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig().WithCollectionFormat(classmeta.CollectionList)
	model := build(test, config, []int{1, 2})

	first, second := rdf.Blank("b1"), rdf.Blank("b2")
	assert.Equal([]rdf.Term{rdf.Literal("1")}, model.Objects(first, rdf.RDFFirst))
	assert.Equal([]rdf.Term{second}, model.Objects(first, rdf.RDFRest))
	assert.Equal([]rdf.Term{rdf.Literal("2")}, model.Objects(second, rdf.RDFFirst))
	assert.Equal([]rdf.Term{rdf.RDFNil}, model.Objects(second, rdf.RDFRest))

	// An empty list is rdf:nil itself.
	empty := build(test, config, map[string][]int{"items": {}})
	assert.Equal(
		[]rdf.Term{rdf.RDFNil}, empty.Objects(rdf.Blank("b1"), rdf.IRI(propNS+"items")),
	)
}

func TestLiteralRootTypedAndMarked(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig().
		WithAddLiteralTypes(true).
		WithAddRootProperty(true)

	assert.Equal(
		`_:b1 <`+coreNS+`value> "5"^^<http://www.w3.org/2001/XMLSchema#long> .`+"\n"+
			`_:b1 <`+coreNS+`root> "true" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.NTriples, 5),
	)

	assert.Equal(
		"@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n"+
			"@prefix sm: <"+coreNS+"> .\n"+
			"\n"+
			`_:b1 sm:value "5"^^xsd:long ;`+"\n"+
			`    sm:root "true" .`+"\n",
		write(test, config, classmeta.NewRegistry(), rdf.Turtle, 5),
	)

	model := build(test, config, map[string]interface{}{"ok": true, "ratio": float32(0.5)})
	assert.Equal(
		[]rdf.Term{rdf.TypedLiteral("true", "http://www.w3.org/2001/XMLSchema#boolean")},
		model.Objects(rdf.Blank("b1"), rdf.IRI(propNS+"ok")),
	)
	assert.Equal(
		[]rdf.Term{rdf.TypedLiteral("0.5", "http://www.w3.org/2001/XMLSchema#float")},
		model.Objects(rdf.Blank("b1"), rdf.IRI(propNS+"ratio")),
	)
}

func TestBeanURIsAndNull(test *testing.T) {
	document := Doc{ID: "http://x/d1", Link: "http://x/l"}

	assert.Equal(
		test,
		`<http://x/d1> <`+propNS+`link> <http://x/l> .`+"\n"+
			`<http://x/d1> <`+propNS+`parent> <`+rdfNS+`nil> .`+"\n",
		write(test, serializer.DefaultConfig(), classmeta.NewRegistry(), rdf.NTriples, document),
	)
}

func TestLooseCollections(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig().WithLooseCollections(true)
	model := build(test, config, []map[string]int{{"a": 1}, {"b": 2}})

	assert.Equal(2, model.Len())
	assert.Equal(
		[]rdf.Term{rdf.Literal("1")}, model.Objects(rdf.Blank("b1"), rdf.IRI(propNS+"a")),
	)
	assert.Equal(
		[]rdf.Term{rdf.Literal("2")}, model.Objects(rdf.Blank("b2"), rdf.IRI(propNS+"b")),
	)
}

func TestLooseCollectionsNilRoot(test *testing.T) {
	config := serializer.DefaultConfig().
		WithLooseCollections(true).
		WithAddRootProperty(true)

	model := build(test, config, (*[]int)(nil))
	assert.Equal(
		test,
		[]rdf.Term{rdf.Literal("true")},
		model.Objects(rdf.RDFNil, rdf.IRI(coreNS+"root")),
	)
}

func TestLooseCollectionsSkipSwappedArrays(test *testing.T) {
	assert := assert.New(test)

	config := serializer.DefaultConfig().
		WithLooseCollections(true).
		WithAddRootProperty(true)

	value := uuid.NewV4()
	model := build(test, config, value)
	assert.Equal(
		[]rdf.Term{rdf.Literal("true")},
		model.Objects(rdf.IRI("urn:uuid:"+value.String()), rdf.IRI(coreNS+"root")),
	)

	model = build(test, config, spantypes.BinData("hi"))
	assert.Equal(2, model.Len())
	assert.Equal(
		[]rdf.Term{rdf.Literal("6869")}, model.Objects(rdf.Blank("b1"), rdf.IRI(coreNS+"value")),
	)
}

func TestPredicateNamespaces(test *testing.T) {
	assert := assert.New(test)

	namespace := classmeta.NewNamespace("ab", "http://example.com/ab/")
	registry := classmeta.NewRegistry()
	err := registry.RegisterBean(
		reflect.TypeOf(Address{}), classmeta.NewBean().InNamespace(namespace),
	)
	require.NoError(test, err)

	address := Address{City: "Oslo"}
	assert.Equal(
		`_:b1 <`+propNS+`city> "Oslo" .`+"\n",
		write(test, serializer.DefaultConfig(), registry, rdf.NTriples, address),
	)

	config := serializer.DefaultConfig().WithEnableNamespaces(true)
	assert.Equal(
		"@prefix ab: <http://example.com/ab/> .\n\n"+`_:b1 ab:city "Oslo" .`+"\n",
		write(test, config, registry, rdf.Turtle, address),
	)
}

func TestRecursion(test *testing.T) {
	assert := assert.New(test)

	document := &Doc{ID: "http://x/d1", Link: "http://x/l"}
	document.Parent = document

	buffer := &bytes.Buffer{}
	rdfSerializer := rdf.NewSerializer(
		serializer.DefaultConfig(), classmeta.NewRegistry(), nil, rdf.NTriples,
	)
	assert.ErrorIs(rdfSerializer.Serialize(buffer, document), spanerrors.RecursionError)

	config := serializer.DefaultConfig().WithRecursion(serializer.RecursionOmit)
	rdfSerializer = rdf.NewSerializer(config, classmeta.NewRegistry(), nil, rdf.NTriples)
	session := rdfSerializer.NewSession()
	assert.NoError(rdfSerializer.SerializeSession(session, buffer, document))
	assert.Equal(1, session.Omitted())
	assert.Contains(buffer.String(), `<`+propNS+`parent> <`+rdfNS+`nil> .`)
}

func TestParseLanguage(test *testing.T) {
	assert := assert.New(test)

	for name, expected := range map[string]rdf.Language{
		"N-TRIPLES": rdf.NTriples,
		"ntriple":   rdf.NTriples,
		"nt":        rdf.NTriples,
		"Turtle":    rdf.Turtle,
		"ttl":       rdf.Turtle,
	} {
		language, err := rdf.ParseLanguage(name)
		assert.NoError(err)
		assert.Equal(expected, language, name)
	}

	_, err := rdf.ParseLanguage("rdf/xml")
	assert.ErrorIs(err, spanerrors.ConfigurationError)
	assert.Equal("TURTLE", rdf.Turtle.String())
	assert.Equal("N-TRIPLE", rdf.NTriples.String())
}
