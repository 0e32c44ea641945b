package xmldoc_test

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/xmldoc"
	"github.com/stretchr/testify/assert"
)

func TestEscapeText(test *testing.T) {
	assert := assert.New(test)

	assert.Equal("plain", xmldoc.EscapeText("plain"))
	assert.Equal("a&amp;b&lt;c&gt;", xmldoc.EscapeText("a&b<c>"))
	assert.Equal("say \"hi\"", xmldoc.EscapeText("say \"hi\""))
	assert.Equal("bell_x0007_", xmldoc.EscapeText("bell\a"))
}

func TestEscapeInvalidUTF8(test *testing.T) {
	assert := assert.New(test)

	assert.Equal("a_xFFFD_b", xmldoc.EscapeText("a\xffb"))
	assert.Equal("a_xFFFD__xFFFD_&amp;", xmldoc.EscapeText("a\xfe\xff&"))
	assert.Equal("_xFFFD_&quot;", xmldoc.EscapeAttr("\x80\"", '"'))

	// Valid replacement characters and non-BMP characters pass through unchanged.
	assert.Equal("\uFFFD😀", xmldoc.EscapeText("\uFFFD😀"))
	assert.True(utf8.ValidString(xmldoc.EscapeText("bad\xc0\x80")))
}

func TestEscapeAttr(test *testing.T) {
	assert := assert.New(test)

	assert.Equal("say &quot;hi&quot;", xmldoc.EscapeAttr("say \"hi\"", '"'))
	assert.Equal("say \"hi\"", xmldoc.EscapeAttr("say \"hi\"", '\''))
	assert.Equal("it&apos;s", xmldoc.EscapeAttr("it's", '\''))
	assert.Equal("a&#x0A;b&#x09;", xmldoc.EscapeAttr("a\nb\t", '"'))
}

func TestWriterChaining(test *testing.T) {
	assert := assert.New(test)

	buffer := &bytes.Buffer{}
	writer := xmldoc.NewWriter(buffer, true, '\'')
	writer.STag(0, "list").NL().
		OTag(1, "item").Attr("name", "it's").CETag().NL().
		OTag(1, "x").NSAttr("p", "id", "1").NSAttr("", "b", "2").CTag().Text("<").ETag(0, "x").NL().
		ETag(0, "list")

	assert.NoError(writer.Err())
	assert.Equal(
		"<list>\n\t<item name='it&apos;s'/>\n\t<x p:id='1' b='2'>&lt;</x>\n</list>",
		buffer.String(),
	)

	compact := &bytes.Buffer{}
	xmldoc.NewWriter(compact, false, '"').STag(3, "a").NL().ETag(3, "a")
	assert.Equal("<a></a>", compact.String())
}

func TestElementAccessors(test *testing.T) {
	assert := assert.New(test)

	namespace := classmeta.NewNamespace("ab", "http://example.com/ab/")
	root := xmldoc.NewElement("root")
	root.SetAttr(nil, "id", "1")
	root.SetAttr(nil, "id", "2")
	root.SetAttr(namespace, "id", "3")

	assert.Len(root.Attrs, 2)
	value, ok := root.Attr("id")
	assert.True(ok)
	assert.Equal("2", value)
	_, ok = root.Attr("missing")
	assert.False(ok)

	first := xmldoc.NewElement("first")
	second := xmldoc.NewElement("second")
	second.Append(xmldoc.NewElement("leaf"))
	root.Append(first, second)

	assert.Same(second, root.Child("second"))
	assert.Nil(root.Child("leaf"))
	assert.True(first.IsLeaf())
	assert.False(root.IsLeaf())

	names := make([]string, 0)
	root.Walk(func(element *xmldoc.Element) {
		names = append(names, element.Name)
	})
	assert.Equal([]string{"root", "first", "second", "leaf"}, names)
}
