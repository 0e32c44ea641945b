package xmldoc

import (
	"encoding/xml"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/classmeta"
	"github.com/illuscio-dev/spanmarshal-go/serializer"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	"golang.org/x/xerrors"
)

var stringType = reflect.TypeOf("")

// Parser reads XML documents back into Go values, using the same type metadata and
// settings the Serializer wrote them with.
type Parser struct {
	config   serializer.Config
	resolver classmeta.Resolver
}

// NewParser returns a parser.
func NewParser(config serializer.Config, resolver classmeta.Resolver) *Parser {
	return &Parser{
		config:   config,
		resolver: resolver,
	}
}

// Parse reads one document from reader into target, which must be a non-nil pointer.
func (parser *Parser) Parse(reader io.Reader, target interface{}) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return spanerrors.ParseError.Newf("parse target must be a non-nil pointer, got %T", target)
	}

	root, err := parser.ParseElement(reader)
	if err != nil {
		return err
	}
	return parser.Bind(root, targetValue.Elem())
}

// ParseElement reads one document from reader into an element tree.
func (parser *Parser) ParseElement(reader io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(reader)

	var stack []*Element
	var root *Element
	for {
		token, err := decoder.Token()
		if xerrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, spanerrors.ParseError.New("error reading xml", err)
		}

		switch typed := token.(type) {
		case xml.StartElement:
			element := parser.startElement(typed)
			if len(stack) > 0 {
				stack[len(stack)-1].Append(element)
			} else if root == nil {
				root = element
			}
			stack = append(stack, element)

		case xml.EndElement:
			element := stack[len(stack)-1]
			if len(element.Children) > 0 && strings.TrimSpace(element.Text) == "" {
				element.Text = ""
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(typed)
			}
		}
	}

	if root == nil {
		return nil, spanerrors.ParseError.New("document has no root element", nil)
	}
	return root, nil
}

func (parser *Parser) namespaceFor(uri string) *classmeta.Namespace {
	if uri == "" {
		return nil
	}
	for _, namespace := range parser.config.AllNamespaces() {
		if namespace.URI == uri {
			return namespace
		}
	}
	return &classmeta.Namespace{URI: uri}
}

func (parser *Parser) startElement(start xml.StartElement) *Element {
	element := &Element{
		Name:      classmeta.DecodeElementName(start.Name.Local),
		Namespace: parser.namespaceFor(start.Name.Space),
	}
	for _, attr := range start.Attr {
		switch {
		case attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns"):
			continue
		case attr.Name.Space == serializer.XSINamespace.URI && attr.Name.Local == "nil":
			element.Nil = attr.Value == "true"
			continue
		}
		element.Attrs = append(element.Attrs, Attr{
			Namespace: parser.namespaceFor(attr.Name.Space),
			Name:      classmeta.DecodeElementName(attr.Name.Local),
			Value:     attr.Value,
		})
	}
	return element
}

// Bind stores the value described by element in target, which must be settable.
func (parser *Parser) Bind(element *Element, target reflect.Value) error {
	if element.Nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	switch target.Kind() {
	case reflect.Ptr:
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		return parser.Bind(element, target.Elem())
	case reflect.Interface:
		if target.NumMethod() > 0 {
			return parser.bindError(element, target.Type(), "cannot bind to a non-empty interface", nil)
		}
		if value := parser.infer(element); value != nil {
			target.Set(reflect.ValueOf(value))
		}
		return nil
	}

	meta := parser.resolver.ClassMetaFor(target.Type())
	if swap := meta.Swap(); swap != nil {
		return parser.bindSwapped(element, target, swap)
	}

	switch meta.Kind() {
	case classmeta.KindURI:
		if target.Type() == reflect.TypeOf(url.URL{}) {
			parsed, err := url.Parse(element.Text)
			if err != nil {
				return parser.bindError(element, target.Type(), "invalid url", err)
			}
			target.Set(reflect.ValueOf(*parsed))
			return nil
		}
		target.SetString(element.Text)
	case classmeta.KindString:
		target.SetString(element.Text)
	case classmeta.KindChar:
		runes := []rune(element.Text)
		if len(runes) > 1 {
			return parser.bindError(element, target.Type(), "expected a single character", nil)
		}
		if len(runes) == 1 {
			target.SetInt(int64(runes[0]))
		}
	case classmeta.KindNumber, classmeta.KindBoolean:
		return parser.bindScalar(element, target)
	case classmeta.KindMap:
		return parser.bindMap(element, target)
	case classmeta.KindBean:
		return parser.bindBean(element, target, meta)
	case classmeta.KindCollection, classmeta.KindArray:
		return parser.bindCollection(element.Children, target)
	default:
		return parser.bindError(element, target.Type(), "type cannot be parsed", nil)
	}
	return nil
}

func (parser *Parser) bindError(
	element *Element, targetType reflect.Type, message string, source error,
) error {
	return spanerrors.ParseError.New(message, source).
		WithLocation(element.Name, targetType.String())
}

func (parser *Parser) bindSwapped(
	element *Element, target reflect.Value, swap classmeta.Swap,
) error {
	surrogateType := swap.SwapType()
	if surrogateType == nil {
		surrogateType = stringType
	}
	surrogate := reflect.New(surrogateType).Elem()
	if err := parser.Bind(element, surrogate); err != nil {
		return err
	}

	value, err := swap.Unswap(surrogate.Interface())
	if err != nil {
		return parser.bindError(element, target.Type(), "unswap failed", err)
	}
	unswapped := reflect.ValueOf(value)
	if !unswapped.IsValid() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	if !unswapped.Type().AssignableTo(target.Type()) {
		return parser.bindError(
			element, target.Type(), "swap returned "+unswapped.Type().String(), nil,
		)
	}
	target.Set(unswapped)
	return nil
}

func (parser *Parser) bindScalar(element *Element, target reflect.Value) error {
	text := strings.TrimSpace(element.Text)
	switch target.Kind() {
	case reflect.Bool:
		parsed, err := strconv.ParseBool(text)
		if err != nil {
			return parser.bindError(element, target.Type(), "invalid boolean", err)
		}
		target.SetBool(parsed)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(text, 10, target.Type().Bits())
		if err != nil {
			return parser.bindError(element, target.Type(), "invalid integer", err)
		}
		target.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		parsed, err := strconv.ParseUint(text, 10, target.Type().Bits())
		if err != nil {
			return parser.bindError(element, target.Type(), "invalid unsigned integer", err)
		}
		target.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(text, target.Type().Bits())
		if err != nil {
			return parser.bindError(element, target.Type(), "invalid number", err)
		}
		target.SetFloat(parsed)
	default:
		return parser.bindError(element, target.Type(), "not a scalar type", nil)
	}
	return nil
}

func (parser *Parser) bindMap(element *Element, target reflect.Value) error {
	if target.Type() == reflect.TypeOf(spantypes.ObjectMap{}) {
		objectMap := spantypes.NewObjectMap()
		for _, child := range element.Children {
			objectMap.Put(child.Name, parser.infer(child))
		}
		target.Set(reflect.ValueOf(*objectMap))
		return nil
	}

	mapType := target.Type()
	if target.IsNil() {
		target.Set(reflect.MakeMapWithSize(mapType, len(element.Children)))
	}
	for _, child := range element.Children {
		key := reflect.New(mapType.Key()).Elem()
		if err := parser.Bind(&Element{Name: child.Name, Text: child.Name}, key); err != nil {
			return err
		}
		value := reflect.New(mapType.Elem()).Elem()
		if err := parser.Bind(child, value); err != nil {
			return err
		}
		target.SetMapIndex(key, value)
	}
	return nil
}

func (parser *Parser) bindBean(
	element *Element, target reflect.Value, meta *classmeta.ClassMeta,
) error {
	for _, attr := range element.Attrs {
		property, ok := meta.Property(attr.Name)
		if !ok {
			continue
		}
		if err := parser.Bind(&Element{Name: attr.Name, Text: attr.Value}, property.Field(target)); err != nil {
			return err
		}
	}

	if content := meta.ContentProperty(); content != nil {
		return parser.Bind(
			&Element{Name: content.Name(), Text: element.Text, Children: element.Children},
			content.Field(target),
		)
	}

	collapsed := make(map[string]*classmeta.BeanPropertyMeta)
	for _, property := range meta.Properties() {
		if property.Format() == classmeta.FormatCollapsed {
			collapsed[property.ChildName()] = property
		}
	}

	counts := make(map[string]int)
	for _, child := range element.Children {
		counts[child.Name]++
	}

	for _, child := range element.Children {
		if property, ok := collapsed[child.Name]; ok {
			if err := parser.appendItem(child, property.Field(target)); err != nil {
				return err
			}
			continue
		}

		property, ok := meta.Property(child.Name)
		if !ok {
			continue
		}
		field := property.Field(target)
		if parser.isRepeated(property, counts[child.Name]) {
			if err := parser.appendItem(child, field); err != nil {
				return err
			}
			continue
		}
		if err := parser.Bind(child, field); err != nil {
			return err
		}
	}
	return nil
}

// isRepeated reports whether sibling elements of property are the items of a
// multi-valued collection rather than one serialized collection.
func (parser *Parser) isRepeated(property *classmeta.BeanPropertyMeta, count int) bool {
	valueType := property.ClassMeta()
	if valueType.Kind() != classmeta.KindCollection {
		return false
	}
	format := serializer.EffectiveCollectionFormat(parser.config, valueType, property)
	return format == classmeta.CollectionMultiValued || count > 1
}

func (parser *Parser) appendItem(element *Element, field reflect.Value) error {
	for field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		field = field.Elem()
	}
	if field.Kind() != reflect.Slice {
		return parser.bindError(element, field.Type(), "repeated elements need a slice", nil)
	}

	item := reflect.New(field.Type().Elem()).Elem()
	if err := parser.Bind(element, item); err != nil {
		return err
	}
	field.Set(reflect.Append(field, item))
	return nil
}

func (parser *Parser) bindCollection(items []*Element, target reflect.Value) error {
	if target.Kind() == reflect.Array {
		for index, item := range items {
			if index >= target.Len() {
				return parser.bindError(item, target.Type(), "too many items for array", nil)
			}
			if err := parser.Bind(item, target.Index(index)); err != nil {
				return err
			}
		}
		return nil
	}

	slice := reflect.MakeSlice(target.Type(), len(items), len(items))
	for index, item := range items {
		if err := parser.Bind(item, slice.Index(index)); err != nil {
			return err
		}
	}
	target.Set(slice)
	return nil
}

// infer builds generic values for elements bound to interface{}: type attributes are
// honored, otherwise leaves become strings and composites become maps, or slices when
// all children share one name.
func (parser *Parser) infer(element *Element) interface{} {
	if element.Nil {
		return nil
	}

	jsonType, _ := element.Attr(TypeAttr)
	switch jsonType {
	case "null":
		return nil
	case "boolean":
		if parsed, err := strconv.ParseBool(strings.TrimSpace(element.Text)); err == nil {
			return parsed
		}
	case "number":
		text := strings.TrimSpace(element.Text)
		if parsed, err := strconv.ParseInt(text, 10, 64); err == nil {
			return parsed
		}
		if parsed, err := strconv.ParseFloat(text, 64); err == nil {
			return parsed
		}
	case "string":
		return element.Text
	case "array":
		return parser.inferItems(element)
	case "object":
		return parser.inferMap(element)
	}

	if len(element.Children) == 0 {
		return element.Text
	}
	if element.Name == "array" {
		return parser.inferItems(element)
	}
	if len(element.Children) > 1 {
		same := true
		for _, child := range element.Children[1:] {
			same = same && child.Name == element.Children[0].Name
		}
		if same {
			return parser.inferItems(element)
		}
	}
	return parser.inferMap(element)
}

func (parser *Parser) inferItems(element *Element) []interface{} {
	items := make([]interface{}, len(element.Children))
	for index, child := range element.Children {
		items[index] = parser.infer(child)
	}
	return items
}

func (parser *Parser) inferMap(element *Element) map[string]interface{} {
	values := make(map[string]interface{}, len(element.Children))
	for _, child := range element.Children {
		values[child.Name] = parser.infer(child)
	}
	return values
}
