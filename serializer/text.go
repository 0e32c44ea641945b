package serializer

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
)

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Uintptr: reflect.TypeOf(uintptr(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
	reflect.String:  reflect.TypeOf(""),
}

// basicValue converts values of named types, such as `type Age int`, to their basic
// type.
func basicValue(value interface{}) interface{} {
	reflected := reflect.ValueOf(value)
	basic, ok := basicTypes[reflected.Kind()]
	if !ok || reflected.Type() == basic {
		return value
	}
	return reflected.Convert(basic).Interface()
}

// ToString renders a value as text: strings as-is, fmt.Stringer and error through
// their methods, basic values in canonical form, anything else with fmt.Sprint.
func ToString(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case url.URL:
		return typed.String()
	case fmt.Stringer:
		return typed.String()
	case error:
		return typed.Error()
	}

	if _, ok := basicTypes[reflect.ValueOf(value).Kind()]; ok {
		return FormatScalar(basicValue(value))
	}
	return fmt.Sprint(value)
}

// FormatScalar renders a basic bool, number or string value in canonical form. Floats
// use the shortest representation that round trips, switching to exponent notation for
// very large and very small magnitudes.
func FormatScalar(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.FormatInt(int64(typed), 10)
	case int8:
		return strconv.FormatInt(int64(typed), 10)
	case int16:
		return strconv.FormatInt(int64(typed), 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint:
		return strconv.FormatUint(uint64(typed), 10)
	case uint8:
		return strconv.FormatUint(uint64(typed), 10)
	case uint16:
		return strconv.FormatUint(uint64(typed), 10)
	case uint32:
		return strconv.FormatUint(uint64(typed), 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case uintptr:
		return strconv.FormatUint(uint64(typed), 10)
	case float32:
		return formatFloat(float64(typed), 32)
	case float64:
		return formatFloat(typed, 64)
	}
	return ToString(value)
}

func formatFloat(value float64, bits int) string {
	if math.IsNaN(value) {
		return "NaN"
	}
	if math.IsInf(value, 1) {
		return "INF"
	}
	if math.IsInf(value, -1) {
		return "-INF"
	}

	format := byte('f')
	if abs := math.Abs(value); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'E'
	}
	return strconv.FormatFloat(value, format, -1, bits)
}
