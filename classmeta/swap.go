package classmeta

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/illuscio-dev/spanmarshal-go/spantypes"
	uuid "github.com/satori/go.uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/xerrors"
)

/*
Swap converts values of a type to a surrogate value before serialization, and back
again when parsing.

SwapType returns the declared surrogate type. Return nil when the surrogate type is only
known per value; the serializers then resolve the type of each surrogate.
*/
type Swap interface {
	SwapType() reflect.Type
	Swap(value interface{}) (interface{}, error)
	Unswap(surrogate interface{}) (interface{}, error)
}

// FuncSwap builds a Swap from a pair of functions. From may be nil for swaps that are
// only used for serialization.
type FuncSwap struct {
	Name      string
	Surrogate reflect.Type
	To        func(value interface{}) (interface{}, error)
	From      func(surrogate interface{}) (interface{}, error)
}

func (swap *FuncSwap) SwapType() reflect.Type {
	return swap.Surrogate
}

func (swap *FuncSwap) Swap(value interface{}) (interface{}, error) {
	return swap.To(value)
}

func (swap *FuncSwap) Unswap(surrogate interface{}) (interface{}, error) {
	if swap.From == nil {
		return nil, xerrors.Errorf("swap %v does not support unswap", swap.Name)
	}
	return swap.From(surrogate)
}

// SwapName returns a display name for a swap.
func SwapName(swap Swap) string {
	if named, ok := swap.(*FuncSwap); ok && named.Name != "" {
		return named.Name
	}
	return fmt.Sprintf("%T", swap)
}

var (
	stringType = reflect.TypeOf("")
	uriType    = reflect.TypeOf(spantypes.URI(""))
)

const uuidURNPrefix = "urn:uuid:"

// surrogateString accepts the string-shaped surrogates produced by the parsers.
func surrogateString(surrogate interface{}) (string, error) {
	switch typed := surrogate.(type) {
	case string:
		return typed, nil
	case spantypes.URI:
		return string(typed), nil
	case fmt.Stringer:
		return typed.String(), nil
	}
	return "", xerrors.Errorf("cannot unswap from %T", surrogate)
}

// TimeSwap renders time.Time as an RFC 3339 string with nanoseconds.
var TimeSwap Swap = &FuncSwap{
	Name:      "TimeSwap",
	Surrogate: stringType,
	To: func(value interface{}) (interface{}, error) {
		return value.(time.Time).Format(time.RFC3339Nano), nil
	},
	From: func(surrogate interface{}) (interface{}, error) {
		text, err := surrogateString(surrogate)
		if err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, text)
	},
}

// UUIDSwap renders uuid.UUID as a "urn:uuid:" URI.
var UUIDSwap Swap = &FuncSwap{
	Name:      "UUIDSwap",
	Surrogate: uriType,
	To: func(value interface{}) (interface{}, error) {
		return spantypes.URI(uuidURNPrefix + value.(uuid.UUID).String()), nil
	},
	From: func(surrogate interface{}) (interface{}, error) {
		text, err := surrogateString(surrogate)
		if err != nil {
			return nil, err
		}
		return uuid.FromString(strings.TrimPrefix(text, uuidURNPrefix))
	},
}

// BinDataSwap renders spantypes.BinData as a hex string.
var BinDataSwap Swap = &FuncSwap{
	Name:      "BinDataSwap",
	Surrogate: stringType,
	To: func(value interface{}) (interface{}, error) {
		return hex.EncodeToString(value.(spantypes.BinData)), nil
	},
	From: func(surrogate interface{}) (interface{}, error) {
		text, err := surrogateString(surrogate)
		if err != nil {
			return nil, err
		}
		decoded, err := hex.DecodeString(text)
		if err != nil {
			return nil, xerrors.Errorf("error decoding hex BinData: %w", err)
		}
		return spantypes.BinData(decoded), nil
	},
}

// ObjectIDSwap renders BSON object ids as their hex string.
var ObjectIDSwap Swap = &FuncSwap{
	Name:      "ObjectIDSwap",
	Surrogate: stringType,
	To: func(value interface{}) (interface{}, error) {
		return value.(primitive.ObjectID).Hex(), nil
	},
	From: func(surrogate interface{}) (interface{}, error) {
		text, err := surrogateString(surrogate)
		if err != nil {
			return nil, err
		}
		return primitive.ObjectIDFromHex(text)
	},
}

func defaultSwaps() map[reflect.Type]Swap {
	return map[reflect.Type]Swap{
		reflect.TypeOf(time.Time{}):          TimeSwap,
		reflect.TypeOf(uuid.UUID{}):          UUIDSwap,
		reflect.TypeOf(spantypes.BinData{}):  BinDataSwap,
		reflect.TypeOf(primitive.ObjectID{}): ObjectIDSwap,
	}
}
