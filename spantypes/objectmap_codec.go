package spantypes

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// MarshalJSON writes the entries as a JSON object in insertion order.
func (objectMap ObjectMap) MarshalJSON() ([]byte, error) {
	buffer := bytes.NewBufferString("{")
	for index, key := range objectMap.keys {
		if index > 0 {
			buffer.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(objectMap.values[key])
		if err != nil {
			return nil, xerrors.Errorf("error encoding ObjectMap key %q: %w", key, err)
		}
		buffer.Write(keyJSON)
		buffer.WriteByte(':')
		buffer.Write(valueJSON)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the document's key order.
func (objectMap *ObjectMap) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return xerrors.Errorf("ObjectMap must be decoded from a JSON object, got %v", token)
	}

	*objectMap = ObjectMap{}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return xerrors.Errorf("unexpected ObjectMap key %v", token)
		}

		var value interface{}
		if err := decoder.Decode(&value); err != nil {
			return xerrors.Errorf("error decoding ObjectMap key %q: %w", key, err)
		}
		objectMap.Put(key, value)
	}

	_, err = decoder.Token()
	return err
}

// MarshalYAML writes the entries as a YAML mapping in insertion order.
func (objectMap ObjectMap) MarshalYAML() (interface{}, error) {
	slice := make(yaml.MapSlice, 0, len(objectMap.keys))
	for _, key := range objectMap.keys {
		slice = append(slice, yaml.MapItem{Key: key, Value: objectMap.values[key]})
	}
	return slice, nil
}

// UnmarshalYAML reads a YAML mapping, keeping the document's key order.
func (objectMap *ObjectMap) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var slice yaml.MapSlice
	if err := unmarshal(&slice); err != nil {
		return err
	}

	*objectMap = ObjectMap{}
	for _, item := range slice {
		objectMap.Put(fmt.Sprint(item.Key), item.Value)
	}
	return nil
}
