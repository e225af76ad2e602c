package xjson

import (
	stdjson "encoding/json"

	gjson "github.com/goccy/go-json"
)

// Single import site for the JSON codec so the implementation can move
// between encoding/json and goccy/go-json without touching callers.

func Marshal(v interface{}) ([]byte, error) {
	return gjson.Marshal(v)
}

func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gjson.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v interface{}) error {
	return gjson.Unmarshal(data, v)
}

func Valid(data []byte) bool {
	return gjson.Valid(data)
}

// Remarshal round-trips an already-decoded value into a typed target.
// Transport hands back loosely typed response data; adapters use this to
// project it onto their wire structs.
func Remarshal(src interface{}, dst interface{}) error {
	raw, err := gjson.Marshal(src)
	if err != nil {
		return err
	}
	return gjson.Unmarshal(raw, dst)
}

// RawMessage stays compatible with encoding/json's RawMessage type.
type RawMessage = stdjson.RawMessage
