package kong

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Pair is one dotted key and its raw value, e.g. {"config.minute", "20"}.
type Pair struct {
	Key   string
	Value string
}

// ParsePair splits "key=value" on the first '='.
func ParsePair(s string) (Pair, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return Pair{}, fmt.Errorf("%w: %q", ErrEmptyKey, s)
	}

	return Pair{Key: key, Value: value}, nil
}

// ParsePairs parses every entry with ParsePair.
func ParsePairs(entries []string) ([]Pair, error) {
	pairs := make([]Pair, 0, len(entries))

	for _, entry := range entries {
		pair, err := ParsePair(entry)
		if err != nil {
			return nil, err
		}

		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// FromDotted builds a nested payload from dotted pairs.
//
// Each key is split on '.'; missing intermediate objects are created.
// Leaf values are JSON-decoded when the whole value is valid JSON and
// kept as the raw string otherwise. Numbers decode to json.Number so
// integers and floats re-encode unchanged.
func FromDotted(pairs []Pair) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, pair := range pairs {
		if err := assign(result, pair); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func assign(root map[string]interface{}, pair Pair) error {
	segments := strings.Split(pair.Key, ".")
	node := root

	for i, segment := range segments[:len(segments)-1] {
		next, exists := node[segment]
		if !exists {
			child := make(map[string]interface{})
			node[segment] = child
			node = child

			continue
		}

		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%w: %s", ErrKeyNotObject, strings.Join(segments[:i+1], "."))
		}

		node = child
	}

	leaf := segments[len(segments)-1]
	if _, exists := node[leaf]; exists {
		return fmt.Errorf("%w: %s", ErrKeyAlreadyAssigned, pair.Key)
	}

	node[leaf] = DecodeValue(pair.Value)

	return nil
}

// DecodeValue returns the JSON value of s, or s itself when s is not JSON.
func DecodeValue(s string) interface{} {
	if !json.Valid([]byte(s)) {
		return s
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(s)))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return s
	}

	return value
}

// Flatten is the inverse of FromDotted: it returns the dotted keys of
// every leaf in payload with their values. Only scalars, arrays and empty
// objects are leaves, so a pair whose value is a non-empty JSON object,
// such as config={"minute":20}, comes back split into config.minute=20.
func Flatten(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	flattenInto(out, "", payload)

	return out
}

func flattenInto(out map[string]interface{}, prefix string, node map[string]interface{}) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if child, ok := value.(map[string]interface{}); ok && len(child) > 0 {
			flattenInto(out, path, child)

			continue
		}

		out[path] = value
	}
}
