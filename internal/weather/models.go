// Package weather looks up current conditions and the next-day forecast for an
// itinerary stop. Provider payloads are read through a generic key-value view and
// ordered extraction rules, so providers with different schemas share one reader.
package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Payload is a decoded provider response.
type Payload map[string]any

// DecodePayload decodes a JSON object.
func DecodePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if p == nil {
		return nil, errors.New("decoding response: empty payload")
	}
	return p, nil
}

// Lookup resolves a dotted path such as "weather.0.main". Numeric segments
// index into arrays. A nil value counts as absent.
func (p Payload) Lookup(path string) (any, bool) {
	var cur any = map[string]any(p)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case Payload:
			cur = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
		if cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// Object returns the object at path.
func (p Payload) Object(path string) (Payload, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return Payload(m), true
	case Payload:
		return m, true
	}
	return nil, false
}

// List returns the non-empty array at path.
func (p Payload) List(path string) ([]any, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok && len(list) > 0
}

// Number returns the first path holding a number. Non-numeric values are skipped.
func (p Payload) Number(paths []string) (float64, bool) {
	for _, path := range paths {
		v, ok := p.Lookup(path)
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// String returns the first path holding a non-empty string.
func (p Payload) String(paths []string) (string, bool) {
	for _, path := range paths {
		v, ok := p.Lookup(path)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
