package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned when a body is neither a bare array nor an
// object carrying a "data" field.
var ErrMalformedPayload = errors.New("malformed payload")

// RawRecord is one backend record before normalization.
type RawRecord map[string]any

// DecodeEnvelope accepts `{"data": [...]}`, `{"data": {...}}` or a bare array
// and returns the contained objects. Elements that are not JSON objects are
// dropped; the second return value counts them.
func DecodeEnvelope(body []byte) ([]RawRecord, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []RawRecord{}, 0, nil
	}

	var payload any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch v := payload.(type) {
	case []any:
		return collect(v)
	case map[string]any:
		data, ok := lookup(v, "data")
		if !ok {
			return nil, 0, fmt.Errorf("%w: object without data field", ErrMalformedPayload)
		}
		switch d := data.(type) {
		case nil:
			return []RawRecord{}, 0, nil
		case []any:
			return collect(d)
		case map[string]any:
			return []RawRecord{d}, 0, nil
		}
		return nil, 0, fmt.Errorf("%w: data is %T", ErrMalformedPayload, data)
	}
	return nil, 0, fmt.Errorf("%w: unexpected %T", ErrMalformedPayload, payload)
}

func collect(items []any) ([]RawRecord, int, error) {
	records := make([]RawRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		records = append(records, obj)
	}
	return records, skipped, nil
}
