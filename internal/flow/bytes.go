package flow

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBytes is returned when a byte block cannot be decoded.
var ErrMalformedBytes = errors.New("flow: malformed byte block")

// Blob is a byte block exactly as it appeared in the JSON message. It is
// decoded on demand so that a bad block never prevents the message around it
// from being parsed and forwarded.
//
// Accepted forms: a base64 string (standard or URL alphabet), an array of
// byte values, or a Node-RED Buffer object {"type":"Buffer","data":[...]}.
type Blob json.RawMessage

func (b Blob) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

// Bytes decodes the block.
func (b Blob) Bytes() ([]byte, error) {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedBytes)
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBytes, err)
		}
		return decodeBase64(s)
	case '[':
		return decodeByteArray(raw)
	case '{':
		var buf struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBytes, err)
		}
		if buf.Type != "Buffer" {
			return nil, fmt.Errorf("%w: object of type %q", ErrMalformedBytes, buf.Type)
		}
		return decodeByteArray(buf.Data)
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformedBytes, raw[0])
	}
}

func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrMalformedBytes)
}

func decodeByteArray(raw []byte) ([]byte, error) {
	var vals []int
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBytes, err)
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: value %d at index %d", ErrMalformedBytes, v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
