package codec

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// TextCodec converts payload bytes to text using a WHATWG encoding label,
// the same label set a browser TextDecoder accepts. Note that "ascii" is a
// label for windows-1252 there, and here.
//
// There is no encoding side: the apps always write text payloads as UTF-8,
// whatever the port.
type TextCodec struct {
	label string
	enc   encoding.Encoding
}

func NewTextCodec(label string) (*TextCodec, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("text encoding %q: %w", label, err)
	}
	return &TextCodec{label: label, enc: enc}, nil
}

// Decode never fails on malformed input; invalid sequences become U+FFFD.
func (c *TextCodec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s text: %w", c.label, err)
	}
	return string(out), nil
}
