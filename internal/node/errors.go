package node

import "errors"

var (
	// ErrOuterParse: decrypted bytes are not a Data message. With CTR this is
	// also how a wrong key shows up.
	ErrOuterParse = errors.New("node: outer payload parse failed")

	// ErrInnerParse: the port payload did not decode with its codec.
	ErrInnerParse = errors.New("node: port payload parse failed")

	// ErrEncodeConversion: the envelope could not be converted to its
	// protobuf form.
	ErrEncodeConversion = errors.New("node: envelope conversion failed")

	// ErrInnerEncode: the port payload could not be encoded with its codec.
	ErrInnerEncode = errors.New("node: port payload encode failed")

	// ErrNoPayload: there is nothing to encode.
	ErrNoPayload = errors.New("node: no payload")
)
