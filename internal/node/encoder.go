package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/WJ4IoT/meshcodec/internal/codec"
	"github.com/WJ4IoT/meshcodec/internal/crypto"
	"github.com/WJ4IoT/meshcodec/internal/flow"
	"github.com/WJ4IoT/meshcodec/internal/meshpb"
)

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	Schema *meshpb.Schema
	Codecs *codec.Registry

	// Encrypt seals the Data message with Key and sends it in the packet's
	// encrypted variant instead of the decoded one.
	Encrypt bool
	Key     crypto.Key // nil selects the public default key
}

// Encoder serializes decoded envelopes.
type Encoder struct {
	schema  *meshpb.Schema
	codecs  *codec.Registry
	encrypt bool
	key     crypto.Key
}

func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if cfg.Schema == nil || cfg.Codecs == nil {
		return nil, errors.New("node: encoder needs a schema and a codec registry")
	}
	e := &Encoder{schema: cfg.Schema, codecs: cfg.Codecs, encrypt: cfg.Encrypt}
	if cfg.Encrypt {
		e.key = cfg.Key
		if len(e.key) == 0 {
			e.key = crypto.DefaultKey()
		}
		if err := e.key.Validate(); err != nil {
			return nil, fmt.Errorf("node: encoder key: %w", err)
		}
	}
	return e, nil
}

// UsesDefaultKey reports whether the encoder encrypts with the public key.
func (e *Encoder) UsesDefaultKey() bool {
	return e.encrypt && e.key.IsDefault()
}

// Encode returns the ServiceEnvelope wire bytes for env. env is not
// modified. Every error except ErrNoPayload is reported to st before it is
// returned.
func (e *Encoder) Encode(env *flow.Envelope, override crypto.Key, st flow.Status) ([]byte, error) {
	b, err := e.encode(env, override, st)
	if err != nil {
		if !errors.Is(err, ErrNoPayload) {
			st.Error(err)
		}
		return nil, err
	}
	return b, nil
}

func (e *Encoder) encode(env *flow.Envelope, override crypto.Key, st flow.Status) ([]byte, error) {
	if env == nil || env.Packet == nil {
		return nil, ErrNoPayload
	}
	pkt := env.Packet
	if pkt.Decoded == nil && pkt.Encrypted == nil {
		return nil, ErrNoPayload
	}
	if err := pkt.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeConversion, err)
	}

	var (
		decoded  map[string]any
		inner    any
		hasInner bool
	)
	if pkt.Decoded != nil {
		decoded = maps.Clone(pkt.Decoded)
		inner, hasInner = decoded["payload"]
		delete(decoded, "payload")
	}

	doc, err := envelopeJSON(env, decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: packet %d: %w", ErrEncodeConversion, pkt.ID, err)
	}
	msg, err := e.schema.FromJSON(meshpb.ServiceEnvelope, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: packet %d: %w", ErrEncodeConversion, pkt.ID, err)
	}
	packet := msg.Mutable(fieldOf(msg, "packet")).Message()
	if err := setAddress(packet, pkt.Address); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeConversion, err)
	}

	if decoded != nil {
		decodedFd := fieldOf(packet, "decoded")
		data := packet.Mutable(decodedFd).Message()
		port, _ := portOf(data)
		if hasInner && inner != nil {
			payload, err := e.encodePayload(pkt.ID, port, inner, st)
			if err != nil {
				return nil, fmt.Errorf("%w: packet %d: %s: %w", ErrInnerEncode, pkt.ID, port, err)
			}
			if len(payload) > 0 {
				data.Set(fieldOf(data, "payload"), protoreflect.ValueOfBytes(payload))
			}
		}
		if e.encrypt {
			if err := e.seal(packet, data, pkt.Address, override); err != nil {
				return nil, err
			}
		}
	}

	b, err := e.schema.ToBinary(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: packet %d: %w", ErrEncodeConversion, pkt.ID, err)
	}
	return b, nil
}

// encodePayload returns nil bytes when the port has no codec.
func (e *Encoder) encodePayload(id uint64, port meshpb.PortNum, v any, st flow.Status) ([]byte, error) {
	entry, err := e.codecs.Lookup(port)
	if err != nil {
		st.Warnf("node: packet %d: %v, payload not encoded", id, err)
		return nil, nil
	}
	switch entry.Kind {
	case codec.Absent:
		st.Debugf("node: packet %d: no codec for %s, payload not encoded", id, port)
		return nil, nil

	case codec.Text:
		// Written as UTF-8 on every port; the entry's label only matters
		// when decoding.
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("text payload is %T, not a string", v)
		}
		return []byte(s), nil

	case codec.Struct:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		m, err := e.schema.FromJSON(entry.TypeName, raw)
		if err != nil {
			return nil, err
		}
		return e.schema.ToBinary(m)
	}
	return nil, fmt.Errorf("invalid codec %s", entry)
}

// seal replaces the decoded variant of packet with the encrypted Data bytes.
func (e *Encoder) seal(packet, data protoreflect.Message, a flow.Address, override crypto.Key) error {
	key := e.key
	if len(override) > 0 {
		key = override
	}
	plain, err := e.schema.ToBinary(data.Interface())
	if err != nil {
		return fmt.Errorf("%w: packet %d: %w", ErrEncodeConversion, a.ID, err)
	}
	ct, err := crypto.Encrypt(key, crypto.BuildNonce(a.ID, a.From), plain)
	if err != nil {
		return fmt.Errorf("node: packet %d: encrypt with %s: %w", a.ID, key, err)
	}
	packet.Clear(fieldOf(packet, "decoded"))
	packet.Set(fieldOf(packet, "encrypted"), protoreflect.ValueOfBytes(ct))
	return nil
}

// envelopeJSON builds the protobuf JSON document for env without the packet
// address and with decoded in place of the packet's own decoded value.
// An encrypted block is kept only when there is nothing decoded.
func envelopeJSON(env *flow.Envelope, decoded map[string]any) ([]byte, error) {
	pkt := env.Packet
	p := pkt.Fields()
	switch {
	case decoded != nil:
		raw, err := json.Marshal(decoded)
		if err != nil {
			return nil, err
		}
		p["decoded"] = raw
	case pkt.Encrypted != nil:
		b, err := pkt.Encrypted.Bytes()
		if err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(b)
		p["encrypted"] = raw
	}
	packet, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	doc := env.Fields()
	doc["packet"] = packet
	return json.Marshal(doc)
}

// Handle encodes the message payload and sends the wire bytes as a new
// payload. Messages without a payload produce nothing.
func (e *Encoder) Handle(msg *flow.Message, send func(*flow.Message), st flow.Status) error {
	if !msg.HasPayload() {
		return nil
	}
	if msg.Envelope == nil {
		err := fmt.Errorf("%w: payload is a byte block, not an envelope", ErrEncodeConversion)
		st.Error(err)
		return err
	}
	override, err := crypto.ParseKey(msg.Prop("key"))
	if err != nil {
		err = fmt.Errorf("node: message key: %w", err)
		st.Error(err)
		return err
	}
	b, err := e.Encode(msg.Envelope, override, st)
	if errors.Is(err, ErrNoPayload) {
		return nil
	}
	if err != nil {
		return err
	}
	out := msg.WithBinary(b)
	out.DeleteProp("key")
	send(out)
	return nil
}
