// Package node implements the two pipeline nodes.
//
// Design:
//   - Decoder turns an encrypted MeshPacket into its decoded form. It is
//     best-effort: every failure is reported and the message is forwarded
//     with whatever was decoded so far, possibly nothing.
//   - Encoder turns a decoded envelope into ServiceEnvelope wire bytes. Every
//     failure is reported and returned, and nothing is sent. A dropped
//     transmission is better than a corrupt one.
//   - The packet address (id, from, to) never passes through the generic
//     JSON conversion. It is carried as flow.Address and set on the
//     protobuf packet directly.
//   - Schema, codec registry and keys are built once and shared read-only.
package node

import (
	"errors"
	"fmt"

	"github.com/WJ4IoT/meshcodec/internal/codec"
	"github.com/WJ4IoT/meshcodec/internal/crypto"
	"github.com/WJ4IoT/meshcodec/internal/flow"
	"github.com/WJ4IoT/meshcodec/internal/meshpb"
	"github.com/WJ4IoT/meshcodec/internal/seen"
)

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	Schema *meshpb.Schema
	Codecs *codec.Registry
	Key    crypto.Key  // channel key; nil selects the public default key
	Ledger seen.Ledger // optional nonce ledger
}

// Decoder decrypts and decodes packets.
type Decoder struct {
	schema *meshpb.Schema
	codecs *codec.Registry
	key    crypto.Key
	ledger seen.Ledger
}

func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if cfg.Schema == nil || cfg.Codecs == nil {
		return nil, errors.New("node: decoder needs a schema and a codec registry")
	}
	key := cfg.Key
	if len(key) == 0 {
		key = crypto.DefaultKey()
	}
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("node: decoder key: %w", err)
	}
	return &Decoder{
		schema: cfg.Schema,
		codecs: cfg.Codecs,
		key:    key,
		ledger: cfg.Ledger,
	}, nil
}

// UsesDefaultKey reports whether the decoder fell back to the public key.
func (d *Decoder) UsesDefaultKey() bool {
	return d.key.IsDefault()
}

// Decode attaches the decoded Data message to env's packet. A non-empty
// override replaces the configured key for this packet only. Decode never
// fails: problems go to st and leave the packet as far as it got.
// Packets without an encrypted block, and packets whose address could not
// be read, are left alone.
func (d *Decoder) Decode(env *flow.Envelope, override crypto.Key, st flow.Status) {
	if env == nil || env.Packet == nil {
		return
	}
	pkt := env.Packet
	if err := pkt.Err(); err != nil {
		st.Error(fmt.Errorf("node: packet not decrypted: %w", err))
		return
	}
	if pkt.Encrypted == nil {
		return
	}

	ciphertext, err := pkt.Encrypted.Bytes()
	if err != nil {
		st.Error(fmt.Errorf("node: packet %d: encrypted: %w", pkt.ID, err))
		return
	}
	key := d.key
	if len(override) > 0 {
		key = override
	}
	nonce := crypto.BuildNonce(pkt.ID, pkt.From)

	plain, err := crypto.Decrypt(key, nonce, ciphertext)
	if err != nil {
		st.Error(fmt.Errorf("node: packet %d: decrypt with %s: %w", pkt.ID, key, err))
		return
	}
	d.observe(pkt, key, nonce, ciphertext, st)

	data, err := d.schema.FromBinary(meshpb.Data, plain)
	if err != nil {
		st.Error(fmt.Errorf("%w: packet %d with %s: %w", ErrOuterParse, pkt.ID, key, err))
		return
	}
	decoded, err := render(d.schema, data)
	if err != nil {
		st.Error(fmt.Errorf("%w: packet %d: %w", ErrOuterParse, pkt.ID, err))
		return
	}

	port, payload := portOf(data)
	if v, ok := d.decodePayload(pkt.ID, port, payload, st); ok {
		decoded["payload"] = v
	}
	pkt.Decoded = decoded
}

// decodePayload returns the decoded port payload, or false to leave the
// payload in its byte form.
func (d *Decoder) decodePayload(id uint64, port meshpb.PortNum, payload []byte, st flow.Status) (any, bool) {
	entry, err := d.codecs.Lookup(port)
	if err != nil {
		st.Warnf("node: packet %d: %v, payload left as bytes", id, err)
		return nil, false
	}
	switch entry.Kind {
	case codec.Absent:
		st.Debugf("node: packet %d: no codec for %s", id, port)
		return nil, false

	case codec.Text:
		tc, err := d.codecs.Text(entry)
		if err != nil {
			st.Error(fmt.Errorf("%w: %s: %w", ErrInnerParse, port, err))
			return nil, false
		}
		s, err := tc.Decode(payload)
		if err != nil {
			st.Error(fmt.Errorf("%w: %s: %w", ErrInnerParse, port, err))
			return nil, false
		}
		return s, true

	case codec.Struct:
		m, err := d.schema.FromBinary(entry.TypeName, payload)
		if err != nil {
			st.Error(fmt.Errorf("%w: %s: %w", ErrInnerParse, port, err))
			return nil, false
		}
		obj, err := render(d.schema, m)
		if err != nil {
			st.Error(fmt.Errorf("%w: %s: %w", ErrInnerParse, port, err))
			return nil, false
		}
		return obj, true
	}
	return nil, false
}

func (d *Decoder) observe(pkt *flow.Packet, key crypto.Key, nonce crypto.Nonce, ciphertext []byte, st flow.Status) {
	if d.ledger == nil {
		return
	}
	v, err := d.ledger.Observe(key, nonce, ciphertext)
	switch {
	case err != nil:
		st.Warnf("node: packet %d: nonce ledger: %v", pkt.ID, err)
	case v == seen.Reused:
		st.Warnf("node: packet %d from !%08x: %v (%s)", pkt.ID, pkt.From, seen.ErrNonceReuse, key)
	case v == seen.Duplicate:
		st.Debugf("node: packet %d from !%08x: duplicate", pkt.ID, pkt.From)
	}
}

// Handle runs Decode on the message payload and always forwards the
// message. A per-message key in the "key" property overrides the
// configured key and is not forwarded.
func (d *Decoder) Handle(msg *flow.Message, send func(*flow.Message), st flow.Status) error {
	defer send(msg)
	if msg.Envelope == nil {
		return nil
	}
	override, err := crypto.ParseKey(msg.Prop("key"))
	msg.DeleteProp("key")
	if err != nil {
		st.Error(fmt.Errorf("node: message key: %w", err))
		return nil
	}
	d.Decode(msg.Envelope, override, st)
	return nil
}
