// Package flow models the messages a routing runtime hands to a pipeline
// node and runs nodes over a stream of them.
//
// A message is a JSON object. Its "payload" is either a Meshtastic service
// envelope or a byte block; every other property passes through untouched.
// Envelope and packet keep the properties they do not interpret, so a
// message survives a decode/encode pass unchanged apart from what the node
// attaches.
package flow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

// fields holds JSON object properties verbatim.
type fields map[string]json.RawMessage

func parseObject(b []byte, what string) (fields, error) {
	var f fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("flow: %s: %w", what, err)
	}
	if f == nil {
		return nil, fmt.Errorf("flow: %s: not an object", what)
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// Address is the routing header of a packet: the packet identifier, the
// sender and the destination node numbers. The nonce takes a 64-bit
// identifier; the wire format carries 32 bits.
type Address struct {
	ID   uint64
	From uint32
	To   uint32
}

// ErrInvalidPacket marks a packet whose address or decoded value could not be
// read. Such a packet still round-trips through JSON unchanged.
var ErrInvalidPacket = errors.New("flow: invalid packet")

// Packet is a MeshPacket as carried in a flow message.
type Packet struct {
	Address

	// Encrypted is nil when the packet carries no encrypted block.
	Encrypted Blob

	// Decoded is the structured Data message, nil until decoded.
	Decoded map[string]any

	extra fields
	err   error
}

var (
	addressKeys = []string{"id", "from", "to"}
	addressBits = []int{64, 32, 32}
)

// UnmarshalJSON only fails if b is not an object. Values it cannot read stay
// in the packet verbatim and are reported by Err.
func (p *Packet) UnmarshalJSON(b []byte) error {
	f, err := parseObject(b, "packet")
	if err != nil {
		return err
	}
	var problems []error
	addr := make([]uint64, len(addressKeys))
	for i, key := range addressKeys {
		raw, ok := f[key]
		if !ok || isNull(raw) {
			continue
		}
		if addr[i], err = parseNodeNum(raw, addressBits[i]); err != nil {
			problems = append(problems, fmt.Errorf("packet.%s: %w", key, err))
		}
	}
	p.ID, p.From, p.To = addr[0], uint32(addr[1]), uint32(addr[2])

	if raw, ok := f["encrypted"]; ok {
		if !isNull(raw) {
			p.Encrypted = Blob(raw)
		}
		delete(f, "encrypted")
	}
	if raw, ok := f["decoded"]; ok {
		switch obj, err := DecodeObject(raw); {
		case isNull(raw):
			delete(f, "decoded")
		case err != nil:
			problems = append(problems, fmt.Errorf("packet.decoded: %w", err))
		default:
			p.Decoded = obj
			delete(f, "decoded")
		}
	}
	p.extra = f
	if len(problems) > 0 {
		p.err = fmt.Errorf("%w: %w", ErrInvalidPacket, errors.Join(problems...))
	}
	return nil
}

// Err reports the values UnmarshalJSON could not read, or nil.
func (p *Packet) Err() error {
	return p.err
}

func (p Packet) MarshalJSON() ([]byte, error) {
	out := maps.Clone(p.extra)
	if out == nil {
		out = fields{}
	}
	for i, v := range []uint64{p.ID, uint64(p.From), uint64(p.To)} {
		key := addressKeys[i]
		if raw, ok := p.extra[key]; ok {
			prev, err := parseNodeNum(raw, addressBits[i])
			if (err != nil && v == 0) || (err == nil && prev == v) {
				continue
			}
		} else if v == 0 {
			continue
		}
		out[key] = json.RawMessage(strconv.FormatUint(v, 10))
	}
	if p.Encrypted != nil {
		out["encrypted"] = json.RawMessage(p.Encrypted)
	}
	if p.Decoded != nil {
		raw, err := json.Marshal(p.Decoded)
		if err != nil {
			return nil, fmt.Errorf("flow: packet.decoded: %w", err)
		}
		out["decoded"] = raw
	}
	return json.Marshal(out)
}

// Fields returns the packet properties other than the address, the
// encrypted block and the decoded payload.
func (p *Packet) Fields() map[string]json.RawMessage {
	out := maps.Clone(p.extra)
	if out == nil {
		out = fields{}
	}
	for _, key := range addressKeys {
		delete(out, key)
	}
	return out
}

// Envelope is a ServiceEnvelope: a packet plus its routing metadata
// (channelId, gatewayId).
type Envelope struct {
	Packet *Packet
	extra  fields
}

func (e *Envelope) UnmarshalJSON(b []byte) error {
	f, err := parseObject(b, "envelope")
	if err != nil {
		return err
	}
	if raw, ok := f["packet"]; ok {
		if !isNull(raw) {
			e.Packet = new(Packet)
			if err := json.Unmarshal(raw, e.Packet); err != nil {
				return err
			}
		}
		delete(f, "packet")
	}
	e.extra = f
	return nil
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	out := maps.Clone(e.extra)
	if out == nil {
		out = fields{}
	}
	if e.Packet != nil {
		raw, err := json.Marshal(e.Packet)
		if err != nil {
			return nil, err
		}
		out["packet"] = raw
	}
	return json.Marshal(out)
}

// Fields returns the envelope properties other than the packet.
func (e *Envelope) Fields() map[string]json.RawMessage {
	out := maps.Clone(e.extra)
	if out == nil {
		out = fields{}
	}
	return out
}

// Message is one unit delivered by the runtime. At most one of Envelope and
// Binary is set; a message with neither has no payload.
type Message struct {
	Envelope *Envelope
	Binary   []byte

	extra fields
}

func (m *Message) UnmarshalJSON(b []byte) error {
	f, err := parseObject(b, "message")
	if err != nil {
		return err
	}
	if raw, ok := f["payload"]; ok {
		raw = bytes.TrimSpace(raw)
		switch {
		case isNull(raw):
		case raw[0] == '{':
			m.Envelope = new(Envelope)
			if err := json.Unmarshal(raw, m.Envelope); err != nil {
				return err
			}
		case raw[0] == '"' || raw[0] == '[':
			if m.Binary, err = Blob(raw).Bytes(); err != nil {
				return fmt.Errorf("flow: payload: %w", err)
			}
		default:
			return fmt.Errorf("flow: payload: unsupported JSON value %.16s", raw)
		}
		delete(f, "payload")
	}
	m.extra = f
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := maps.Clone(m.extra)
	if out == nil {
		out = fields{}
	}
	var (
		raw []byte
		err error
	)
	switch {
	case m.Envelope != nil:
		raw, err = json.Marshal(m.Envelope)
	case m.Binary != nil:
		raw, err = json.Marshal(m.Binary)
	}
	if err != nil {
		return nil, err
	}
	if raw != nil {
		out["payload"] = raw
	}
	return json.Marshal(out)
}

// HasPayload reports whether the message carries an envelope or bytes.
func (m *Message) HasPayload() bool {
	return m.Envelope != nil || m.Binary != nil
}

// Prop returns a string property of the message, or "" if it is missing
// or not a string.
func (m *Message) Prop(name string) string {
	var s string
	if raw, ok := m.extra[name]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// DeleteProp removes a property from the message.
func (m *Message) DeleteProp(name string) {
	delete(m.extra, name)
}

// WithBinary returns a message carrying b as its payload and the same
// properties as m.
func (m *Message) WithBinary(b []byte) *Message {
	if b == nil {
		b = []byte{}
	}
	return &Message{Binary: b, extra: maps.Clone(m.extra)}
}

// DecodeObject parses a JSON object keeping numbers as json.Number so that
// 64-bit values survive re-encoding.
func DecodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("not an object")
	}
	return obj, nil
}

// parseNodeNum accepts a JSON number or a node id string in the "!1a2b3c4d"
// form Meshtastic clients display, limited to bits.
func parseNodeNum(raw json.RawMessage, bits int) (uint64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if !strings.HasPrefix(s, "!") {
			return 0, fmt.Errorf("node id %q lacks '!' prefix", s)
		}
		v, err := strconv.ParseUint(s[1:], 16, bits)
		if err != nil {
			return 0, fmt.Errorf("node id %q: %w", s, err)
		}
		return v, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	if v, err := strconv.ParseUint(n.String(), 10, bits); err == nil {
		return v, nil
	}
	limit := math.Ldexp(1, bits)
	f, err := n.Float64()
	if err != nil || f < 0 || f >= limit || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not a %d-bit unsigned integer", n, bits)
	}
	return uint64(f), nil
}
