// Package codec maps Meshtastic port numbers to the codec that interprets
// Data.payload: nothing (opaque bytes), text in a named encoding, or a
// structured protobuf message.
package codec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/WJ4IoT/meshcodec/internal/meshpb"
)

// ErrUnknownPort is returned for port numbers without a registry entry. It
// signals an incomplete table, unlike an explicit Absent entry.
var ErrUnknownPort = errors.New("codec: unknown port")

// Kind discriminates Entry.
type Kind uint8

const (
	Absent Kind = iota
	Text
	Struct
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "none"
	case Text:
		return "text"
	case Struct:
		return "struct"
	default:
		return "invalid"
	}
}

// Entry is one row of the registry. Encoding is set for Text entries and
// TypeName for Struct entries.
type Entry struct {
	Kind     Kind
	Encoding string
	TypeName string
}

func AbsentEntry() Entry { return Entry{Kind: Absent} }

func TextEntry(encoding string) Entry { return Entry{Kind: Text, Encoding: encoding} }

func StructEntry(typeName string) Entry { return Entry{Kind: Struct, TypeName: typeName} }

func (e Entry) String() string {
	switch e.Kind {
	case Text:
		return "text(" + e.Encoding + ")"
	case Struct:
		return "struct(" + e.TypeName + ")"
	default:
		return e.Kind.String()
	}
}

// Registry is read-only after construction.
type Registry struct {
	entries map[meshpb.PortNum]Entry
	texts   map[string]*TextCodec
}

// New validates entries against the schema and the encoding index and
// builds the registry.
func New(schema *meshpb.Schema, entries map[meshpb.PortNum]Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[meshpb.PortNum]Entry, len(entries)),
		texts:   make(map[string]*TextCodec),
	}
	for port, e := range entries {
		switch e.Kind {
		case Absent:
		case Text:
			if _, ok := r.texts[e.Encoding]; !ok {
				tc, err := NewTextCodec(e.Encoding)
				if err != nil {
					return nil, fmt.Errorf("codec: %s: %w", port, err)
				}
				r.texts[e.Encoding] = tc
			}
		case Struct:
			if !schema.Has(e.TypeName) {
				return nil, fmt.Errorf("codec: %s: %w: %s", port, meshpb.ErrUnknownType, e.TypeName)
			}
		default:
			return nil, fmt.Errorf("codec: %s: invalid entry kind %d", port, e.Kind)
		}
		r.entries[port] = e
	}
	return r, nil
}

// Default builds the standard Meshtastic table.
func Default(schema *meshpb.Schema) (*Registry, error) {
	return New(schema, DefaultEntries())
}

// DefaultEntries returns a fresh copy of the standard port table.
func DefaultEntries() map[meshpb.PortNum]Entry {
	return map[meshpb.PortNum]Entry{
		meshpb.UnknownApp:               AbsentEntry(),
		meshpb.TextMessageApp:           TextEntry("utf-8"),
		meshpb.RemoteHardwareApp:        StructEntry("meshtastic.HardwareMessage"),
		meshpb.PositionApp:              StructEntry("meshtastic.Position"),
		meshpb.NodeInfoApp:              StructEntry("meshtastic.User"),
		meshpb.RoutingApp:               StructEntry("meshtastic.Routing"),
		meshpb.AdminApp:                 StructEntry("meshtastic.AdminMessage"),
		meshpb.TextMessageCompressedApp: AbsentEntry(),
		meshpb.WaypointApp:              StructEntry("meshtastic.Waypoint"),
		meshpb.AudioApp:                 AbsentEntry(),
		meshpb.DetectionSensorApp:       TextEntry("utf-8"),
		meshpb.AlertApp:                 TextEntry("utf-8"),
		meshpb.ReplyApp:                 TextEntry("ascii"),
		meshpb.IPTunnelApp:              AbsentEntry(),
		meshpb.PaxcounterApp:            StructEntry("meshtastic.Paxcount"),
		meshpb.SerialApp:                AbsentEntry(),
		meshpb.StoreForwardApp:          StructEntry("meshtastic.StoreAndForward"),
		meshpb.RangeTestApp:             TextEntry("ascii"),
		meshpb.TelemetryApp:             StructEntry("meshtastic.Telemetry"),
		meshpb.ZPSApp:                   AbsentEntry(),
		meshpb.SimulatorApp:             AbsentEntry(),
		meshpb.TracerouteApp:            StructEntry("meshtastic.RouteDiscovery"),
		meshpb.NeighborInfoApp:          StructEntry("meshtastic.NeighborInfo"),
		meshpb.PrivateApp:               AbsentEntry(),
		meshpb.AtakForwarder:            AbsentEntry(),
	}
}

// Lookup returns the entry for port, or ErrUnknownPort.
func (r *Registry) Lookup(port meshpb.PortNum) (Entry, error) {
	e, ok := r.entries[port]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownPort, port)
	}
	return e, nil
}

// Text returns the codec for a Text entry's encoding.
func (r *Registry) Text(e Entry) (*TextCodec, error) {
	tc, ok := r.texts[e.Encoding]
	if e.Kind != Text || !ok {
		return nil, fmt.Errorf("codec: no text codec for %s", e)
	}
	return tc, nil
}

// Row is one line of the table as listed by Ports.
type Row struct {
	Port  meshpb.PortNum `json:"port" yaml:"port"`
	Name  string         `json:"name" yaml:"name"`
	Codec string         `json:"codec" yaml:"codec"`
}

// Ports lists the registered ports in ascending order.
func (r *Registry) Ports() []Row {
	out := make([]Row, 0, len(r.entries))
	for port, e := range r.entries {
		out = append(out, rowOf(port, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}

// Describe returns the row for a single port.
func (r *Registry) Describe(port meshpb.PortNum) (Row, error) {
	e, err := r.Lookup(port)
	if err != nil {
		return Row{}, err
	}
	return rowOf(port, e), nil
}

func rowOf(port meshpb.PortNum, e Entry) Row {
	return Row{Port: port, Name: port.String(), Codec: e.String()}
}
