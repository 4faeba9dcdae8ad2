package codec

import (
	"errors"
	"testing"

	"github.com/WJ4IoT/meshcodec/internal/meshpb"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Default(meshpb.MustLoad())
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return r
}

func TestLookupStableForEveryRegisteredPort(t *testing.T) {
	r := newTestRegistry(t)
	for port, want := range DefaultEntries() {
		for i := 0; i < 3; i++ {
			got, err := r.Lookup(port)
			if err != nil {
				t.Fatalf("Lookup(%s): %v", port, err)
			}
			if got != want {
				t.Fatalf("Lookup(%s) = %s, want %s", port, got, want)
			}
		}
	}
}

func TestLookupKnownEntries(t *testing.T) {
	r := newTestRegistry(t)
	tests := []struct {
		port meshpb.PortNum
		want Entry
	}{
		{meshpb.UnknownApp, AbsentEntry()},
		{meshpb.TextMessageApp, TextEntry("utf-8")},
		{meshpb.RangeTestApp, TextEntry("ascii")},
		{meshpb.PositionApp, StructEntry("meshtastic.Position")},
		{meshpb.TelemetryApp, StructEntry("meshtastic.Telemetry")},
		{meshpb.TracerouteApp, StructEntry("meshtastic.RouteDiscovery")},
		{meshpb.AudioApp, AbsentEntry()},
	}
	for _, tc := range tests {
		got, err := r.Lookup(tc.port)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", tc.port, err)
		}
		if got != tc.want {
			t.Errorf("Lookup(%s) = %s, want %s", tc.port, got, tc.want)
		}
	}
}

func TestLookupUnknownPort(t *testing.T) {
	r := newTestRegistry(t)
	for _, port := range []meshpb.PortNum{meshpb.MapReportApp, meshpb.AtakPlugin, 999} {
		if _, err := r.Lookup(port); !errors.Is(err, ErrUnknownPort) {
			t.Fatalf("Lookup(%s): expected ErrUnknownPort, got %v", port, err)
		}
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	schema := meshpb.MustLoad()
	if _, err := New(schema, map[meshpb.PortNum]Entry{
		meshpb.PositionApp: StructEntry("meshtastic.DoesNotExist"),
	}); !errors.Is(err, meshpb.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if _, err := New(schema, map[meshpb.PortNum]Entry{
		meshpb.TextMessageApp: TextEntry("klingon"),
	}); err == nil {
		t.Fatal("expected error for unknown text encoding")
	}
	if _, err := New(schema, map[meshpb.PortNum]Entry{
		meshpb.TextMessageApp: {Kind: Kind(9)},
	}); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestPortsSorted(t *testing.T) {
	rows := newTestRegistry(t).Ports()
	if len(rows) != len(DefaultEntries()) {
		t.Fatalf("got %d rows", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Port >= rows[i].Port {
			t.Fatalf("rows not sorted at %d", i)
		}
	}
	if rows[1].Name != "TEXT_MESSAGE_APP" || rows[1].Codec != "text(utf-8)" {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestTextCodecs(t *testing.T) {
	r := newTestRegistry(t)

	utf8, err := r.Text(TextEntry("utf-8"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := utf8.Decode([]byte("héllo ✓"))
	if err != nil || s != "héllo ✓" {
		t.Fatalf("utf-8 decode = %q, %v", s, err)
	}
	s, _ = utf8.Decode([]byte{'a', 0xff, 'b'})
	if s != "a�b" {
		t.Fatalf("invalid utf-8 should be replaced, got %q", s)
	}

	// WHATWG maps the "ascii" label to windows-1252.
	ascii, err := r.Text(TextEntry("ascii"))
	if err != nil {
		t.Fatal(err)
	}
	s, _ = ascii.Decode([]byte{'s', 'e', 'q', ' ', '1', 0xe9})
	if s != "seq 1é" {
		t.Fatalf("ascii decode = %q", s)
	}

	if _, err := r.Text(AbsentEntry()); err == nil {
		t.Fatal("expected error for non-text entry")
	}
}
