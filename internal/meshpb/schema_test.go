package meshpb

import (
	"encoding/json"
	"errors"
	"testing"

	"google.golang.org/protobuf/proto"
)

func TestLoadDeclaresPipelineTypes(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, name := range []string{
		ServiceEnvelope, MeshPacket, Data,
		"meshtastic.Position", "meshtastic.User", "meshtastic.Routing",
		"meshtastic.AdminMessage", "meshtastic.Waypoint", "meshtastic.HardwareMessage",
		"meshtastic.StoreAndForward", "meshtastic.Telemetry", "meshtastic.NeighborInfo",
		"meshtastic.RouteDiscovery", "meshtastic.Paxcount",
	} {
		if !s.Has(name) {
			t.Errorf("schema missing %s", name)
		}
	}
}

func TestUnknownType(t *testing.T) {
	s := MustLoad()
	if _, err := s.New("meshtastic.Nope"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	// Enums are not messages.
	if _, err := s.New("meshtastic.PortNum"); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType for enum, got %v", err)
	}
}

func TestDataBinaryRoundtrip(t *testing.T) {
	s := MustLoad()
	in, err := s.FromJSON(Data, []byte(`{"portnum":"TEXT_MESSAGE_APP","payload":"aGVsbG8=","wantResponse":true}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	wire, err := s.ToBinary(in)
	if err != nil {
		t.Fatalf("ToBinary: %v", err)
	}
	out, err := s.FromBinary(Data, wire)
	if err != nil {
		t.Fatalf("FromBinary: %v", err)
	}
	if !proto.Equal(in, out) {
		t.Fatal("message changed across binary round trip")
	}
}

func TestToJSONEmitsDefaultsAndEnumNumbers(t *testing.T) {
	s := MustLoad()
	m, err := s.FromJSON(Data, []byte(`{"portnum":"POSITION_APP"}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.ToJSON(m)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["portnum"] != float64(PositionApp) {
		t.Fatalf("portnum rendered as %v", got["portnum"])
	}
	for _, key := range []string{"payload", "wantResponse", "requestId", "replyId"} {
		if _, ok := got[key]; !ok {
			t.Errorf("default field %q not emitted", key)
		}
	}
}

func TestServiceEnvelopeJSONNames(t *testing.T) {
	s := MustLoad()
	env, err := s.FromJSON(ServiceEnvelope, []byte(`{
		"packet": {"from": 1, "to": 4294967295, "id": 7, "hopLimit": 3,
			"decoded": {"portnum": 1, "payload": "aGk="}},
		"channelId": "LongFast",
		"gatewayId": "!abcd1234"
	}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	wire, err := s.ToBinary(env)
	if err != nil {
		t.Fatal(err)
	}
	back, err := s.FromBinary(ServiceEnvelope, wire)
	if err != nil {
		t.Fatal(err)
	}
	if !proto.Equal(env, back) {
		t.Fatal("envelope changed across binary round trip")
	}
}

func TestFromJSONRejectsUnknownField(t *testing.T) {
	s := MustLoad()
	if _, err := s.FromJSON(Data, []byte(`{"bogus": 1}`)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestPortNumNames(t *testing.T) {
	tests := []struct {
		in   string
		want PortNum
		ok   bool
	}{
		{"TEXT_MESSAGE_APP", TextMessageApp, true},
		{"TELEMETRY_APP", TelemetryApp, true},
		{"67", TelemetryApp, true},
		{"NOT_A_PORT", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParsePortNum(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParsePortNum(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	if TextMessageApp.String() != "TEXT_MESSAGE_APP" {
		t.Fatalf("String() = %q", TextMessageApp.String())
	}
	if PortNum(300).String() != "PORTNUM_300" {
		t.Fatalf("String() = %q", PortNum(300).String())
	}
}
