package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/WJ4IoT/meshcodec/internal/codec"
	"github.com/WJ4IoT/meshcodec/internal/meshpb"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPortsOutputs(t *testing.T) {
	out, err := execute(t, "ports", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []codec.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 || rows[1].Name != "TEXT_MESSAGE_APP" || rows[1].Codec != "text(utf-8)" {
		t.Fatalf("rows = %+v", rows)
	}

	out, err = execute(t, "ports", "-o", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var yrows []codec.Row
	if err := yaml.Unmarshal([]byte(out), &yrows); err != nil {
		t.Fatal(err)
	}
	if len(yrows) != len(rows) {
		t.Fatalf("yaml rows %d, json rows %d", len(yrows), len(rows))
	}

	out, err = execute(t, "ports", "-o", "table")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "struct(meshtastic.Position)") {
		t.Fatalf("table:\n%s", out)
	}

	if _, err := execute(t, "ports", "-o", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPortsSelected(t *testing.T) {
	out, err := execute(t, "ports", "-o", "json", "RANGE_TEST_APP", "67")
	if err != nil {
		t.Fatal(err)
	}
	var rows []codec.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	want := []codec.Row{
		{Port: meshpb.RangeTestApp, Name: "RANGE_TEST_APP", Codec: "text(ascii)"},
		{Port: meshpb.TelemetryApp, Name: "TELEMETRY_APP", Codec: "struct(meshtastic.Telemetry)"},
	}
	if len(rows) != len(want) || rows[0] != want[0] || rows[1] != want[1] {
		t.Fatalf("rows = %+v", rows)
	}

	for _, bad := range []string{"NOT_A_PORT", "300"} {
		if _, err := execute(t, "ports", "-o", "json", bad); err == nil {
			t.Fatalf("%s: expected error", bad)
		}
	}
}

func TestEncodeThenDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	in := filepath.Join(dir, "in.jsonl")
	wire := filepath.Join(dir, "wire.jsonl")
	os.WriteFile(in, []byte(`{"topic":"msh/test","payload":{"packet":{"from":1,"to":2,"id":3,"decoded":{"portnum":1,"payload":"hi"}}}}`+"\n"), 0600)

	if _, err := execute(t, "encode", "--config", cfg, "--in", in, "--out", wire, "--log-level", "error"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(wire)
	if err != nil {
		t.Fatal(err)
	}
	var msg struct {
		Topic   string `json:"topic"`
		Payload []byte `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Topic != "msh/test" || !bytes.Contains(msg.Payload, []byte("hi")) {
		t.Fatalf("encoded message %s", data)
	}
}

func TestKeygen(t *testing.T) {
	out, err := execute(t, "keygen", "--bits", "256")
	if err != nil {
		t.Fatal(err)
	}
	if len(strings.TrimSpace(out)) != 44 {
		t.Fatalf("key %q", out)
	}
	if _, err := execute(t, "keygen", "--bits", "192"); err == nil {
		t.Fatal("expected error for 192-bit key")
	}
}
