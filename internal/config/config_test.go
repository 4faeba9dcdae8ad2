package config

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/WJ4IoT/meshcodec/internal/crypto"
)

func writeConfig(t *testing.T, body string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" || cfg.LedgerWindow != 10*time.Minute || cfg.Ledger != "" {
		t.Fatalf("defaults = %+v", cfg)
	}
	k, err := cfg.ChannelKey()
	if err != nil || k != nil {
		t.Fatalf("ChannelKey = %v, %v", k, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
key: AQIDBAUGBwgJCgsMDQ4PEA==
log_level: debug
ledger: memory
ledger_window: 90s
encrypt: true
`, 0600)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.Ledger != LedgerMemory || cfg.LedgerWindow != 90*time.Second || !cfg.Encrypt {
		t.Fatalf("cfg = %+v", cfg)
	}
	k, err := cfg.ChannelKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(k) != crypto.KeySize128 || k[0] != 1 || k[15] != 16 {
		t.Fatalf("key = %v", []byte(k))
	}
}

func TestLoadWarnsOnOpenPermissions(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	if _, err := Load(writeConfig(t, "key: "+crypto.DefaultKeyBase64+"\n", 0644)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0644") {
		t.Fatalf("no permission warning, log: %q", buf.String())
	}

	buf.Reset()
	if _, err := Load(writeConfig(t, "log_level: warn\n", 0644)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("warned about a file without a key: %q", buf.String())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "ledger_window: [1, 2]\n", 0600)); err == nil {
		t.Fatal("expected error")
	}
}

func TestChannelKey(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "psk")
	os.WriteFile(keyFile, []byte(crypto.DefaultKeyBase64+"\n"), 0600)

	tests := []struct {
		name    string
		cfg     Config
		want    crypto.Key
		wantErr error
	}{
		{"inline", Config{Key: crypto.DefaultKeyBase64}, crypto.DefaultKey(), nil},
		{"file", Config{KeyFile: keyFile}, crypto.DefaultKey(), nil},
		{"short", Config{Key: "AQID"}, nil, crypto.ErrInvalidKeyLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			k, err := tc.cfg.ChannelKey()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(k, tc.want) {
				t.Fatalf("key = %s, want %s", k, tc.want)
			}
		})
	}

	if _, err := (&Config{Key: crypto.DefaultKeyBase64, KeyFile: keyFile}).ChannelKey(); err == nil {
		t.Fatal("expected error when both key and key_file are set")
	}
}
