package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/WJ4IoT/meshcodec/internal/codec"
	"github.com/WJ4IoT/meshcodec/internal/config"
	"github.com/WJ4IoT/meshcodec/internal/crypto"
	"github.com/WJ4IoT/meshcodec/internal/flow"
	"github.com/WJ4IoT/meshcodec/internal/meshpb"
	"github.com/WJ4IoT/meshcodec/internal/node"
	"github.com/WJ4IoT/meshcodec/internal/seen"
)

var rootCmd = &cobra.Command{
	Use:   "meshcodec",
	Short: "Decrypt, decode and encode Meshtastic packets.",
	Long: `meshcodec reads JSON messages, one per line, and writes JSON messages.

decode  decrypts packet.encrypted with the channel key and attaches
        packet.decoded, the Data message with its port payload decoded.
encode  serializes a decoded envelope to ServiceEnvelope wire bytes.

Without a configured key the public default channel key is used. Traffic
under that key is readable by anyone.`,
	SilenceUsage: true,
}

// env is what every pipeline command shares.
type env struct {
	cfg    *config.Config
	status *flow.LogStatus
	schema *meshpb.Schema
	codecs *codec.Registry
	key    crypto.Key
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("key") {
		cfg.Key, _ = flags.GetString("key")
		cfg.KeyFile = ""
	}
	if flags.Changed("key-file") {
		cfg.KeyFile, _ = flags.GetString("key-file")
		cfg.Key = ""
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("ledger") {
		cfg.Ledger, _ = flags.GetString("ledger")
	}

	level, err := flow.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	key, err := cfg.ChannelKey()
	if err != nil {
		return nil, err
	}
	schema, err := meshpb.Load()
	if err != nil {
		return nil, err
	}
	codecs, err := codec.Default(schema)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		status: flow.NewLogStatus(log.New(os.Stderr, "meshcodec: ", log.LstdFlags), level),
		schema: schema,
		codecs: codecs,
		key:    key,
	}, nil
}

// openLedger returns a nil Ledger when none is configured.
func (e *env) openLedger() (seen.Ledger, func() error, error) {
	switch e.cfg.Ledger {
	case "":
		return nil, func() error { return nil }, nil
	case config.LedgerMemory:
		return seen.New(e.cfg.LedgerWindow), func() error { return nil }, nil
	default:
		st, err := seen.Open(e.cfg.Ledger, e.cfg.LedgerWindow)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
}

// run drives h over --in and writes to --out until EOF or a signal.
func (e *env) run(cmd *cobra.Command, verb string, h flow.Handler) (flow.Stats, error) {
	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")

	var in io.Reader = os.Stdin
	if inPath != "" && inPath != "-" {
		f, err := os.Open(inPath)
		if err != nil {
			return flow.Stats{}, err
		}
		defer f.Close()
		in = f
	}
	var out io.Writer = os.Stdout
	if outPath != "" && outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return flow.Stats{}, err
		}
		defer f.Close()
		out = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := &flow.Runtime{Status: e.status, PassInvalid: verb == "decode"}
	stats, err := rt.Run(ctx, in, out, h)
	e.status.Infof("%s: %d in, %d out, %d failed, %d invalid, %d errors, %d warnings",
		verb, stats.In, stats.Out, stats.Failed, stats.Bad, e.status.Errors(), e.status.Warnings())
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return stats, err
}

func (e *env) warnDefaultKey(what string) {
	e.status.Warnf("%s with the public default channel key; set key or key_file to use a private channel", what)
}

// ─── decode ──────────────────────────────────────────────────────────────────

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decrypt and decode packets (always forwards every message)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		ledger, closeLedger, err := e.openLedger()
		if err != nil {
			return err
		}
		defer closeLedger()

		dec, err := node.NewDecoder(node.DecoderConfig{
			Schema: e.schema,
			Codecs: e.codecs,
			Key:    e.key,
			Ledger: ledger,
		})
		if err != nil {
			return err
		}
		if dec.UsesDefaultKey() {
			e.warnDefaultKey("decrypting")
		}

		stats, err := e.run(cmd, "decode", dec)
		if err != nil {
			return err
		}
		if stats.Bad > 0 {
			return fmt.Errorf("%d of %d inputs were not valid messages and were forwarded as read", stats.Bad, stats.In)
		}
		return nil
	},
}

// ─── encode ──────────────────────────────────────────────────────────────────

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode decoded envelopes to ServiceEnvelope bytes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("encrypt") {
			e.cfg.Encrypt, _ = cmd.Flags().GetBool("encrypt")
		}

		enc, err := node.NewEncoder(node.EncoderConfig{
			Schema:  e.schema,
			Codecs:  e.codecs,
			Encrypt: e.cfg.Encrypt,
			Key:     e.key,
		})
		if err != nil {
			return err
		}
		if enc.UsesDefaultKey() {
			e.warnDefaultKey("encrypting")
		}

		stats, err := e.run(cmd, "encode", enc)
		if err != nil {
			return err
		}
		if stats.Failed+stats.Bad > 0 {
			return fmt.Errorf("%d of %d messages were not encoded", stats.Failed+stats.Bad, stats.In)
		}
		return nil
	},
}

// ─── ports ───────────────────────────────────────────────────────────────────

var portsCmd = &cobra.Command{
	Use:   "ports [port...]",
	Short: "List the payload codec for every port number, or for the given ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		codecs, err := codec.Default(meshpb.MustLoad())
		if err != nil {
			return err
		}
		rows := codecs.Ports()
		if len(args) > 0 {
			rows = make([]codec.Row, 0, len(args))
			for _, arg := range args {
				port, ok := meshpb.ParsePortNum(arg)
				if !ok {
					return fmt.Errorf("%q is not a port name or number", arg)
				}
				r, err := codecs.Describe(port)
				if err != nil {
					return err
				}
				rows = append(rows, r)
			}
		}
		w := cmd.OutOrStdout()

		switch format {
		case "table":
			fmt.Fprintf(w, "%-5s %-28s %s\n", "PORT", "NAME", "CODEC")
			for _, r := range rows {
				fmt.Fprintf(w, "%-5d %-28s %s\n", r.Port, r.Name, r.Codec)
			}
			return nil
		case "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		case "yaml":
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(rows); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown output format %q (table, json, yaml)", format)
		}
	},
}

// ─── keygen ──────────────────────────────────────────────────────────────────

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random channel key",
	RunE: func(cmd *cobra.Command, args []string) error {
		bits, _ := cmd.Flags().GetInt("bits")
		k, err := crypto.GenerateKey(bits / 8)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), k.Base64())
		fmt.Fprintf(cmd.ErrOrStderr(), "AES-%d channel key, fingerprint %s\n", bits, k.Fingerprint())
		return nil
	},
}

// ─── ledger ──────────────────────────────────────────────────────────────────

var ledgerCmd = &cobra.Command{
	Use:   "ledger <path>",
	Short: "Show how many nonces a ledger file holds per key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := seen.Open(args[0], 0)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.Count()
		if err != nil {
			return err
		}
		fps := make([]string, 0, len(counts))
		for fp := range counts {
			fps = append(fps, fp)
		}
		sort.Strings(fps)
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Ledger : %s\n", args[0])
		fmt.Fprintf(w, "Keys   : %d\n", len(fps))
		for _, fp := range fps {
			fmt.Fprintf(w, "  %-10s %d nonces\n", fp, counts[fp])
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{decodeCmd, encodeCmd} {
		cmd.Flags().String("config", config.DefaultPath(), "Config file")
		cmd.Flags().String("key", "", "Base64 channel key (default: the public default key)")
		cmd.Flags().String("key-file", "", "File holding the base64 channel key")
		cmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
		cmd.Flags().String("in", "-", "Input file of JSON messages (- for stdin)")
		cmd.Flags().String("out", "-", "Output file (- for stdout)")
	}
	decodeCmd.Flags().String("ledger", "", "Nonce ledger: memory, or a bbolt file path (default: off)")
	encodeCmd.Flags().Bool("encrypt", false, "Send packets encrypted with the channel key")

	portsCmd.Flags().StringP("output", "o", "table", "Output format: table, json, yaml")
	keygenCmd.Flags().Int("bits", 128, "Key size: 128 or 256")

	rootCmd.AddCommand(decodeCmd, encodeCmd, portsCmd, keygenCmd, ledgerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
