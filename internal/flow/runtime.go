package flow

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Handler is a pipeline node. It receives one message, may send any number
// of messages downstream, and returns once it is done with the input. A
// returned error means the node failed the message; the runtime records it
// and moves on to the next one.
type Handler interface {
	Handle(msg *Message, send func(*Message), st Status) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(msg *Message, send func(*Message), st Status) error

func (f HandlerFunc) Handle(msg *Message, send func(*Message), st Status) error {
	return f(msg, send, st)
}

// Stats summarises one Run.
type Stats struct {
	In     int // messages read
	Out    int // messages sent
	Failed int // messages the handler returned an error for
	Bad    int // inputs that were not valid messages
}

// Runtime drives a Handler over a stream of JSON messages, one at a time.
// Each message is handled to completion before the next is read.
type Runtime struct {
	Status Status

	// PassInvalid writes inputs that are not valid messages to out as read
	// instead of dropping them. They still count as Bad.
	PassInvalid bool
}

// Run reads JSON messages from in until EOF or ctx is cancelled and writes
// every sent message to out as one JSON line.
func (r *Runtime) Run(ctx context.Context, in io.Reader, out io.Writer, h Handler) (Stats, error) {
	var stats Stats
	dec := json.NewDecoder(bufio.NewReader(in))
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var sendErr error
	send := func(m *Message) {
		if sendErr != nil {
			return
		}
		if err := enc.Encode(m); err != nil {
			sendErr = fmt.Errorf("flow: write: %w", err)
			return
		}
		stats.Out++
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, errors.Join(err, w.Flush())
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, w.Flush()
			}
			return stats, errors.Join(fmt.Errorf("flow: read: %w", err), w.Flush())
		}
		stats.In++

		msg := new(Message)
		if err := json.Unmarshal(raw, msg); err != nil {
			stats.Bad++
			r.Status.Error(fmt.Errorf("flow: message %d: %w", stats.In, err))
			if r.PassInvalid {
				if err := writeRaw(w, raw); err != nil {
					return stats, err
				}
				stats.Out++
			}
			continue
		}
		if err := h.Handle(msg, send, r.Status); err != nil {
			stats.Failed++
			r.Status.Debugf("flow: message %d dropped: %v", stats.In, err)
		}
		if sendErr != nil {
			return stats, errors.Join(sendErr, w.Flush())
		}
		if err := w.Flush(); err != nil {
			return stats, fmt.Errorf("flow: write: %w", err)
		}
	}
}

func writeRaw(w *bufio.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flow: write: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flow: write: %w", err)
	}
	return nil
}
