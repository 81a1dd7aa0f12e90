// Package sse decodes the generation backend's frame stream. Each frame is a
// "data:"-prefixed JSON payload terminated by a blank line; chunk boundaries
// carry no meaning and never align with frame boundaries.
package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"pkt.systems/pslog"

	"github.com/appforge-dev/appforge/schema"
)

// DecodeError reports a single malformed frame. The decoder skips these and
// keeps going; they surface only through logs.
type DecodeError struct {
	payload []byte
	err     error
}

func (e *DecodeError) Error() string {
	if e == nil || e.err == nil {
		return "frame decode error"
	}
	return e.err.Error()
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Payload returns the raw frame payload that failed to decode.
func (e *DecodeError) Payload() []byte {
	if e == nil {
		return nil
	}
	return e.payload
}

// Decoder turns a streaming response body into typed frames. It owns a
// carry-over buffer, so callers may feed it a reader chunked at arbitrary
// byte boundaries.
type Decoder struct {
	reader *bufio.Reader
	log    pslog.Logger
	data   []string
}

// NewDecoder wraps r. The logger records skipped malformed frames.
func NewDecoder(r io.Reader, log pslog.Logger) *Decoder {
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Decoder{reader: bufio.NewReader(r), log: log}
}

// Next returns the next decoded frame. A malformed frame is logged and
// skipped; it never aborts decoding of subsequent frames. When the stream
// ends, any unterminated trailing frame is discarded and io.EOF is returned.
func (d *Decoder) Next(ctx context.Context) (schema.Frame, error) {
	for {
		if ctx.Err() != nil {
			return schema.Frame{}, ctx.Err()
		}
		line, err := d.reader.ReadString('\n')
		if len(line) == 0 && err != nil {
			return schema.Frame{}, streamErr(err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			frame, ok := d.dispatch()
			if ok {
				return frame, nil
			}
			if err != nil {
				return schema.Frame{}, streamErr(err)
			}
			continue
		}
		d.consume(line)
		if err != nil {
			// Stream ended mid-frame: the trailing partial is dropped.
			d.data = nil
			return schema.Frame{}, streamErr(err)
		}
	}
}

func (d *Decoder) consume(line string) {
	switch {
	case strings.HasPrefix(line, ":"):
		// Comment / keepalive line.
	case strings.HasPrefix(line, "data:"):
		d.data = append(d.data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
	default:
		// Field lines other than data (event:, id:, retry:) carry nothing the
		// payload's type discriminator does not already say.
	}
}

// dispatch decodes the accumulated frame, if any. Malformed payloads are
// logged and dropped.
func (d *Decoder) dispatch() (schema.Frame, bool) {
	if len(d.data) == 0 {
		return schema.Frame{}, false
	}
	payload := []byte(strings.Join(d.data, "\n"))
	d.data = nil
	frame, err := decodeFrame(payload)
	if err != nil {
		decodeErr := &DecodeError{payload: payload, err: err}
		d.log.Warn("frame decode failed", "err", decodeErr, "payload_bytes", len(payload))
		return schema.Frame{}, false
	}
	return frame, true
}

func decodeFrame(payload []byte) (schema.Frame, error) {
	var frame schema.Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return schema.Frame{}, err
	}
	if frame.Type == "" {
		return schema.Frame{}, schema.ErrUnknownFrame
	}
	frame.Raw = append(json.RawMessage(nil), payload...)
	return frame, nil
}

func streamErr(err error) error {
	if err == io.EOF {
		return io.EOF
	}
	return err
}

// DecodeAll drains the decoder, returning every frame until EOF. Intended for
// tests and tooling, not the streaming path.
func DecodeAll(ctx context.Context, r io.Reader, log pslog.Logger) ([]schema.Frame, error) {
	dec := NewDecoder(r, log)
	var frames []schema.Frame
	for {
		frame, err := dec.Next(ctx)
		if err != nil {
			if err == io.EOF {
				return frames, nil
			}
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// Encode writes a frame in the wire format consumed by the decoder. The mock
// backend and tests share it so wire conventions live in one place.
func Encode(w io.Writer, frame schema.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("data: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	_, err = w.Write(buf.Bytes())
	return err
}
