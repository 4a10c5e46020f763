package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Encoder writes one protocol message per line to an io.Writer, mirroring
// the framing pkg/micro_runner/protocol.Encoder used for the micro-runner
// wire format: one marshaled JSON object terminated by a newline, flushed
// immediately so a blocking reader on the other end of a pipe observes it
// without delay.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode marshals v and writes it as one line.
func (e *Encoder) Encode(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return e.w.Flush()
}

// Decoder reads one protocol message per line from an io.Reader.
type Decoder struct {
	sc *bufio.Scanner
}

// NewDecoder creates a Decoder reading from r. The scan buffer is sized
// generously since a `set` request may carry many symbol assignments on
// one line.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	const maxCapacity = 8 * 1024 * 1024
	sc.Buffer(make([]byte, 0, 64*1024), maxCapacity)
	return &Decoder{sc: sc}
}

// Decode reads the next line and unmarshals it into v. It returns io.EOF
// when the input stream is exhausted.
func (d *Decoder) Decode(v interface{}) error {
	if !d.sc.Scan() {
		if err := d.sc.Err(); err != nil {
			return fmt.Errorf("scan request: %w", err)
		}
		return io.EOF
	}
	line := d.sc.Bytes()
	if len(line) == 0 {
		return fmt.Errorf("empty request line")
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}
	return nil
}
