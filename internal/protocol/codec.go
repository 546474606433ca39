package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrInvalidInstruction reports an instruction that cannot be encoded or decoded.
var ErrInvalidInstruction = errors.New("invalid instruction")

// maxLineBytes bounds a single message; error details carry compiler output.
const maxLineBytes = 4 << 20

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

// writeLine encodes v as one JSON line. Encoder.Encode appends the newline.
func writeLine(mu *sync.Mutex, w io.Writer, v any) error {
	mu.Lock()
	defer mu.Unlock()
	return json.NewEncoder(w).Encode(v)
}

// ReportWriter writes worker reports. Safe for concurrent use.
type ReportWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewReportWriter returns a writer that emits one JSON report per line to w.
func NewReportWriter(w io.Writer) *ReportWriter {
	return &ReportWriter{w: w}
}

// Write encodes r as a single line. Violations cannot be written.
func (rw *ReportWriter) Write(r Report) error {
	msg, err := reportToWire(r)
	if err != nil {
		return err
	}
	if err := writeLine(&rw.mu, rw.w, msg); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReportReader reads worker reports one line at a time.
type ReportReader struct {
	scanner *bufio.Scanner
}

// NewReportReader returns a reader over a worker's stdout.
func NewReportReader(r io.Reader) *ReportReader {
	return &ReportReader{scanner: newLineScanner(r)}
}

// Read returns the next report. Lines that are not valid report JSON produce
// a ReportViolation; blank lines are skipped. io.EOF marks a closed stream.
func (rr *ReportReader) Read() (Report, error) {
	for rr.scanner.Scan() {
		line := bytes.TrimSpace(rr.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg reportMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return Violation(fmt.Sprintf("malformed report %q: %v", truncate(line), err)), nil
		}
		return reportFromWire(msg), nil
	}
	if err := rr.scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("read report: %w", err)
	}
	return Report{}, io.EOF
}

// InstructionWriter writes coordinator instructions. Safe for concurrent use.
type InstructionWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewInstructionWriter returns a writer that emits one JSON instruction per
// line to w, typically a worker's stdin.
func NewInstructionWriter(w io.Writer) *InstructionWriter {
	return &InstructionWriter{w: w}
}

// Write encodes in as a single line.
func (iw *InstructionWriter) Write(in Instruction) error {
	msg, err := instructionToWire(in)
	if err != nil {
		return err
	}
	if err := writeLine(&iw.mu, iw.w, msg); err != nil {
		return fmt.Errorf("write instruction: %w", err)
	}
	return nil
}

// InstructionReader reads coordinator instructions one line at a time.
type InstructionReader struct {
	scanner *bufio.Scanner
}

// NewInstructionReader returns a reader over the worker side of stdin.
func NewInstructionReader(r io.Reader) *InstructionReader {
	return &InstructionReader{scanner: newLineScanner(r)}
}

// Read returns the next instruction or io.EOF once stdin is closed.
func (ir *InstructionReader) Read() (Instruction, error) {
	for ir.scanner.Scan() {
		line := bytes.TrimSpace(ir.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg instructionMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return Instruction{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return instructionFromWire(msg)
	}
	if err := ir.scanner.Err(); err != nil {
		return Instruction{}, fmt.Errorf("read instruction: %w", err)
	}
	return Instruction{}, io.EOF
}

func truncate(line []byte) string {
	const limit = 120
	if len(line) <= limit {
		return string(line)
	}
	return string(line[:limit]) + "..."
}
