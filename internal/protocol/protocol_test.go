package protocol_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"iconbuild/internal/protocol"
)

func TestReportWireFormat(t *testing.T) {
	tests := []struct {
		name   string
		report protocol.Report
		want   string
	}{
		{"waiting", protocol.Waiting(), `{"state":"waiting"}`},
		{"done", protocol.Done("add/16"), `{"state":"done","namespace":"add/16"}`},
		{"error", protocol.Failed("add/16", "boom"), `{"state":"error","namespace":"add/16","detail":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := protocol.NewReportWriter(&buf).Write(tt.report); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if got := buf.String(); got != tt.want+"\n" {
				t.Fatalf("got %q want %q", got, tt.want+"\n")
			}
		})
	}
}

func TestReportWriterRejectsViolation(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.NewReportWriter(&buf).Write(protocol.Violation("x")); err == nil {
		t.Fatal("expected error encoding a violation")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestReportReaderDecodesStream(t *testing.T) {
	input := strings.Join([]string{
		`{"state":"waiting"}`,
		``,
		`{"state":"done","namespace":"Q/circuit-composer/16"}`,
		`{"state":"error","namespace":"add/16","detail":"TS1005"}`,
		`{"state":"exploded"}`,
		`{"namespace":"add/16"}`,
		`not json`,
	}, "\n")
	reader := protocol.NewReportReader(strings.NewReader(input))

	want := []struct {
		kind      protocol.ReportKind
		namespace string
	}{
		{protocol.ReportWaiting, ""},
		{protocol.ReportDone, "Q/circuit-composer/16"},
		{protocol.ReportError, "add/16"},
		{protocol.ReportViolation, ""},
		{protocol.ReportViolation, ""},
		{protocol.ReportViolation, ""},
	}
	for i, w := range want {
		got, err := reader.Read()
		if err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
		if got.Kind != w.kind || got.Namespace != w.namespace {
			t.Fatalf("report %d = %+v, want kind %s namespace %q", i, got, w.kind, w.namespace)
		}
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReportReaderKeepsErrorDetail(t *testing.T) {
	reader := protocol.NewReportReader(strings.NewReader(`{"state":"error","namespace":"a","detail":"line1\nline2"}` + "\n"))
	got, err := reader.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.Detail != "line1\nline2" {
		t.Fatalf("detail = %q", got.Detail)
	}
}

func TestInstructionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := protocol.NewInstructionWriter(&buf)
	if err := writer.Write(protocol.Assign("watson-health/3D-Cursor/16")); err != nil {
		t.Fatal(err)
	}
	if err := writer.Write(protocol.Terminate()); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "{\"namespace\":\"watson-health/3D-Cursor/16\"}\n{\"terminate\":true}\n" {
		t.Fatalf("wire = %q", got)
	}

	reader := protocol.NewInstructionReader(&buf)
	first, err := reader.Read()
	if err != nil || first.Kind != protocol.InstructionAssign || first.Namespace != "watson-health/3D-Cursor/16" {
		t.Fatalf("first = %+v, %v", first, err)
	}
	second, err := reader.Read()
	if err != nil || second.Kind != protocol.InstructionTerminate {
		t.Fatalf("second = %+v, %v", second, err)
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestInstructionErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := protocol.NewInstructionWriter(&buf).Write(protocol.Assign("")); !errors.Is(err, protocol.ErrInvalidInstruction) {
		t.Fatalf("expected ErrInvalidInstruction, got %v", err)
	}

	for _, line := range []string{`{}`, `garbage`} {
		_, err := protocol.NewInstructionReader(strings.NewReader(line + "\n")).Read()
		if !errors.Is(err, protocol.ErrInvalidInstruction) {
			t.Fatalf("%q: expected ErrInvalidInstruction, got %v", line, err)
		}
	}
}
