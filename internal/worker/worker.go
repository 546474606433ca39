// Package worker implements the message loop a worker process runs: announce
// readiness, process each assigned unit, report its outcome, and exit when
// told to terminate or when the coordinator closes stdin.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"iconbuild/internal/logging"
	"iconbuild/internal/protocol"
)

// Processor performs the work for one namespace.
type Processor interface {
	Process(ctx context.Context, namespace string) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, namespace string) error

func (f ProcessorFunc) Process(ctx context.Context, namespace string) error { return f(ctx, namespace) }

type instruction struct {
	in  protocol.Instruction
	err error
}

// Serve runs the worker loop, reading instructions from in and writing
// reports to out. It returns nil on a terminate instruction or when in is
// closed, the context error when ctx ends, and an error for anything that
// breaks the protocol. Only reports are ever written to out.
func Serve(ctx context.Context, in io.Reader, out io.Writer, p Processor, logger *slog.Logger) error {
	if p == nil {
		return errors.New("worker processor required")
	}
	logger = logging.NewComponentLogger(logger, "worker")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reports := protocol.NewReportWriter(out)
	instructions := make(chan instruction, 1)
	go readInstructions(ctx, protocol.NewInstructionReader(in), instructions)

	if err := reports.Write(protocol.Waiting()); err != nil {
		return err
	}
	logger.Debug("worker ready")

	for {
		var next instruction
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next = <-instructions:
		}

		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				logger.Debug("instruction stream closed")
				return nil
			}
			return fmt.Errorf("read instruction: %w", next.err)
		}

		switch next.in.Kind {
		case protocol.InstructionTerminate:
			logger.Debug("terminate requested")
			return nil
		case protocol.InstructionAssign:
			if err := handle(ctx, reports, p, next.in.Namespace, logger); err != nil {
				return err
			}
		}
	}
}

func handle(ctx context.Context, reports *protocol.ReportWriter, p Processor, namespace string, logger *slog.Logger) error {
	unitLogger := logger.With(logging.Namespace(namespace))
	unitLogger.Debug("unit assigned")

	if err := p.Process(logging.WithNamespace(ctx, namespace), namespace); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logging.ErrorWithContext(unitLogger, "unit failed", "unit_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect compiler or bundler diagnostics"),
		)
		return reports.Write(protocol.Failed(namespace, err.Error()))
	}
	unitLogger.Debug("unit done")
	return reports.Write(protocol.Done(namespace))
}

func readInstructions(ctx context.Context, reader *protocol.InstructionReader, out chan<- instruction) {
	for {
		in, err := reader.Read()
		select {
		case out <- instruction{in: in, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
