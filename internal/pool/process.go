package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"iconbuild/internal/logging"
	"iconbuild/internal/protocol"
)

// ProcessSpawner starts workers as child processes. Each child speaks the
// worker protocol on its stdin and stdout; its stderr is passed through.
type ProcessSpawner struct {
	binary string
	args   []string
	env    []string
	stderr io.Writer
	grace  time.Duration
	logger *slog.Logger
}

// ProcessOption configures a ProcessSpawner.
type ProcessOption func(*ProcessSpawner)

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) ProcessOption {
	return func(s *ProcessSpawner) {
		s.env = append(s.env, env...)
	}
}

// WithStderr redirects worker stderr. Writers other than files are
// serialized because every worker copies into the same destination.
func WithStderr(w io.Writer) ProcessOption {
	return func(s *ProcessSpawner) {
		switch w := w.(type) {
		case nil:
		case *os.File:
			s.stderr = w
		default:
			s.stderr = &lockedWriter{w: w}
		}
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// WithTerminateGrace bounds how long a released worker may take to exit
// before its process group is killed.
func WithTerminateGrace(d time.Duration) ProcessOption {
	return func(s *ProcessSpawner) {
		if d > 0 {
			s.grace = d
		}
	}
}

// NewProcessSpawner builds a spawner running binary with args.
func NewProcessSpawner(binary string, args []string, logger *slog.Logger, opts ...ProcessOption) *ProcessSpawner {
	s := &ProcessSpawner{
		binary: binary,
		args:   append([]string(nil), args...),
		stderr: os.Stderr,
		grace:  5 * time.Second,
		logger: logging.NewComponentLogger(logger, "spawner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelfSpawner re-executes the running binary with args.
func SelfSpawner(args []string, logger *slog.Logger, opts ...ProcessOption) (*ProcessSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return NewProcessSpawner(exe, args, logger, opts...), nil
}

// Spawn starts one worker process.
func (s *ProcessSpawner) Spawn(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(s.binary, s.args...) //nolint:gosec
	cmd.Stderr = s.stderr
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}
	configureProcess(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	conn := &processConn{
		cmd:     cmd,
		stdin:   stdin,
		writer:  protocol.NewInstructionWriter(stdin),
		reports: make(chan protocol.Report),
		exited:  make(chan struct{}),
		grace:   s.grace,
		logger:  s.logger.With(logging.WorkerPID(cmd.Process.Pid)),
	}
	go conn.read(stdout)
	return conn, nil
}

type processConn struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writer  *protocol.InstructionWriter
	reports chan protocol.Report
	exited  chan struct{}
	grace   time.Duration
	logger  *slog.Logger
	release sync.Once
}

func (p *processConn) PID() int { return p.cmd.Process.Pid }

func (p *processConn) Send(in protocol.Instruction) error {
	select {
	case <-p.exited:
		return errors.New("worker process has exited")
	default:
	}
	return p.writer.Write(in)
}

func (p *processConn) Reports() <-chan protocol.Report { return p.reports }

// read forwards reports until stdout closes, then reaps the process and
// closes the reports channel.
func (p *processConn) read(stdout io.Reader) {
	reader := protocol.NewReportReader(stdout)
	for {
		report, err := reader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.reports <- protocol.Violation(err.Error())
				_, _ = io.Copy(io.Discard, stdout)
			}
			break
		}
		p.reports <- report
	}
	if err := p.cmd.Wait(); err != nil {
		p.logger.Debug("worker process exited", logging.Error(err))
	}
	close(p.exited)
	close(p.reports)
}

// Release closes stdin and, in the background, kills the worker's process
// group if it has not exited within the grace period.
func (p *processConn) Release() {
	p.release.Do(func() {
		_ = p.stdin.Close()
		go func() {
			timer := time.NewTimer(p.grace)
			defer timer.Stop()
			select {
			case <-p.exited:
			case <-timer.C:
				logging.WarnWithContext(p.logger, "worker did not exit after terminate; killing", "worker_kill",
					logging.Duration("grace", p.grace),
					logging.String(logging.FieldImpact, "worker process group killed"),
				)
				if err := killProcess(p.cmd); err != nil {
					p.logger.Debug("kill worker failed", logging.Error(err))
				}
			}
		}()
	})
}
