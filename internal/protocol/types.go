package protocol

import "fmt"

// ReportKind discriminates worker status reports.
type ReportKind int

const (
	// ReportViolation marks a message that did not match the protocol.
	ReportViolation ReportKind = iota
	ReportWaiting
	ReportDone
	ReportError
)

func (k ReportKind) String() string {
	switch k {
	case ReportWaiting:
		return stateWaiting
	case ReportDone:
		return stateDone
	case ReportError:
		return stateError
	default:
		return "violation"
	}
}

// Report is one worker status message.
type Report struct {
	Kind      ReportKind
	Namespace string
	Detail    string
}

// Waiting reports a worker ready for its first assignment.
func Waiting() Report { return Report{Kind: ReportWaiting} }

// Done reports a successfully processed unit.
func Done(namespace string) Report { return Report{Kind: ReportDone, Namespace: namespace} }

// Failed reports a unit that could not be processed.
func Failed(namespace, detail string) Report {
	return Report{Kind: ReportError, Namespace: namespace, Detail: detail}
}

// Violation describes a malformed report.
func Violation(detail string) Report { return Report{Kind: ReportViolation, Detail: detail} }

func (r Report) String() string {
	switch r.Kind {
	case ReportWaiting:
		return "waiting"
	case ReportDone:
		return fmt.Sprintf("done %s", r.Namespace)
	case ReportError:
		return fmt.Sprintf("error %s: %s", r.Namespace, r.Detail)
	default:
		return fmt.Sprintf("violation: %s", r.Detail)
	}
}

// InstructionKind discriminates coordinator instructions.
type InstructionKind int

const (
	InstructionAssign InstructionKind = iota + 1
	InstructionTerminate
)

// Instruction is one coordinator message.
type Instruction struct {
	Kind      InstructionKind
	Namespace string
}

// Assign hands a unit to a worker.
func Assign(namespace string) Instruction {
	return Instruction{Kind: InstructionAssign, Namespace: namespace}
}

// Terminate asks a worker to exit.
func Terminate() Instruction { return Instruction{Kind: InstructionTerminate} }

const (
	stateWaiting = "waiting"
	stateDone    = "done"
	stateError   = "error"
)

type reportMessage struct {
	State     string `json:"state"`
	Namespace string `json:"namespace,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

type instructionMessage struct {
	Namespace string `json:"namespace,omitempty"`
	Terminate bool   `json:"terminate,omitempty"`
}

func reportToWire(r Report) (reportMessage, error) {
	switch r.Kind {
	case ReportWaiting:
		return reportMessage{State: stateWaiting}, nil
	case ReportDone:
		return reportMessage{State: stateDone, Namespace: r.Namespace}, nil
	case ReportError:
		return reportMessage{State: stateError, Namespace: r.Namespace, Detail: r.Detail}, nil
	default:
		return reportMessage{}, fmt.Errorf("cannot encode report kind %s", r.Kind)
	}
}

func reportFromWire(msg reportMessage) Report {
	switch msg.State {
	case stateWaiting:
		return Waiting()
	case stateDone:
		return Done(msg.Namespace)
	case stateError:
		return Failed(msg.Namespace, msg.Detail)
	case "":
		return Violation("report missing state")
	default:
		return Violation(fmt.Sprintf("unknown state %q", msg.State))
	}
}

func instructionToWire(in Instruction) (instructionMessage, error) {
	switch in.Kind {
	case InstructionAssign:
		if in.Namespace == "" {
			return instructionMessage{}, fmt.Errorf("%w: assignment without namespace", ErrInvalidInstruction)
		}
		return instructionMessage{Namespace: in.Namespace}, nil
	case InstructionTerminate:
		return instructionMessage{Terminate: true}, nil
	default:
		return instructionMessage{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidInstruction, in.Kind)
	}
}

func instructionFromWire(msg instructionMessage) (Instruction, error) {
	switch {
	case msg.Terminate:
		return Terminate(), nil
	case msg.Namespace != "":
		return Assign(msg.Namespace), nil
	default:
		return Instruction{}, fmt.Errorf("%w: neither namespace nor terminate set", ErrInvalidInstruction)
	}
}
