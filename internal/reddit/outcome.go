package reddit

import "fmt"

// FailKind classifies why a driver sub-step did not achieve its goal.
type FailKind string

const (
	// FailNotFound means no discovery strategy produced a visible element.
	FailNotFound FailKind = "not_found"
	// FailInteraction means an element was found but acting on it failed.
	FailInteraction FailKind = "interaction"
	// FailCollaborator means an external collaborator call failed.
	FailCollaborator FailKind = "collaborator"
)

// Outcome is the uniform result of a driver sub-step. Engage is the one
// place that turns a failed outcome into a ledger record and decides
// whether the sequence continues.
type Outcome struct {
	OK   bool
	Kind FailKind
	Msg  string
}

func ok() Outcome {
	return Outcome{OK: true}
}

func failed(kind FailKind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
