package lifecycle

import "context"

// Phase orders shutdown hooks. Lower phases finish before higher ones start.
type Phase int

const (
	// PhaseIntake stops accepting new updates and requests.
	PhaseIntake Phase = iota
	// PhaseWorkers stops background loops.
	PhaseWorkers
	// PhaseResources closes connections shared by everything above.
	PhaseResources
)

func (p Phase) String() string {
	switch p {
	case PhaseIntake:
		return "intake"
	case PhaseWorkers:
		return "workers"
	case PhaseResources:
		return "resources"
	default:
		return "unknown"
	}
}

// Hook describes a named shutdown hook.
type Hook struct {
	Name  string
	Phase Phase
	Fn    func(ctx context.Context) error
}
