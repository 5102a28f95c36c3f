package state

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe dialog transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// RecordTransition reports a completed transition to the registered recorder.
func RecordTransition(from, to State) {
	transitionRecorder(string(from), string(to))
}

// validTransitions contains the edges produced by the dialog handlers.
var validTransitions = map[State][]State{
	StateStart: {
		StateHandleMenu,
	},
	StateHandleMenu: {
		StateHandleDescription,
		StateHandleCart,
	},
	StateHandleDescription: {
		StateHandleDescription,
		StateHandleMenu,
		StateHandleCart,
	},
	StateHandleCart: {
		StateHandleCart,
		StateHandleMenu,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Resetting to StateStart is always allowed.
func IsTransitionAllowed(from, to State) bool {
	if to == StateStart {
		return true
	}

	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}
