package state

import (
	"errors"
	"fmt"
)

// StateSchemaVersion identifies the persisted state vocabulary. Adding a state keeps the
// version; renaming or removing one bumps it, and sessions holding the old value reset to StateStart.
const StateSchemaVersion = 1

// State represents a dialog state. The string value is what the session store persists.
type State string

const (
	// StateStart shows the product menu; it is the initial state and the reset target.
	StateStart State = "START"
	// StateHandleMenu waits for a product or cart button under the product menu.
	StateHandleMenu State = "HANDLE_MENU"
	// StateHandleDescription waits for a quantity, cart or back button under a product card.
	StateHandleDescription State = "HANDLE_DESCRIPTION"
	// StateHandleCart waits for a remove or to-menu button under the cart view.
	StateHandleCart State = "HANDLE_CART"
)

// ErrCorruptState indicates a persisted value outside the known state vocabulary.
var ErrCorruptState = errors.New("corrupt session state")

// All lists every known state.
func All() []State {
	return []State{StateStart, StateHandleMenu, StateHandleDescription, StateHandleCart}
}

// Parse converts a persisted value into a known State.
func Parse(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrCorruptState, raw)
	}
	return s, nil
}

// Valid reports whether s belongs to the known vocabulary.
func (s State) Valid() bool {
	switch s {
	case StateStart, StateHandleMenu, StateHandleDescription, StateHandleCart:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
