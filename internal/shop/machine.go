package shop

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/i18n"
	"github.com/Proton-105/shop-bot/internal/state"
)

// Session is the persisted dialog position of one user.
type Session struct {
	UserID int64
	State  state.State
	// SelectedProductID is only meaningful in StateHandleDescription.
	SelectedProductID string
}

// Transition is the outcome of handling one event.
type Transition struct {
	Action            Action
	Next              state.State
	SelectedProductID string
}

// Machine maps a session and an event to a transition. It holds no per-user state.
type Machine struct {
	catalog Catalog
	tr      i18n.Translator
}

// NewMachine creates a Machine rendering its views with tr.
func NewMachine(catalog Catalog, tr i18n.Translator) *Machine {
	return &Machine{catalog: catalog, tr: tr}
}

// Handle dispatches ev to the handler of the session state. The start command is always
// handled as StateStart.
func (m *Machine) Handle(ctx context.Context, s Session, ev Event) (Transition, error) {
	if isStartCommand(ev) {
		return m.handleStart(ctx, ev)
	}

	if !s.State.Valid() {
		return Transition{}, apperrors.NewCorruptSessionError(fmt.Errorf("%w: %q", state.ErrCorruptState, s.State))
	}

	var payload string
	switch e := ev.(type) {
	case TextMessage:
		if s.State != state.StateStart {
			return Transition{}, apperrors.NewInvalidPayloadError(fmt.Sprintf("text in state %s", s.State))
		}
	case ButtonPress:
		if e.Payload == "" {
			return Transition{}, apperrors.NewInvalidPayloadError("empty button payload")
		}
		payload = e.Payload
	default:
		return Transition{}, apperrors.NewInvalidPayloadError(fmt.Sprintf("unsupported event %T", ev))
	}

	switch s.State {
	case state.StateStart:
		return m.handleStart(ctx, ev)
	case state.StateHandleMenu:
		return m.handleMenu(ctx, s, payload)
	case state.StateHandleDescription:
		return m.handleDescription(ctx, s, payload)
	case state.StateHandleCart:
		return m.handleCart(ctx, s, payload)
	default:
		return Transition{}, apperrors.NewCorruptSessionError(fmt.Errorf("%w: %q", state.ErrCorruptState, s.State))
	}
}

func (m *Machine) handleStart(ctx context.Context, ev Event) (Transition, error) {
	text, keyboard, err := m.menuView(ctx)
	if err != nil {
		return Transition{}, err
	}

	var action Action = ReplyText{Text: text, Keyboard: keyboard}
	if _, pressed := ev.(ButtonPress); pressed {
		action = ReplyTextReplacingPrior{Text: text, Keyboard: keyboard}
	}

	return Transition{Action: action, Next: state.StateHandleMenu}, nil
}

func (m *Machine) handleMenu(ctx context.Context, s Session, payload string) (Transition, error) {
	if payload == PayloadCart {
		return m.showCart(ctx, s.UserID)
	}

	action, err := m.productView(ctx, payload)
	if err != nil {
		return Transition{}, err
	}

	return Transition{
		Action:            action,
		Next:              state.StateHandleDescription,
		SelectedProductID: payload,
	}, nil
}

func (m *Machine) handleDescription(ctx context.Context, s Session, payload string) (Transition, error) {
	switch payload {
	case PayloadBack:
		return m.showMenu(ctx)
	case PayloadCart:
		return m.showCart(ctx, s.UserID)
	}

	quantity, err := strconv.Atoi(payload)
	if err != nil || quantity <= 0 {
		return Transition{}, apperrors.NewInvalidPayloadError(fmt.Sprintf("invalid quantity %q", payload))
	}

	if s.SelectedProductID == "" {
		return Transition{}, apperrors.NewInvalidPayloadError("no product selected")
	}

	if err := m.catalog.AddToCart(ctx, s.UserID, s.SelectedProductID, quantity); err != nil {
		return Transition{}, fmt.Errorf("add %s to cart: %w", s.SelectedProductID, err)
	}

	return Transition{
		Action:            NoReply{},
		Next:              state.StateHandleDescription,
		SelectedProductID: s.SelectedProductID,
	}, nil
}

func (m *Machine) handleCart(ctx context.Context, s Session, payload string) (Transition, error) {
	if payload == PayloadMainMenu {
		return m.showMenu(ctx)
	}

	if err := m.catalog.RemoveFromCart(ctx, s.UserID, payload); err != nil {
		return Transition{}, fmt.Errorf("remove %s from cart: %w", payload, err)
	}

	return m.showCart(ctx, s.UserID)
}

func (m *Machine) showMenu(ctx context.Context) (Transition, error) {
	text, keyboard, err := m.menuView(ctx)
	if err != nil {
		return Transition{}, err
	}

	return Transition{
		Action: ReplyTextReplacingPrior{Text: text, Keyboard: keyboard},
		Next:   state.StateHandleMenu,
	}, nil
}

func (m *Machine) showCart(ctx context.Context, userID int64) (Transition, error) {
	text, keyboard, err := m.cartView(ctx, userID)
	if err != nil {
		return Transition{}, err
	}

	return Transition{
		Action: ReplyTextReplacingPrior{Text: text, Keyboard: keyboard},
		Next:   state.StateHandleCart,
	}, nil
}
