package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/shop-bot/internal/catalog"
	apperrors "github.com/Proton-105/shop-bot/internal/errors"
	"github.com/Proton-105/shop-bot/internal/state"
)

// Executor realizes an action on the messaging transport. ev is the event being answered.
type Executor interface {
	Execute(ctx context.Context, ev Event, action Action) error
}

// Observer receives every classified per-event failure.
type Observer interface {
	Observe(ctx context.Context, ev Event, err *apperrors.AppError)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event, err *apperrors.AppError)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, ev Event, err *apperrors.AppError) {
	f(ctx, ev, err)
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithObserver registers the failure observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithLocker serializes processing per user.
func WithLocker(l Locker) EngineOption {
	return func(e *Engine) { e.locker = l }
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine processes one event end to end: load session, dispatch, execute, persist.
//
// Without a Locker two concurrent events of the same user race on the
// read-dispatch-write sequence and the last writer wins.
type Engine struct {
	machine  *Machine
	store    state.Storage
	executor Executor
	observer Observer
	locker   Locker
	log      *slog.Logger
}

// NewEngine wires the machine to its session store and transport.
func NewEngine(machine *Machine, store state.Storage, executor Executor, opts ...EngineOption) *Engine {
	e := &Engine{
		machine:  machine,
		store:    store,
		executor: executor,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process handles ev. On failure the session is left as it was, except for a corrupt state
// which is reset to StateStart, and the classified error is reported and returned.
func (e *Engine) Process(ctx context.Context, ev Event) (err error) {
	userID := ev.User()

	if e.locker != nil {
		unlock := e.locker.Lock(userID)
		defer unlock()
	}

	defer func() {
		if err == nil {
			return
		}
		appErr := classify(err)
		if e.observer != nil {
			e.observer.Observe(ctx, ev, appErr)
		}
		err = appErr
	}()

	session, err := e.loadSession(ctx, ev)
	if err != nil {
		return err
	}

	tr, err := e.machine.Handle(ctx, session, ev)
	if err != nil {
		return err
	}

	if !state.IsTransitionAllowed(session.State, tr.Next) {
		return apperrors.NewInternalError(fmt.Errorf("transition %s -> %s not allowed", session.State, tr.Next))
	}

	if err := e.executor.Execute(ctx, ev, tr.Action); err != nil {
		return apperrors.NewTransportError(err)
	}

	if err := e.persist(ctx, session, tr, isStartCommand(ev)); err != nil {
		return err
	}

	state.RecordTransition(session.State, tr.Next)
	e.log.DebugContext(ctx, "event processed",
		slog.Int64("user_id", userID),
		slog.String("event", EventKind(ev)),
		slog.String("from", string(session.State)),
		slog.String("to", string(tr.Next)),
	)

	return nil
}

func (e *Engine) loadSession(ctx context.Context, ev Event) (Session, error) {
	userID := ev.User()
	session := Session{UserID: userID, State: state.StateStart}

	if isStartCommand(ev) {
		return session, nil
	}

	current, err := e.store.GetState(ctx, userID)
	switch {
	case errors.Is(err, state.ErrStateNotFound):
		return session, nil
	case err != nil:
		return Session{}, apperrors.NewStorageError(err)
	}

	parsed, err := state.Parse(string(current))
	if err != nil {
		return Session{}, e.resetCorrupt(ctx, userID, err)
	}
	session.State = parsed

	if parsed == state.StateStart {
		return session, nil
	}

	session.SelectedProductID, err = e.store.GetSelectedProduct(ctx, userID)
	if err != nil {
		return Session{}, apperrors.NewStorageError(err)
	}

	return session, nil
}

func (e *Engine) resetCorrupt(ctx context.Context, userID int64, cause error) error {
	if err := e.store.SetState(ctx, userID, state.StateStart); err != nil {
		return apperrors.NewStorageError(fmt.Errorf("reset corrupt session: %w", err))
	}
	if err := e.store.SetSelectedProduct(ctx, userID, ""); err != nil {
		return apperrors.NewStorageError(fmt.Errorf("reset corrupt session: %w", err))
	}
	return apperrors.NewCorruptSessionError(cause)
}

// persist stores the next state and the selected product when it changed. After a reset the
// stored product was never loaded, so it is written unconditionally.
func (e *Engine) persist(ctx context.Context, session Session, tr Transition, reset bool) error {
	if err := e.store.SetState(ctx, session.UserID, tr.Next); err != nil {
		return apperrors.NewStorageError(err)
	}

	if reset || tr.SelectedProductID != session.SelectedProductID {
		if err := e.store.SetSelectedProduct(ctx, session.UserID, tr.SelectedProductID); err != nil {
			return apperrors.NewStorageError(err)
		}
	}

	return nil
}

func classify(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var gwErr *catalog.GatewayError
	if errors.As(err, &gwErr) {
		return apperrors.NewGatewayError(gwErr.Op, err)
	}

	return apperrors.NewInternalError(err)
}
