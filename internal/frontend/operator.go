package frontend

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrGateBlocked marks the terminal state: only a full restart of the
	// client leaves it.
	ErrGateBlocked  = errors.New("unable to identify operator, please reload and verify")
	ErrNameRequired = errors.New("please enter your name")
	ErrNotConfirmed = errors.New("operator not confirmed")
)

// OperatorIdentity identifies who is performing intake. The date is fixed
// when the gate is created and never re-derived afterwards.
type OperatorIdentity struct {
	Name string
	Date string
}

type GateState int

const (
	GateUnconfirmed GateState = iota
	GateConfirmed
	GateBlocked
)

func (s GateState) String() string {
	switch s {
	case GateUnconfirmed:
		return "unconfirmed"
	case GateConfirmed:
		return "confirmed"
	case GateBlocked:
		return "blocked"
	}
	return "unknown"
}

// OperatorGate is the one-time confirmation step preceding all form
// interaction. It starts unconfirmed, pre-populated from the key-value
// store; confirming with a non-empty trimmed name persists the identity,
// while any dismissal blocks the gate for the rest of the session.
type OperatorGate struct {
	state    GateState
	identity OperatorIdentity
	store    KeyValueStore
}

// NewOperatorGate loads any stored identity. A store read failure is not
// fatal; the gate just starts empty, the same as a first run.
func NewOperatorGate(ctx context.Context, store KeyValueStore, now time.Time) *OperatorGate {
	gate := &OperatorGate{state: GateUnconfirmed, store: store}

	name, err := store.Get(ctx, OperatorNameKey)
	if err != nil {
		slog.Error("failed to load operator name", "error", err)
	}
	date, err := store.Get(ctx, OperatorDateKey)
	if err != nil {
		slog.Error("failed to load operator date", "error", err)
	}

	if date == "" {
		date = now.Format("2006-01-02")
	}
	gate.identity = OperatorIdentity{Name: name, Date: date}
	return gate
}

func (g *OperatorGate) State() GateState {
	return g.state
}

// Prefill returns the identity shown while the gate is unconfirmed.
func (g *OperatorGate) Prefill() OperatorIdentity {
	return g.identity
}

// Confirm transitions the gate to confirmed and persists exactly the
// trimmed name together with the fixed date.
func (g *OperatorGate) Confirm(ctx context.Context, name string) (OperatorIdentity, error) {
	if g.state == GateBlocked {
		return OperatorIdentity{}, ErrGateBlocked
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return OperatorIdentity{}, ErrNameRequired
	}

	g.identity.Name = trimmed
	if err := g.store.Set(ctx, OperatorNameKey, g.identity.Name); err != nil {
		slog.Error("failed to persist operator name", "error", err)
	}
	if err := g.store.Set(ctx, OperatorDateKey, g.identity.Date); err != nil {
		slog.Error("failed to persist operator date", "error", err)
	}

	g.state = GateConfirmed
	return g.identity, nil
}

// Dismiss is any attempt to leave the gate without confirming. Before
// confirmation it blocks the gate terminally; after confirmation the gate
// is already out of the way and dismissal means nothing.
func (g *OperatorGate) Dismiss() {
	if g.state == GateUnconfirmed {
		g.state = GateBlocked
	}
}

// Identity returns the confirmed identity.
func (g *OperatorGate) Identity() (OperatorIdentity, error) {
	if g.state != GateConfirmed {
		return OperatorIdentity{}, ErrNotConfirmed
	}
	return g.identity, nil
}
