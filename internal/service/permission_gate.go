package service

import (
	"context"
	"sync"

	"optionsync/internal/repository"

	"go.uber.org/zap"
)

// PermissionState is the delete permission of one option as known locally
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionAllowed
	PermissionDenied
)

func (s PermissionState) String() string {
	switch s {
	case PermissionAllowed:
		return "allowed"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

type permissionEntry struct {
	state    PermissionState
	seq      uint64
	cancel   context.CancelFunc
	menuOpen bool
}

// PermissionGate tracks whether the viewer may delete each option. Checks
// are last-issued-wins per option: starting a check cancels the previous one
// and a result that is no longer the latest is discarded.
type PermissionGate struct {
	repo    repository.OptionRepository
	logger  *zap.Logger
	mu      sync.Mutex
	seq     uint64
	entries map[int64]*permissionEntry
}

// NewPermissionGate creates a gate backed by repo
func NewPermissionGate(repo repository.OptionRepository, logger *zap.Logger) *PermissionGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionGate{
		repo:    repo,
		logger:  logger,
		entries: make(map[int64]*permissionEntry),
	}
}

// State returns the last resolved permission for optionID
func (g *PermissionGate) State(optionID int64) PermissionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[optionID]; ok {
		return e.state
	}
	return PermissionUnknown
}

// CanDelete reports whether the delete affordance should be enabled
func (g *PermissionGate) CanDelete(optionID int64) bool {
	return g.State(optionID) == PermissionAllowed
}

// Check asks the API whether optionID may be deleted and records the result.
// Failures leave the state unknown and are not returned to the caller beyond
// the resulting state, since a failed check only disables the affordance.
func (g *PermissionGate) Check(ctx context.Context, optionID int64) PermissionState {
	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	e := g.entryLocked(optionID)
	if e.cancel != nil {
		e.cancel()
	}
	g.seq++
	seq := g.seq
	e.seq = seq
	e.cancel = cancel
	g.mu.Unlock()

	allowed, err := g.repo.CanDeleteOption(checkCtx, optionID)

	g.mu.Lock()
	defer g.mu.Unlock()
	if e.seq != seq {
		g.logger.Debug("Discarding superseded permission check", zap.Int64("option_id", optionID))
		return e.state
	}
	e.cancel = nil

	if err != nil {
		g.logger.Warn("Permission check failed",
			zap.Int64("option_id", optionID),
			zap.Error(err))
		e.state = PermissionUnknown
		return e.state
	}

	if allowed {
		e.state = PermissionAllowed
	} else {
		e.state = PermissionDenied
		if e.menuOpen {
			e.menuOpen = false
			g.logger.Debug("Closing action menu after permission denied", zap.Int64("option_id", optionID))
		}
	}
	return e.state
}

// OpenActionMenu opens the action menu for optionID and revalidates the
// delete permission. A denied result closes the menu again.
func (g *PermissionGate) OpenActionMenu(ctx context.Context, optionID int64) PermissionState {
	g.mu.Lock()
	g.entryLocked(optionID).menuOpen = true
	g.mu.Unlock()

	return g.Check(ctx, optionID)
}

// IsActionMenuOpen reports whether the action menu of optionID is open
func (g *PermissionGate) IsActionMenuOpen(optionID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[optionID]; ok {
		return e.menuOpen
	}
	return false
}

// CloseActionMenu closes the action menu of optionID
func (g *PermissionGate) CloseActionMenu(optionID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[optionID]; ok {
		e.menuOpen = false
	}
}

// Forget drops everything known about optionID, cancelling a running check
func (g *PermissionGate) Forget(optionID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[optionID]; ok {
		if e.cancel != nil {
			e.cancel()
		}
		delete(g.entries, optionID)
	}
}

func (g *PermissionGate) entryLocked(optionID int64) *permissionEntry {
	e, ok := g.entries[optionID]
	if !ok {
		e = &permissionEntry{}
		g.entries[optionID] = e
	}
	return e
}
