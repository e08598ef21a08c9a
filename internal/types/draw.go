package types

import (
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/samber/lo"
)

// DrawType distinguishes the recurring major sweepstake from one-off,
// threshold-based mini draws.
type DrawType string

const (
	DrawTypeMajor DrawType = "major"
	DrawTypeMini  DrawType = "mini"
)

// DrawStatus is the draw lifecycle state.
// Transitions: queued -> active -> frozen -> completed, with cancelled
// reachable from any non-terminal state. All transitions except the forced
// move to completed on winner selection are driven externally.
type DrawStatus string

const (
	DrawStatusQueued    DrawStatus = "queued"
	DrawStatusActive    DrawStatus = "active"
	DrawStatusFrozen    DrawStatus = "frozen"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusCancelled DrawStatus = "cancelled"
)

var drawStatusTransitions = map[DrawStatus][]DrawStatus{
	DrawStatusQueued:    {DrawStatusActive, DrawStatusCancelled},
	DrawStatusActive:    {DrawStatusFrozen, DrawStatusCancelled},
	DrawStatusFrozen:    {DrawStatusCompleted, DrawStatusCancelled},
	DrawStatusCompleted: {},
	DrawStatusCancelled: {},
}

// IsTerminal reports whether no further transitions are possible.
func (s DrawStatus) IsTerminal() bool {
	return s == DrawStatusCompleted || s == DrawStatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving to target.
func (s DrawStatus) CanTransitionTo(target DrawStatus) bool {
	return lo.Contains(drawStatusTransitions[s], target)
}

// Validate checks the status is a known state.
func (s DrawStatus) Validate() error {
	switch s {
	case DrawStatusQueued, DrawStatusActive, DrawStatusFrozen, DrawStatusCompleted, DrawStatusCancelled:
		return nil
	default:
		return ierr.NewErrorf("invalid draw status: %s", s).
			Mark(ierr.ErrValidation)
	}
}

// WinnerSelectionMethod records how the winning entry number was chosen. The
// draw itself happens outside this system; we only record and validate it.
type WinnerSelectionMethod string

const (
	WinnerSelectionMethodRegulatorDraw WinnerSelectionMethod = "regulator_draw"
	WinnerSelectionMethodManual        WinnerSelectionMethod = "manual"
)

// Validate checks the selection method is known.
func (m WinnerSelectionMethod) Validate() error {
	switch m {
	case WinnerSelectionMethodRegulatorDraw, WinnerSelectionMethodManual:
		return nil
	default:
		return ierr.NewErrorf("invalid winner selection method: %s", m).
			Mark(ierr.ErrValidation)
	}
}
