package location

import (
	"log/slog"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// SettingsOutcome is what every queued caller receives when a batch resolves
type SettingsOutcome int

// SettingsOutcome constants
const (
	OutcomeSatisfied SettingsOutcome = iota
	OutcomeDeclined
	OutcomeUnresolvable
)

func (o SettingsOutcome) String() string {
	switch o {
	case OutcomeSatisfied:
		return "satisfied"
	case OutcomeDeclined:
		return "declined"
	default:
		return "unresolvable"
	}
}

type pendingSettingsRequest struct {
	onResult func(SettingsOutcome)
}

// PendingSettingsQueue folds concurrent settings-resolution requests into one dialog.
// It is not safe for concurrent use: the owner serializes calls, and post is
// used to bring asynchronous checker and dialog callbacks back onto the owner.
type PendingSettingsQueue struct {
	checker SettingsChecker
	ui      ForegroundUI
	post    func(func())
	logger  *slog.Logger

	pending    []pendingSettingsRequest
	generation uint64
}

// NewPendingSettingsQueue creates a queue. A nil post runs callbacks inline.
func NewPendingSettingsQueue(checker SettingsChecker, ui ForegroundUI, post func(func()), logger *slog.Logger) *PendingSettingsQueue {
	if post == nil {
		post = func(fn func()) { fn() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PendingSettingsQueue{
		checker: checker,
		ui:      ui,
		post:    post,
		logger:  logger,
	}
}

// Request enrolls a caller. The first caller of a batch triggers the settings check;
// later callers wait for the same outcome.
func (q *PendingSettingsQueue) Request(req models.LocationRequest, onResult func(SettingsOutcome)) {
	q.pending = append(q.pending, pendingSettingsRequest{onResult: onResult})
	if len(q.pending) == 1 {
		q.resolveUserSettings(req)
	}
}

// ResolveAll delivers outcome to every queued caller in enrollment order and clears the queue
func (q *PendingSettingsQueue) ResolveAll(outcome SettingsOutcome) {
	batch := q.pending
	q.pending = nil
	q.generation++

	if len(batch) > 0 {
		q.logger.Debug("settings batch resolved", "outcome", outcome.String(), "callers", len(batch))
	}
	for _, p := range batch {
		if p.onResult != nil {
			p.onResult(outcome)
		}
	}
}

// Len returns the number of callers waiting on the current batch
func (q *PendingSettingsQueue) Len() int {
	return len(q.pending)
}

func (q *PendingSettingsQueue) resolveUserSettings(req models.LocationRequest) {
	var surface Surface
	if q.ui != nil {
		surface = q.ui.CurrentForegroundSurface()
	}
	if surface == nil || q.checker == nil {
		// Headless: nothing can present the dialog.
		q.ResolveAll(OutcomeUnresolvable)
		return
	}

	gen := q.generation
	q.checker.CheckSettings(req, func(check SettingsCheck) {
		q.post(func() {
			if gen != q.generation {
				return
			}
			q.handleCheck(gen, surface, check)
		})
	})
}

func (q *PendingSettingsQueue) handleCheck(gen uint64, surface Surface, check SettingsCheck) {
	switch check.Result {
	case SettingsSatisfied:
		q.ResolveAll(OutcomeSatisfied)
	case SettingsResolvable:
		err := q.ui.PresentSettingsDialog(surface, check.Resolution, func(accepted bool) {
			q.post(func() {
				if gen != q.generation {
					return
				}
				if accepted {
					q.ResolveAll(OutcomeSatisfied)
				} else {
					q.ResolveAll(OutcomeDeclined)
				}
			})
		})
		if err != nil {
			q.logger.Warn("failed to present settings dialog", "error", err)
			if gen == q.generation {
				q.ResolveAll(OutcomeUnresolvable)
			}
		}
	default:
		q.ResolveAll(OutcomeUnresolvable)
	}
}
