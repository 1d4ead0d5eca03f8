package location

import (
	"errors"
	"testing"

	"github.com/jengzang/location-bridge-go/internal/models"
)

func collectOutcomes(q *PendingSettingsQueue, n int) *[]SettingsOutcome {
	outcomes := &[]SettingsOutcome{}
	req := models.LocationOptions{}.Request()
	for i := 0; i < n; i++ {
		q.Request(req, func(o SettingsOutcome) {
			*outcomes = append(*outcomes, o)
		})
	}
	return outcomes
}

func TestPendingSettingsQueueSharesOneDialog(t *testing.T) {
	checker := &fakeChecker{}
	ui := &fakeUI{surface: "main", accept: true}
	q := NewPendingSettingsQueue(checker, ui, nil, nil)

	outcomes := collectOutcomes(q, 3)
	if checker.callCount() != 1 {
		t.Fatalf("expected one settings check, got %d", checker.callCount())
	}
	if q.Len() != 3 {
		t.Fatalf("expected 3 queued callers, got %d", q.Len())
	}

	checker.respond(SettingsCheck{Result: SettingsResolvable, Resolution: "resolution"})

	if ui.dialogCount() != 1 {
		t.Fatalf("expected one dialog, got %d", ui.dialogCount())
	}
	if len(*outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(*outcomes))
	}
	for i, o := range *outcomes {
		if o != OutcomeSatisfied {
			t.Errorf("caller %d: expected satisfied, got %s", i, o)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be empty after resolution, got %d", q.Len())
	}
}

func TestPendingSettingsQueueDeclined(t *testing.T) {
	checker := &fakeChecker{}
	ui := &fakeUI{surface: "main", accept: false}
	q := NewPendingSettingsQueue(checker, ui, nil, nil)

	outcomes := collectOutcomes(q, 2)
	checker.respond(SettingsCheck{Result: SettingsResolvable})

	if len(*outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(*outcomes))
	}
	for _, o := range *outcomes {
		if o != OutcomeDeclined {
			t.Fatalf("expected declined, got %s", o)
		}
	}
}

func TestPendingSettingsQueueAlreadySatisfied(t *testing.T) {
	checker := &fakeChecker{}
	ui := &fakeUI{surface: "main"}
	q := NewPendingSettingsQueue(checker, ui, nil, nil)

	outcomes := collectOutcomes(q, 2)
	checker.respond(SettingsCheck{Result: SettingsSatisfied})

	if ui.dialogCount() != 0 {
		t.Fatal("no dialog expected when settings are already satisfied")
	}
	for _, o := range *outcomes {
		if o != OutcomeSatisfied {
			t.Fatalf("expected satisfied, got %s", o)
		}
	}
}

func TestPendingSettingsQueueHeadless(t *testing.T) {
	checker := &fakeChecker{}
	q := NewPendingSettingsQueue(checker, &fakeUI{}, nil, nil)

	outcomes := collectOutcomes(q, 1)
	if checker.callCount() != 0 {
		t.Fatal("settings must not be checked without a foreground surface")
	}
	if len(*outcomes) != 1 || (*outcomes)[0] != OutcomeUnresolvable {
		t.Fatalf("expected unresolvable, got %v", *outcomes)
	}
}

func TestPendingSettingsQueueUnresolvable(t *testing.T) {
	tests := []struct {
		name  string
		ui    *fakeUI
		check SettingsCheck
	}{
		{"unresolvable check", &fakeUI{surface: "main"}, SettingsCheck{Result: SettingsUnresolvable}},
		{"dialog fails", &fakeUI{surface: "main", presentErr: errors.New("no window")}, SettingsCheck{Result: SettingsResolvable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeChecker{}
			q := NewPendingSettingsQueue(checker, tt.ui, nil, nil)

			outcomes := collectOutcomes(q, 2)
			checker.respond(tt.check)

			if len(*outcomes) != 2 {
				t.Fatalf("expected 2 outcomes, got %d", len(*outcomes))
			}
			for _, o := range *outcomes {
				if o != OutcomeUnresolvable {
					t.Fatalf("expected unresolvable, got %s", o)
				}
			}
		})
	}
}

func TestPendingSettingsQueueDropsStaleCallbacks(t *testing.T) {
	checker := &fakeChecker{}
	ui := &fakeUI{surface: "main", accept: true}
	q := NewPendingSettingsQueue(checker, ui, nil, nil)

	outcomes := collectOutcomes(q, 1)
	q.ResolveAll(OutcomeUnresolvable)
	checker.respond(SettingsCheck{Result: SettingsSatisfied})

	if len(*outcomes) != 1 || (*outcomes)[0] != OutcomeUnresolvable {
		t.Fatalf("late check must not resolve a drained batch, got %v", *outcomes)
	}
}

func TestPendingSettingsQueueNewBatchAfterResolve(t *testing.T) {
	checker := &fakeChecker{}
	ui := &fakeUI{surface: "main", accept: true}
	q := NewPendingSettingsQueue(checker, ui, nil, nil)

	collectOutcomes(q, 2)
	checker.respond(SettingsCheck{Result: SettingsSatisfied})

	collectOutcomes(q, 1)
	if checker.callCount() != 2 {
		t.Fatalf("a caller after resolution should start a new check, got %d checks", checker.callCount())
	}
}
