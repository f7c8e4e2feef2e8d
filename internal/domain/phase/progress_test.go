package phase_test

import (
	"testing"

	"github.com/rpggio/phaseboard/internal/domain/order"
	"github.com/rpggio/phaseboard/internal/domain/phase"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		statuses []order.Status
		want     int
	}{
		{"no orders", nil, 0},
		{"only cancelled", []order.Status{order.StatusCancelled, order.StatusCancelled}, 0},
		{"single completed", []order.Status{order.StatusCompleted}, 100},
		{"mean of two", []order.Status{order.StatusApproved, order.StatusReady}, 60},
		{"cancelled excluded", []order.Status{order.StatusCompleted, order.StatusCancelled}, 100},
		{"rounds half up", []order.Status{order.StatusInReview, order.StatusAwaitingProof, order.StatusDraft, order.StatusDraft}, 8},
		{"rounds down", []order.Status{order.StatusInReview, order.StatusDraft, order.StatusDraft}, 3},
		{"unknown weighs zero", []order.Status{"mystery", order.StatusCompleted}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, phase.Progress(tt.statuses))
		})
	}
}

func TestProgress_MonotonicAlongSequence(t *testing.T) {
	others := []order.Status{order.StatusApproved, order.StatusDraft}
	last := -1
	for _, s := range order.Sequence {
		got := phase.Progress(append([]order.Status{s}, others...))
		require.GreaterOrEqual(t, got, last, "progress dropped at %s", s)
		last = got
	}
}

func TestProgress_CancelledNeverMatters(t *testing.T) {
	base := []order.Status{order.StatusInProduction, order.StatusShipped}
	want := phase.Progress(base)
	for i := 1; i <= 5; i++ {
		statuses := append([]order.Status{}, base...)
		for j := 0; j < i; j++ {
			statuses = append(statuses, order.StatusCancelled)
		}
		require.Equal(t, want, phase.Progress(statuses))
	}
}

func TestProgressOf(t *testing.T) {
	orders := []order.Order{{Status: order.StatusShipped}, {Status: order.StatusCompleted}}
	require.Equal(t, 95, phase.ProgressOf(orders))
}
