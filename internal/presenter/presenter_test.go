package presenter

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

func TestPresent_Idle(t *testing.T) {
	vm := Present(domain.Snapshot{ID: "sid", State: domain.StateIdle})
	require.Equal(t, "idle", vm.Mode)
	require.Equal(t, "sid", vm.SessionID)
	require.Empty(t, vm.Guidance)
	require.Empty(t, vm.Message)
}

func TestPresent_Analyzing(t *testing.T) {
	vm := Present(domain.Snapshot{
		ID:         "sid",
		State:      domain.StateAnalyzing,
		PreviewURL: "http://store/p1",
		DragActive: true,
	})
	require.Equal(t, "analyzing", vm.Mode)
	require.Equal(t, "http://store/p1", vm.PreviewURL)
	require.True(t, vm.DragActive)
}

func TestPresent_HealthyBranch(t *testing.T) {
	vm := Present(domain.Snapshot{
		ID:    "sid",
		State: domain.StateSucceeded,
		Result: &domain.Result{
			Condition:  domain.HealthyCondition,
			Confidence: domain.FixedConfidence,
		},
	})
	require.Equal(t, "result", vm.Mode)
	require.True(t, vm.Healthy)
	require.Equal(t, domain.HealthyCondition, vm.Condition)
	require.Equal(t, domain.FixedConfidence, vm.Confidence)
	require.NotEmpty(t, vm.Title)
	require.NotEmpty(t, vm.Guidance)
}

func TestPresent_DiseaseBranchIsGeneric(t *testing.T) {
	late := Present(domain.Snapshot{
		State:  domain.StateSucceeded,
		Result: &domain.Result{Condition: "Late Blight", Confidence: domain.FixedConfidence},
	})
	require.Equal(t, "result", late.Mode)
	require.False(t, late.Healthy)
	require.Equal(t, "Late Blight", late.Condition)
	require.Equal(t, "Late Blight detected", late.Title)

	// label tak dikenal dapat guidance generik yang sama
	unknown := Present(domain.Snapshot{
		State:  domain.StateSucceeded,
		Result: &domain.Result{Condition: "Purple Spot Madness", Confidence: domain.FixedConfidence},
	})
	require.False(t, unknown.Healthy)
	require.Equal(t, late.Guidance, unknown.Guidance)
}

func TestPresent_Error(t *testing.T) {
	vm := Present(domain.Snapshot{
		State:      domain.StateFailed,
		ErrMessage: domain.FailureMessage,
	})
	require.Equal(t, "error", vm.Mode)
	require.Equal(t, domain.FailureMessage, vm.Message)
	require.Empty(t, vm.Condition)
}
