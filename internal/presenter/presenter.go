package presenter

import (
	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

// ViewModel is the discriminated view handed to the rendering layer.
// Mode is one of "idle", "analyzing", "result", "error".
type ViewModel struct {
	Mode       string   `json:"mode"`
	SessionID  string   `json:"session_id"`
	DragActive bool     `json:"drag_active"`
	PreviewURL string   `json:"preview_url,omitempty"`
	Condition  string   `json:"condition,omitempty"`
	Confidence int      `json:"confidence,omitempty"`
	Healthy    bool     `json:"healthy,omitempty"`
	Title      string   `json:"title,omitempty"`
	Guidance   []string `json:"guidance,omitempty"`
	Message    string   `json:"message,omitempty"`
}

const healthyTitle = "Your potato plant looks healthy!"

var healthyGuidance = []string{
	"Keep up your current care routine.",
	"Water at the base of the plant to keep the leaves dry.",
	"Check the leaves again in about a week.",
}

// Guidance generik: label penyakit apa pun selain "Healthy" dapat
// saran yang sama, tanpa validasi terhadap daftar label.
var diseaseGuidance = []string{
	"Remove and destroy the affected leaves. Do not compost them.",
	"Apply an appropriate fungicide as soon as possible.",
	"Keep the foliage dry; water at soil level in the morning.",
	"Isolate the plant from healthy ones if you can.",
}

// Present maps a snapshot to its view model. Pure function, no side
// effects; branch choice is string equality against the healthy label.
func Present(s domain.Snapshot) ViewModel {
	vm := ViewModel{
		SessionID:  string(s.ID),
		DragActive: s.DragActive,
		PreviewURL: s.PreviewURL,
	}

	switch s.State {
	case domain.StateAnalyzing:
		vm.Mode = "analyzing"
	case domain.StateSucceeded:
		vm.Mode = "result"
		vm.Condition = s.Result.Condition
		vm.Confidence = s.Result.Confidence
		if s.Result.Condition == domain.HealthyCondition {
			vm.Healthy = true
			vm.Title = healthyTitle
			vm.Guidance = healthyGuidance
		} else {
			vm.Title = s.Result.Condition + " detected"
			vm.Guidance = diseaseGuidance
		}
	case domain.StateFailed:
		vm.Mode = "error"
		vm.Message = s.ErrMessage
	default:
		vm.Mode = "idle"
	}

	return vm
}
