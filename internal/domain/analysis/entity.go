package analysis

import (
	"strings"
	"time"
)

// ID tipe untuk Session
type SessionID string

// State enum, diturunkan dari isi slot (tidak disimpan terpisah)
type State string

const (
	StateIdle      State = "idle"
	StateAnalyzing State = "analyzing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// HealthyCondition is the one label the presenter treats specially;
// every other condition string is shown as a disease.
const HealthyCondition = "Healthy"

// FixedConfidence is reported for every result because the upstream
// classifier does not return a confidence of its own.
const FixedConfidence = 98

// FailureMessage is the only message the UI ever sees for a failed
// inference; the underlying cause stays in the server logs.
const FailureMessage = "We couldn't analyze this image. Please try with another photo of a potato leaf."

// SelectedFile value object: raw bytes plus the declared content type.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsImage reports whether the declared MIME type is an image type.
func (f *SelectedFile) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// PreviewHandle refers to the stored preview object for the current
// selection. It must be removed from the store exactly once.
type PreviewHandle struct {
	Key string
	URL string
}

// Result value object
type Result struct {
	Condition  string `json:"condition"`
	Confidence int    `json:"confidence"`
}

// Aggregate Root: Session, satu slot "current analysis" per user
type Session struct {
	ID         SessionID
	CreatedAt  time.Time
	LastActive time.Time

	// Selection naik monoton setiap pemilihan file baru (dan setiap
	// reset/teardown), supaya hasil inference yang telat bisa dibuang.
	Selection uint64

	File       *SelectedFile
	Preview    *PreviewHandle
	Result     *Result
	ErrMessage string
	InFlight   bool
	DragActive bool
}

func NewSession(id SessionID, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, LastActive: now}
}

// NextSelection bumps and returns the selection token.
func (s *Session) NextSelection() uint64 {
	s.Selection++
	return s.Selection
}

// State derives the UI state from the slot contents. At most one of
// analyzing/succeeded/failed holds; idle only when nothing is selected.
func (s *Session) State() State {
	switch {
	case s.InFlight:
		return StateAnalyzing
	case s.Result != nil:
		return StateSucceeded
	case s.ErrMessage != "":
		return StateFailed
	case s.File != nil:
		// selected but inference not started yet; surfaced as analyzing
		// karena preview sudah ada dan request segera menyusul
		return StateAnalyzing
	default:
		return StateIdle
	}
}

// Clear empties the slot except for identity and the selection counter.
func (s *Session) Clear() {
	s.File = nil
	s.Preview = nil
	s.Result = nil
	s.ErrMessage = ""
	s.InFlight = false
}

// Snapshot is the read-only view handed to the rendering layer.
type Snapshot struct {
	ID         SessionID
	State      State
	PreviewURL string
	Result     *Result
	ErrMessage string
	DragActive bool
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.ID,
		State:      s.State(),
		ErrMessage: s.ErrMessage,
		DragActive: s.DragActive,
	}
	if s.Preview != nil {
		snap.PreviewURL = s.Preview.URL
	}
	if s.Result != nil {
		r := *s.Result
		snap.Result = &r
	}
	return snap
}
