package analysis

import "context"

// Classifier port: satu percobaan best-effort per panggilan, tanpa retry.
// The returned string is the raw predicted condition label.
type Classifier interface {
	Classify(ctx context.Context, file *SelectedFile) (string, error)
}

// PreviewStore port (interface untuk penyimpanan preview)
type PreviewStore interface {
	Put(ctx context.Context, session SessionID, file *SelectedFile) (*PreviewHandle, error)
	Remove(ctx context.Context, h *PreviewHandle) error
}
