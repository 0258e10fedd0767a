package analysis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/M1CTIAN/potato-doc/internal/application"
	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
	"github.com/M1CTIAN/potato-doc/internal/middleware"
)

// Service implements use-cases untuk slot "current analysis".
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Classifier domain.Classifier
	Previews   domain.PreviewStore
	Clock      application.Clock

	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.Session
}

func NewService(classifier domain.Classifier, previews domain.PreviewStore, clock application.Clock) *Service {
	return &Service{
		Classifier: classifier,
		Previews:   previews,
		Clock:      clock,
		sessions:   make(map[domain.SessionID]*domain.Session),
	}
}

//
// ==== USE CASES ====
//

// CreateSession buka slot analysis baru, mulai dari Idle.
func (s *Service) CreateSession() domain.Snapshot {
	sess := domain.NewSession(domain.SessionID(uuid.New().String()), s.Clock.Now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	snap := sess.Snapshot()
	s.mu.Unlock()

	return snap
}

// Snapshot returns the read-only view of a session. Polling this also
// counts as activity, which keeps the session out of the idle sweep.
func (s *Service) Snapshot(id domain.SessionID) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	sess.LastActive = s.Clock.Now()
	return sess.Snapshot(), nil
}

// SetDragActive flips the presentation-only drag indicator. It never
// touches the analysis state.
func (s *Service) SetDragActive(id domain.SessionID, active bool) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	sess.DragActive = active
	sess.LastActive = s.Clock.Now()
	return sess.Snapshot(), nil
}

// Select menerima file yang sudah lolos validasi, pasang preview baru
// (lepas yang lama), lalu jalankan inference tepat satu kali.
//
// Setiap pemilihan dapat selection token monoton; hasil inference yang
// kembali dengan token lama dibuang, jadi response telat dari file
// sebelumnya tidak pernah menimpa state file terbaru.
func (s *Service) Select(ctx context.Context, id domain.SessionID, file *domain.SelectedFile) (domain.Snapshot, error) {
	// buat preview duluan, di luar lock (panggilan network)
	preview, perr := s.Previews.Put(ctx, id, file)
	if perr != nil {
		// preview dianggap best-effort: analysis tetap jalan tanpa URL
		log.Printf("preview store put failed: session=%s err=%v", id, perr)
		preview = nil
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		if preview != nil {
			s.removePreview(preview)
		}
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}

	token := sess.NextSelection()
	s.releasePreviewLocked(sess)

	sess.File = file
	sess.Preview = preview
	sess.Result = nil
	sess.ErrMessage = ""
	sess.InFlight = true
	sess.LastActive = s.Clock.Now()
	snap := sess.Snapshot()
	s.mu.Unlock()

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	go s.runInference(id, token, file)

	return snap, nil
}

// Reset mengembalikan slot ke Idle: file, preview, result, error semua
// dibuang. Token ikut naik supaya request yang masih jalan jadi basi.
func (s *Service) Reset(id domain.SessionID) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}

	sess.NextSelection()
	s.releasePreviewLocked(sess)
	sess.Clear()
	sess.DragActive = false
	sess.LastActive = s.Clock.Now()
	return sess.Snapshot(), nil
}

// Teardown membuang session sepenuhnya (tab ditutup).
func (s *Service) Teardown(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}

	sess.NextSelection()
	s.releasePreviewLocked(sess)
	delete(s.sessions, id)
	return nil
}

// SweepIdle tears down sessions whose last activity is older than ttl,
// releasing their previews. Returns how many were removed.
func (s *Service) SweepIdle(ttl time.Duration) int {
	now := s.Clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActive) <= ttl {
			continue
		}
		sess.NextSelection()
		s.releasePreviewLocked(sess)
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// SessionCount untuk health/metrics
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

//
// ==== INTERNAL ====
//

// runInference jalan di goroutine sendiri dengan context.Background(),
// supaya gak kena context canceled waktu request HTTP-nya selesai.
// Satu percobaan saja; timeout ikut transport milik Classifier.
func (s *Service) runInference(id domain.SessionID, token uint64, file *domain.SelectedFile) {
	prediction, err := s.Classifier.Classify(context.Background(), file)
	s.settle(id, token, prediction, err)
}

// settle menulis hasil inference ke slot, kecuali token sudah basi.
func (s *Service) settle(id domain.SessionID, token uint64, prediction string, inferErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	middleware.DecrementAnalysesRunning()

	sess, ok := s.sessions[id]
	if !ok {
		middleware.IncrementStaleDiscarded()
		log.Printf("discarding inference outcome for torn-down session: session=%s selection=%d", id, token)
		return
	}
	if sess.Selection != token {
		middleware.IncrementStaleDiscarded()
		log.Printf("discarding stale inference outcome: session=%s selection=%d current=%d", id, token, sess.Selection)
		return
	}

	sess.InFlight = false
	if inferErr != nil {
		// penyebab asli cuma untuk log, user dapat pesan generik
		log.Printf("inference failed: session=%s selection=%d err=%v", id, token, inferErr)
		sess.ErrMessage = domain.FailureMessage
		middleware.IncrementAnalysesFailed()
		return
	}

	sess.Result = &domain.Result{Condition: prediction, Confidence: domain.FixedConfidence}
	middleware.IncrementAnalysesSucceeded()
}

// releasePreviewLocked lepas preview saat ini, tepat satu kali.
// Caller must hold s.mu.
func (s *Service) releasePreviewLocked(sess *domain.Session) {
	if sess.Preview == nil {
		return
	}
	s.removePreview(sess.Preview)
	sess.Preview = nil
}

func (s *Service) removePreview(h *domain.PreviewHandle) {
	if err := s.Previews.Remove(context.Background(), h); err != nil {
		log.Printf("preview release failed: key=%s err=%v", h.Key, err)
	}
}
