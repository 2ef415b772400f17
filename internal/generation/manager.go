package generation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"certquiz-service/internal/models"
	"certquiz-service/internal/upstream"

	"github.com/google/uuid"
)

// ErrDuplicateSet is returned by a QuestionStore when another writer already
// persisted the session's question set. The manager treats it as success:
// someone else finished first and the local result is discarded.
var ErrDuplicateSet = errors.New("question set already persisted for session")

// Generator is the upstream generate call.
type Generator interface {
	Generate(ctx context.Context, skillID int) (*upstream.GeneratedQuizPayload, error)
}

// QuestionStore is the slice of persistence the manager needs. InsertSet must
// be at-most-once per session: implementations either re-check the count
// transactionally or surface a uniqueness conflict as ErrDuplicateSet.
type QuestionStore interface {
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	InsertSet(ctx context.Context, records []models.QuestionRecord) error
}

// Manager drives question-set reconciliation for sessions: it decides whether
// a session is ready and, when it is not, runs a bounded background polling
// loop against the generator until the canonical set is persisted or the
// window closes. Pollers are keyed by session id so a resolve arriving while
// one is in flight does not start a second timeout chain.
type Manager struct {
	cfg      Config
	gen      Generator
	store    QuestionStore
	inflight sync.Map // session id -> struct{}
	wg       sync.WaitGroup
}

func NewManager(cfg Config, gen Generator, store QuestionStore) *Manager {
	return &Manager{cfg: cfg, gen: gen, store: store}
}

// Ensure launches a detached polling task for the session unless one is
// already running. It returns immediately; callers respond to the client
// without waiting for generation.
func (m *Manager) Ensure(session *models.QuizSession) {
	if _, loaded := m.inflight.LoadOrStore(session.ID, struct{}{}); loaded {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.inflight.Delete(session.ID)
		m.poll(session)
	}()
}

// Wait blocks until all in-flight pollers finish. Used on shutdown and in
// tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) poll(session *models.QuizSession) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.PollTimeout)
	defer cancel()

	for {
		done, err := m.TryGenerate(ctx, session)
		if err != nil {
			// Generator failures are never fatal here; keep retrying until
			// the window closes.
			log.Printf("generation poll session=%s: %v", session.ID, err)
		}
		if done {
			log.Printf("generation complete session=%s", session.ID)
			return
		}
		select {
		case <-ctx.Done():
			log.Printf("generation window elapsed session=%s, will resume on next resolve", session.ID)
			return
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

// TryGenerate performs one generate/extract/persist attempt. It returns true
// once the session holds its full question set, whether this attempt inserted
// it, a concurrent one did, or it was already there.
func (m *Manager) TryGenerate(ctx context.Context, session *models.QuizSession) (bool, error) {
	variant := m.cfg.VariantFor(session.Subject)

	count, err := m.store.CountBySession(ctx, session.ID)
	if err != nil {
		return false, err
	}
	if int(count) >= variant.Total() {
		return true, nil
	}

	payload, err := m.gen.Generate(ctx, session.SkillID)
	if err != nil {
		return false, err
	}

	drafts, ok := NewExtractor(variant).Extract(payload)
	if !ok {
		// Not ready yet, keep polling.
		return false, nil
	}

	records := make([]models.QuestionRecord, len(drafts))
	now := time.Now()
	for i, d := range drafts {
		records[i] = models.QuestionRecord{
			ID:               uuid.NewString(),
			SessionID:        session.ID,
			UserID:           session.UserID,
			Sequence:         d.Sequence,
			Question:         d.Question,
			CorrectAnswer:    d.CorrectAnswer,
			Scenario:         d.Scenario,
			CodeSnippetImage: d.CodeSnippetImage,
			ExternalItemID:   d.ExternalItemID,
			CreatedAt:        now,
		}
	}

	if err := m.store.InsertSet(ctx, records); err != nil {
		if errors.Is(err, ErrDuplicateSet) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// Resolve reports the generation state for a session given its current
// persisted question count.
func (m *Manager) Resolve(session *models.QuizSession, count int) State {
	variant := m.cfg.VariantFor(session.Subject)
	switch {
	case count >= variant.Total():
		return StateReady
	case m.Running(session.ID):
		return StateGenerating
	default:
		return StateNoQuestions
	}
}

// Running reports whether a poller is in flight for the session.
func (m *Manager) Running(sessionID string) bool {
	_, ok := m.inflight.Load(sessionID)
	return ok
}
