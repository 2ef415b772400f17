package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"certquiz-service/internal/config"
	"certquiz-service/internal/generation"
	"certquiz-service/internal/models"
	"certquiz-service/internal/repository"
	"certquiz-service/internal/upstream"
)

// In-memory fakes with the same uniqueness contracts as the mongo
// repositories.

type fakeUserStore struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]*models.User)}
}

func (s *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Phone == user.Phone {
			return repository.ErrDuplicateUser
		}
	}
	cp := *user
	s.byID[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) Update(ctx context.Context, id string, update map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v, ok := update["name"].(string); ok {
		u.Name = v
	}
	if v, ok := update["email"].(string); ok {
		u.Email = v
	}
	return nil
}

func (s *fakeUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type fakeSessionStore struct {
	mu   sync.Mutex
	byID map[string]*models.QuizSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byID: make(map[string]*models.QuizSession)}
}

func (s *fakeSessionStore) FindByID(ctx context.Context, id string) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) FindLatest(ctx context.Context, userID, subject string) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.QuizSession
	for _, sess := range s.byID {
		if sess.UserID == userID && sess.Subject == subject {
			if latest == nil || sess.CreatedAt.After(latest.CreatedAt) {
				latest = sess
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeSessionStore) Create(ctx context.Context, session *models.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.byID {
		if sess.UserID == session.UserID && sess.Subject == session.Subject {
			return repository.ErrDuplicateSession
		}
	}
	cp := *session
	s.byID[session.ID] = &cp
	return nil
}

func (s *fakeSessionStore) Update(ctx context.Context, id string, update map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	for key, raw := range update {
		switch key {
		case "started_quiz":
			sess.StartedQuiz = raw.(bool)
		case "quiz_completed":
			sess.QuizCompleted = raw.(bool)
		case "attempted":
			sess.Attempted = raw.(bool)
		case "quiz_analysis_generated":
			sess.QuizAnalysisGenerated = raw.(bool)
		case "score":
			sess.Score = raw.(int)
		case "order_id":
			sess.OrderID = raw.(string)
		case "token":
			sess.Token = raw.(string)
		case "analysis":
			sess.Analysis = raw.(string)
		case "token_expires_at":
			sess.TokenExpiresAt = raw.(time.Time)
		}
	}
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// fakeQuestionStore satisfies both the service QuestionStore and the
// generation manager's store interface.
type fakeQuestionStore struct {
	mu        sync.Mutex
	bySession map[string][]models.QuestionRecord
	inserts   int
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{bySession: make(map[string][]models.QuestionRecord)}
}

func (s *fakeQuestionStore) FindBySession(ctx context.Context, sessionID string) ([]models.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append([]models.QuestionRecord(nil), s.bySession[sessionID]...)
	sort.Slice(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })
	return records, nil
}

func (s *fakeQuestionStore) FindBySequence(ctx context.Context, sessionID string, sequence int) (*models.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.bySession[sessionID] {
		if r.Sequence == sequence {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeQuestionStore) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.bySession[sessionID])), nil
}

func (s *fakeQuestionStore) SetAnswer(ctx context.Context, sessionID, questionID, answer string) (*models.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.bySession[sessionID]
	for i := range records {
		if records[i].ID == questionID {
			records[i].Answer = answer
			records[i].Answered = true
			cp := records[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeQuestionStore) InsertSet(ctx context.Context, records []models.QuestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) == 0 {
		return nil
	}
	sessionID := records[0].SessionID
	if len(s.bySession[sessionID]) > 0 {
		return generation.ErrDuplicateSet
	}
	s.bySession[sessionID] = append([]models.QuestionRecord(nil), records...)
	s.inserts++
	return nil
}

// fakeAPI scripts the certified exam API.
type fakeAPI struct {
	mu            sync.Mutex
	entryCalls    int
	generateCalls int
	entryFail     bool
	generateShort int // first N generate calls return an incomplete payload
	continueFail  bool
	saveFail      bool
	claimFail     bool
	orderFail     bool
	analysisFail  bool
	orderID       string
	analysisBlob  string
	savedScore    int
	savedAttempts []upstream.Attempt
}

func testPayload() *upstream.GeneratedQuizPayload {
	item := func(n int) upstream.QuizItem {
		return upstream.QuizItem{
			ID:            n,
			Question:      fmt.Sprintf("Q%d", n),
			OptionA:       "A",
			OptionB:       "B",
			OptionC:       "C",
			OptionD:       "D",
			CorrectAnswer: "a",
		}
	}
	p := &upstream.GeneratedQuizPayload{}
	for n := 1; n <= 5; n++ {
		p.Easy = append(p.Easy, item(n))
	}
	for n := 6; n <= 8; n++ {
		p.Medium = append(p.Medium, item(n))
	}
	p.Medium[0].ScenarioTitle = "Outage"
	p.Medium[0].TextContext = "The primary region is down."
	for n := 9; n <= 10; n++ {
		p.Hard = append(p.Hard, item(n))
	}
	return p
}

func (a *fakeAPI) CreateEntry(ctx context.Context, subject string) (*upstream.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entryCalls++
	if a.entryFail {
		return nil, &upstream.FatalError{Op: "create-entry", Err: errors.New("boom")}
	}
	return &upstream.Entry{SkillID: 42, SubjectName: subject}, nil
}

func (a *fakeAPI) Generate(ctx context.Context, skillID int) (*upstream.GeneratedQuizPayload, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generateCalls++
	p := testPayload()
	if a.generateCalls <= a.generateShort {
		p.Hard = []upstream.QuizItem{}
	}
	return p, nil
}

func (a *fakeAPI) Continue(ctx context.Context, skillID int, email, phone, name string) (*upstream.ContinueResult, error) {
	if a.continueFail {
		return nil, &upstream.FatalError{Op: "continue", Err: errors.New("boom")}
	}
	return &upstream.ContinueResult{Token: "tok-123"}, nil
}

func (a *fakeAPI) SaveUserResponse(ctx context.Context, skillQuizID int, token string, attempts []upstream.Attempt, completionTime, score int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.saveFail {
		return errors.New("save failed")
	}
	a.savedScore = score
	a.savedAttempts = attempts
	return nil
}

func (a *fakeAPI) ClaimCertificate(ctx context.Context, skillID int, token string) error {
	if a.claimFail {
		return errors.New("claim failed")
	}
	return nil
}

func (a *fakeAPI) CreateOrder(ctx context.Context, skillID int, token string) (*upstream.OrderResult, error) {
	if a.orderFail {
		return nil, errors.New("order failed")
	}
	return &upstream.OrderResult{OrderID: a.orderID}, nil
}

func (a *fakeAPI) Analysis(ctx context.Context, skillQuizID int, token string) (string, error) {
	if a.analysisFail {
		return "", errors.New("analysis failed")
	}
	return a.analysisBlob, nil
}

// env wires the services against fakes.
type env struct {
	users     *fakeUserStore
	sessions  *fakeSessionStore
	questions *fakeQuestionStore
	api       *fakeAPI
	manager   *generation.Manager
	cfg       *config.Config
	session   *SessionService
	answer    *AnswerService
	result    *ResultService
}

func newEnv() *env {
	gcfg := generation.DefaultConfig()
	gcfg.PollTimeout = 2 * time.Second
	gcfg.PollInterval = 5 * time.Millisecond

	cfg := &config.Config{
		Generation: gcfg,
		TokenTTL:   time.Hour,
		ScoreBands: []config.ScoreBand{
			{Min: 0, Label: "beginner"},
			{Min: 3, Label: "novice"},
			{Min: 5, Label: "intermediate"},
			{Min: 7, Label: "proficient"},
			{Min: 9, Label: "advanced"},
			{Min: 10, Label: "expert"},
		},
	}

	e := &env{
		users:     newFakeUserStore(),
		sessions:  newFakeSessionStore(),
		questions: newFakeQuestionStore(),
		api:       &fakeAPI{},
		cfg:       cfg,
	}
	e.manager = generation.NewManager(gcfg, e.api, e.questions)
	e.session = NewSessionService(e.users, e.sessions, e.questions, e.api, e.manager, gcfg)
	e.answer = NewAnswerService(e.sessions, e.questions, gcfg)
	e.result = NewResultService(e.users, e.sessions, e.questions, e.api, cfg)
	return e
}
