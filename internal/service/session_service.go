package service

import (
	"context"
	"errors"
	"log"
	"time"

	"certquiz-service/internal/generation"
	"certquiz-service/internal/models"
	"certquiz-service/internal/repository"

	"github.com/google/uuid"
)

type SessionService struct {
	Users     UserStore
	Sessions  SessionStore
	Questions QuestionStore
	API       CertifiedAPI
	Manager   *generation.Manager
	Cfg       generation.Config
}

func NewSessionService(users UserStore, sessions SessionStore, questions QuestionStore,
	api CertifiedAPI, manager *generation.Manager, cfg generation.Config) *SessionService {
	return &SessionService{
		Users:     users,
		Sessions:  sessions,
		Questions: questions,
		API:       api,
		Manager:   manager,
		Cfg:       cfg,
	}
}

type ResolveInput struct {
	Phone     string
	Email     string
	Name      string
	Subject   string
	SessionID string
}

// SkillInfo mirrors what the certified API knows about the subject.
type SkillInfo struct {
	SkillID int    `json:"skill_id"`
	Subject string `json:"subject"`
	Paid    bool   `json:"paid"`
}

type QuizSummary struct {
	TotalQuestions     int            `json:"total_questions"`
	QuestionsGenerated bool           `json:"questions_generated"`
	QuestionTypes      map[string]int `json:"question_types"`
}

type ResolveResult struct {
	State         generation.State       `json:"state"`
	User          *models.User           `json:"user"`
	Skill         SkillInfo              `json:"certified_skill"`
	Session       *models.QuizSession    `json:"session"`
	Quiz          QuizSummary            `json:"quiz"`
	FirstQuestion *models.QuestionRecord `json:"first_question,omitempty"`
	QuestionAdded bool                   `json:"question_added"`
}

// Resolve is the start/resume entry point. It finds or creates the user and
// the session, then reports the generation state: a ready session returns its
// first question immediately; anything else launches a detached poller and
// returns without waiting on it. Callers observe progress by resolving again.
func (s *SessionService) Resolve(ctx context.Context, in ResolveInput) (*ResolveResult, error) {
	user, err := s.resolveUser(ctx, in)
	if err != nil {
		return nil, err
	}

	session, err := s.resolveSession(ctx, user, in)
	if err != nil {
		return nil, err
	}

	variant := s.Cfg.VariantFor(session.Subject)
	result := &ResolveResult{
		User:    user,
		Session: session,
		Skill:   SkillInfo{SkillID: session.SkillID, Subject: session.Subject, Paid: session.Paid},
		Quiz: QuizSummary{
			TotalQuestions: variant.Total(),
			QuestionTypes: map[string]int{
				string(generation.TierEasy):   variant.EasyCount,
				string(generation.TierMedium): variant.MediumCount,
				string(generation.TierHard):   variant.HardCount,
			},
		},
	}

	count, err := s.Questions.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	if int(count) < variant.Total() {
		if !session.StartedQuiz {
			session.StartedQuiz = true
			if err := s.Sessions.Update(ctx, session.ID, map[string]any{"started_quiz": true}); err != nil {
				return nil, err
			}
		}
		// One cheap synchronous attempt; if the generator already has the
		// full set this saves the client a round trip.
		done, err := s.Manager.TryGenerate(ctx, session)
		if err != nil {
			log.Printf("resolve session=%s initial generate attempt: %v", session.ID, err)
		}
		if !done {
			s.Manager.Ensure(session)
			result.State = generation.StateGenerating
			result.Quiz.QuestionsGenerated = false
			return result, nil
		}
	}

	questions, err := s.Questions.FindBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) < variant.Total() {
		// A concurrent writer may have been counted above but not finished;
		// never report a partial set as ready.
		result.State = generation.StateGenerating
		return result, nil
	}

	result.State = generation.StateReady
	result.Quiz.QuestionsGenerated = true
	result.QuestionAdded = true
	result.FirstQuestion = &questions[0]
	return result, nil
}

// GetSession returns a session by id.
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.QuizSession, error) {
	return s.Sessions.FindByID(ctx, id)
}

// GetSessionQuestions returns a session's questions in sequence order.
func (s *SessionService) GetSessionQuestions(ctx context.Context, sessionID string) ([]models.QuestionRecord, error) {
	if _, err := s.Sessions.FindByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.Questions.FindBySession(ctx, sessionID)
}

// resolveUser finds the user by phone or creates one. A racing create is
// absorbed by re-fetching.
func (s *SessionService) resolveUser(ctx context.Context, in ResolveInput) (*models.User, error) {
	user, err := s.Users.FindByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if (in.Name != "" && in.Name != user.Name) || (in.Email != "" && in.Email != user.Email) {
			update := map[string]any{}
			if in.Name != "" {
				user.Name = in.Name
				update["name"] = in.Name
			}
			if in.Email != "" {
				user.Email = in.Email
				update["email"] = in.Email
			}
			if err := s.Users.Update(ctx, user.ID, update); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	user = &models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: time.Now(),
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return s.Users.FindByPhone(ctx, in.Phone)
		}
		return nil, err
	}
	return user, nil
}

// resolveSession reuses the user's session for the subject when one exists,
// otherwise registers the subject upstream and creates one. Creation is
// idempotent per (user, subject): a duplicate-key conflict means a concurrent
// resolve won the race, so its session is used.
func (s *SessionService) resolveSession(ctx context.Context, user *models.User, in ResolveInput) (*models.QuizSession, error) {
	if in.SessionID != "" {
		session, err := s.Sessions.FindByID(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		if session.UserID != user.ID || session.Subject != in.Subject {
			return nil, repository.ErrNotFound
		}
		return session, nil
	}

	session, err := s.Sessions.FindLatest(ctx, user.ID, in.Subject)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	// create_entry failure is fatal to resolution: no session without an
	// upstream skill id.
	entry, err := s.API.CreateEntry(ctx, in.Subject)
	if err != nil {
		return nil, err
	}

	session = &models.QuizSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Subject:   in.Subject,
		SkillID:   entry.SkillID,
		Paid:      entry.IsPaid,
		CreatedAt: time.Now(),
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			return s.Sessions.FindLatest(ctx, user.ID, in.Subject)
		}
		return nil, err
	}
	return session, nil
}
