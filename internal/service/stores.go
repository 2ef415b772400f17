package service

import (
	"context"

	"certquiz-service/internal/models"
	"certquiz-service/internal/upstream"
)

// The services consume narrow store interfaces so the quiz flow can be tested
// against in-memory fakes. The mongo repositories satisfy them.

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, update map[string]any) error
}

type SessionStore interface {
	FindByID(ctx context.Context, id string) (*models.QuizSession, error)
	FindLatest(ctx context.Context, userID, subject string) (*models.QuizSession, error)
	Create(ctx context.Context, session *models.QuizSession) error
	Update(ctx context.Context, id string, update map[string]any) error
}

type QuestionStore interface {
	FindBySession(ctx context.Context, sessionID string) ([]models.QuestionRecord, error)
	FindBySequence(ctx context.Context, sessionID string, sequence int) (*models.QuestionRecord, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	SetAnswer(ctx context.Context, sessionID, questionID, answer string) (*models.QuestionRecord, error)
}

// CertifiedAPI is the slice of the upstream exam API the services call.
type CertifiedAPI interface {
	CreateEntry(ctx context.Context, subject string) (*upstream.Entry, error)
	Continue(ctx context.Context, skillID int, email, phone, name string) (*upstream.ContinueResult, error)
	SaveUserResponse(ctx context.Context, skillQuizID int, token string, attempts []upstream.Attempt, completionTime, score int) error
	ClaimCertificate(ctx context.Context, skillID int, token string) error
	CreateOrder(ctx context.Context, skillID int, token string) (*upstream.OrderResult, error)
	Analysis(ctx context.Context, skillQuizID int, token string) (string, error)
}
