package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"certquiz-service/internal/config"
	"certquiz-service/internal/upstream"
)

type ResultService struct {
	Users     UserStore
	Sessions  SessionStore
	Questions QuestionStore
	API       CertifiedAPI
	Cfg       *config.Config
}

func NewResultService(users UserStore, sessions SessionStore, questions QuestionStore,
	api CertifiedAPI, cfg *config.Config) *ResultService {
	return &ResultService{Users: users, Sessions: sessions, Questions: questions, API: api, Cfg: cfg}
}

type SubmitResult struct {
	Score              int    `json:"score"`
	TotalQuestions     int    `json:"total_questions"`
	Band               string `json:"band"`
	OrderID            string `json:"order_id,omitempty"`
	CertificateClaimed bool   `json:"certificate_claimed"`
	AnalysisGenerated  bool   `json:"analysis_generated"`
}

// Submit scores a finished session and pushes the result upstream. Only the
// continue call is fatal; everything after it is best effort, logged and
// skipped on failure.
func (s *ResultService) Submit(ctx context.Context, sessionID string, completionTime int) (*SubmitResult, error) {
	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.Users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	records, err := s.Questions.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	variant := s.Cfg.Generation.VariantFor(session.Subject)
	if len(records) < variant.Total() {
		return nil, fmt.Errorf("session %s has no complete question set", sessionID)
	}
	for _, r := range records {
		if !r.Answered {
			return nil, fmt.Errorf("question %d is unanswered", r.Sequence)
		}
	}

	score := 0
	attempts := make([]upstream.Attempt, len(records))
	for i, r := range records {
		correct := strings.EqualFold(r.Answer, r.CorrectAnswer)
		if correct {
			score++
		}
		attempts[i] = upstream.Attempt{ItemID: r.ExternalItemID, Answer: r.Answer, Correct: correct}
	}

	cont, err := s.API.Continue(ctx, session.SkillID, user.Email, user.Phone, user.Name)
	if err != nil {
		return nil, err
	}
	update := map[string]any{
		"token":            cont.Token,
		"token_expires_at": time.Now().Add(s.Cfg.TokenTTL),
		"score":            score,
		"quiz_completed":   true,
		"attempted":        true,
	}

	result := &SubmitResult{
		Score:          score,
		TotalQuestions: variant.Total(),
		Band:           s.Cfg.BandFor(score),
	}

	if err := s.API.SaveUserResponse(ctx, session.SkillID, cont.Token, attempts, completionTime, score); err != nil {
		log.Printf("submit session=%s save-response: %v", sessionID, err)
	}
	if err := s.API.ClaimCertificate(ctx, session.SkillID, cont.Token); err != nil {
		log.Printf("submit session=%s claim-certificate: %v", sessionID, err)
	} else {
		result.CertificateClaimed = true
	}
	if order, err := s.API.CreateOrder(ctx, session.SkillID, cont.Token); err != nil {
		log.Printf("submit session=%s create-order: %v", sessionID, err)
	} else if order.OrderID != "" {
		result.OrderID = order.OrderID
		update["order_id"] = order.OrderID
	}
	if analysis, err := s.API.Analysis(ctx, session.SkillID, cont.Token); err != nil {
		log.Printf("submit session=%s analysis: %v", sessionID, err)
	} else if analysis != "" {
		result.AnalysisGenerated = true
		update["analysis"] = analysis
		update["quiz_analysis_generated"] = true
	}

	if err := s.Sessions.Update(ctx, sessionID, update); err != nil {
		return nil, err
	}
	return result, nil
}
