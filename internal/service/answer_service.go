package service

import (
	"context"

	"certquiz-service/internal/generation"
)

type AnswerService struct {
	Sessions  SessionStore
	Questions QuestionStore
	Cfg       generation.Config
}

func NewAnswerService(sessions SessionStore, questions QuestionStore, cfg generation.Config) *AnswerService {
	return &AnswerService{Sessions: sessions, Questions: questions, Cfg: cfg}
}

const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// AnswerOutcome is what the client sees after saving an answer: either the
// next question or a completion signal.
type AnswerOutcome struct {
	Status            string `json:"status"`
	Question          string `json:"question,omitempty"`
	QuestionID        string `json:"question_id,omitempty"`
	QuestionNo        int    `json:"question_no,omitempty"`
	CurrentQuestionNo int    `json:"current_question_no"`
	TotalQuestions    int    `json:"total_questions"`
	Scenario          string `json:"scenario"`
	CodeSnippetImage  string `json:"code_snippet_imageLink,omitempty"`
	HasCodeImage      bool   `json:"has_code_image"`
}

// SaveAnswer records the answer and advances strictly by sequence number.
// Re-answering a question overwrites the previous answer. The scenario text
// travels only with the first medium and first hard positions; every other
// next question carries an empty scenario.
func (s *AnswerService) SaveAnswer(ctx context.Context, sessionID, questionID, answer string) (*AnswerOutcome, error) {
	session, err := s.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	variant := s.Cfg.VariantFor(session.Subject)

	answered, err := s.Questions.SetAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		return nil, err
	}

	next, err := s.Questions.FindBySequence(ctx, sessionID, answered.Sequence+1)
	if err != nil {
		return nil, err
	}

	if next == nil {
		if !session.QuizCompleted {
			update := map[string]any{"quiz_completed": true, "attempted": true}
			if err := s.Sessions.Update(ctx, sessionID, update); err != nil {
				return nil, err
			}
		}
		return &AnswerOutcome{
			Status:            StatusComplete,
			CurrentQuestionNo: answered.Sequence,
			TotalQuestions:    variant.Total(),
		}, nil
	}

	scenario := ""
	if next.Sequence == variant.FirstMediumSeq() || next.Sequence == variant.FirstHardSeq() {
		scenario = next.Scenario
	}

	outcome := &AnswerOutcome{
		Status:            StatusPending,
		Question:          next.Question,
		QuestionID:        next.ID,
		QuestionNo:        next.Sequence,
		CurrentQuestionNo: answered.Sequence,
		TotalQuestions:    variant.Total(),
		Scenario:          scenario,
	}
	if variant.CodeAware {
		outcome.CodeSnippetImage = next.CodeSnippetImage
		outcome.HasCodeImage = next.CodeSnippetImage != ""
	}
	return outcome, nil
}
