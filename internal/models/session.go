package models

import "time"

// QuizSession is one user's attempt at one subject's certification quiz.
// A session owns either zero or exactly ten QuestionRecords; any count in
// between is a transient state while generation is still in flight.
type QuizSession struct {
	ID                    string    `bson:"_id,omitempty" json:"id"`
	UserID                string    `bson:"user_id" json:"user_id"`
	Subject               string    `bson:"subject" json:"subject"`
	SkillID               int       `bson:"skill_id" json:"skill_id"`
	Token                 string    `bson:"token" json:"-"`
	TokenExpiresAt        time.Time `bson:"token_expires_at" json:"-"`
	QuizCompleted         bool      `bson:"quiz_completed" json:"quiz_completed"`
	QuizAnalysisGenerated bool      `bson:"quiz_analysis_generated" json:"quiz_analysis_generated"`
	StartedQuiz           bool      `bson:"started_quiz" json:"started_quiz"`
	Attempted             bool      `bson:"attempted" json:"attempted"`
	Paid                  bool      `bson:"paid" json:"paid"`
	OrderID               string    `bson:"order_id" json:"order_id"`
	Score                 int       `bson:"score" json:"score"`
	Analysis              string    `bson:"analysis" json:"-"`
	CreatedAt             time.Time `bson:"created_at" json:"created_at"`
}
