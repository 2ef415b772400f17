package models

import "time"

// QuestionRecord is one persisted, sequenced question belonging to a session.
// Sequence numbers form a contiguous 1..10 range once the set is persisted.
// Records are bulk-inserted in one operation; afterwards only the answer
// fields ever change.
type QuestionRecord struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	SessionID        string    `bson:"session_id" json:"session_id"`
	UserID           string    `bson:"user_id" json:"user_id"`
	Sequence         int       `bson:"sequence" json:"sequence"`
	Question         string    `bson:"question" json:"question"`
	CorrectAnswer    string    `bson:"correct_answer" json:"-"`
	Answer           string    `bson:"answer" json:"answer"`
	Answered         bool      `bson:"answered" json:"answered"`
	Scenario         string    `bson:"scenario" json:"scenario,omitempty"`
	CodeSnippetImage string    `bson:"code_snippet_image" json:"code_snippet_image,omitempty"`
	ExternalItemID   int       `bson:"external_item_id" json:"external_item_id"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
