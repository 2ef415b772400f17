package repository

import (
	"context"

	"certquiz-service/internal/generation"
	"certquiz-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

// EnsureIndexes enforces the (session, sequence) uniqueness that makes the
// bulk insert safe against racing pollers.
func (r *QuestionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// FindBySession returns the session's questions in sequence order.
func (r *QuestionRepository) FindBySession(ctx context.Context, sessionID string) ([]models.QuestionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.QuestionRecord
	for cur.Next(ctx) {
		var q models.QuestionRecord
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// FindBySequence returns (nil, nil) when the session has no question at the
// sequence position.
func (r *QuestionRepository) FindBySequence(ctx context.Context, sessionID string, sequence int) (*models.QuestionRecord, error) {
	var q models.QuestionRecord
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID, "sequence": sequence}).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{"session_id": sessionID})
}

// InsertSet persists a session's question set in one operation, at most once.
// A pre-check catches the common race cheaply; the unique index on
// (session_id, sequence) catches the rest, surfaced as ErrDuplicateSet so the
// losing poller discards its result.
func (r *QuestionRepository) InsertSet(ctx context.Context, records []models.QuestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	count, err := r.CountBySession(ctx, records[0].SessionID)
	if err != nil {
		return err
	}
	if count > 0 {
		return generation.ErrDuplicateSet
	}
	docs := make([]any, len(records))
	for i := range records {
		docs[i] = records[i]
	}
	_, err = r.Col.InsertMany(ctx, docs)
	if mongo.IsDuplicateKeyError(err) {
		return generation.ErrDuplicateSet
	}
	return err
}

// SetAnswer records an answer on a question, scoped to the session the caller
// claims it belongs to. Answering again overwrites the previous answer. The
// updated record is returned; ErrNotFound when the id or ownership does not
// match.
func (r *QuestionRepository) SetAnswer(ctx context.Context, sessionID, questionID, answer string) (*models.QuestionRecord, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var q models.QuestionRecord
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{"_id": questionID, "session_id": sessionID},
		bson.M{"$set": bson.M{"answer": answer, "answered": true}},
		opts,
	).Decode(&q)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}
