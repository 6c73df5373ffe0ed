package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"chatbot-vector-engine/internal/logger"
)

// RecordService updates the chatbot configuration records owned by the
// control plane. The ingestion engine only touches timestamps; everything
// else on those records belongs to the API service.
type RecordService struct {
	collection *mongo.Collection
}

// NewRecordService wraps the chatbots collection. A nil database disables
// record updates, which single-binary test setups rely on.
func NewRecordService(db *mongo.Database) *RecordService {
	if db == nil {
		return &RecordService{}
	}
	return &RecordService{collection: db.Collection("chatbots")}
}

// TouchUpdatedAt bumps the config's updated_at after an ingestion pass.
// Best effort: a miss or write failure is logged and swallowed so record
// bookkeeping never fails a batch that already stored its chunks.
func (s *RecordService) TouchUpdatedAt(ctx context.Context, configID string) {
	if s.collection == nil || configID == "" {
		return
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"config_id": configID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		logger.Warn("Failed to touch chatbot record", "config_id", configID, "error", err)
	}
}
