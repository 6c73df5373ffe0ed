package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatbot-vector-engine/internal/logger"
	"chatbot-vector-engine/models"
	"chatbot-vector-engine/utils"
)

const (
	chunksCollection = "chunks"
	searchIndexName  = "vector_index"
)

// MongoStore implements Store on MongoDB Atlas Vector Search. Each physical
// index is its own database holding one chunks collection; namespaces are a
// filter field inside it. Atlas applies $vectorSearch filters as a
// pre-filter, so filtered queries are not biased by the query vector.
type MongoStore struct {
	client *mongo.Client
	dim    int
}

// chunkDoc is the at-rest shape of a chunk. Text is stored compressed.
type chunkDoc struct {
	ChunkID     string               `bson:"chunk_id"`
	Namespace   string               `bson:"namespace"`
	Embedding   []float32            `bson:"embedding"`
	Text        primitive.Binary     `bson:"text"`
	Compression string               `bson:"compression"`
	Metadata    models.ChunkMetadata `bson:"metadata"`
	Score       float64              `bson:"score,omitempty"`
}

func NewMongoStore(client *mongo.Client, dimensions int) *MongoStore {
	return &MongoStore{client: client, dim: dimensions}
}

func (s *MongoStore) collection(index string) *mongo.Collection {
	return s.client.Database(index).Collection(chunksCollection)
}

func (s *MongoStore) CreateIndex(ctx context.Context, name string) error {
	db := s.client.Database(name)

	// CreateCollection fails with NamespaceExists on repeat calls; the
	// search index cannot be defined on a collection that does not exist.
	if err := db.CreateCollection(ctx, chunksCollection); err != nil {
		if !isNamespaceExists(err) {
			return fmt.Errorf("create collection for index %s: %w", name, err)
		}
	}

	col := db.Collection(chunksCollection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "namespace", Value: 1}, {Key: "chunk_id", Value: 1}}},
		{Keys: bson.D{{Key: "namespace", Value: 1}, {Key: "metadata.source", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create metadata indexes for %s: %w", name, err)
	}

	exists, err := s.searchIndexExists(ctx, col)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	definition := bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: "embedding"},
			{Key: "numDimensions", Value: s.dim},
			{Key: "similarity", Value: "cosine"},
		},
		bson.D{{Key: "type", Value: "filter"}, {Key: "path", Value: "namespace"}},
		bson.D{{Key: "type", Value: "filter"}, {Key: "path", Value: "metadata.source"}},
		bson.D{{Key: "type", Value: "filter"}, {Key: "path", Value: "metadata.tenant"}},
	}}}

	_, err = col.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(searchIndexName).SetType("vectorSearch"),
	})
	if err != nil {
		return fmt.Errorf("create search index for %s: %w", name, err)
	}

	logger.Info("Created vector search index", "index", name, "dimensions", s.dim)
	return nil
}

func (s *MongoStore) IndexExists(ctx context.Context, name string) (bool, error) {
	names, err := s.client.ListDatabaseNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("list databases: %w", err)
	}
	return len(names) > 0, nil
}

func (s *MongoStore) IndexReady(ctx context.Context, name string) (bool, error) {
	cursor, err := s.collection(name).SearchIndexes().List(ctx,
		options.SearchIndexes().SetName(searchIndexName))
	if err != nil {
		return false, fmt.Errorf("list search indexes for %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var idx struct {
			Queryable bool   `bson:"queryable"`
			Status    string `bson:"status"`
		}
		if err := cursor.Decode(&idx); err != nil {
			continue
		}
		return idx.Queryable || idx.Status == "READY", nil
	}
	return false, nil
}

func (s *MongoStore) DeleteIndex(ctx context.Context, name string) error {
	if err := s.client.Database(name).Drop(ctx); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, index, namespace string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := make([]mongo.WriteModel, 0, len(chunks))
	for _, ch := range chunks {
		compressed, algorithm, err := utils.CompressText(ch.Text)
		if err != nil {
			return fmt.Errorf("compress chunk %s: %w", ch.ID, err)
		}

		doc := chunkDoc{
			ChunkID:     ch.ID,
			Namespace:   namespace,
			Embedding:   ch.Embedding,
			Text:        primitive.Binary{Data: compressed},
			Compression: string(algorithm),
			Metadata:    ch.Metadata,
		}
		batch = append(batch, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"namespace": namespace, "chunk_id": ch.ID}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}

	_, err := s.collection(index).BulkWrite(ctx, batch, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("upsert %d chunks into %s/%s: %w", len(chunks), index, namespace, err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, index, namespace string, vector []float32, topK int, filter map[string]string) ([]Match, error) {
	searchFilter := bson.D{{Key: "namespace", Value: namespace}}
	var tagFilter bson.D
	for key, value := range filter {
		switch key {
		case "source", "tenant":
			searchFilter = append(searchFilter, bson.E{Key: "metadata." + key, Value: value})
		default:
			// Tag keys are not declared as Atlas filter fields; match
			// them after the search stage instead.
			tagFilter = append(tagFilter, bson.E{Key: "metadata.tags." + key, Value: value})
		}
	}

	numCandidates := topK * 10
	if numCandidates < 100 {
		numCandidates = 100
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: searchIndexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: topK},
			{Key: "filter", Value: searchFilter},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
	if len(tagFilter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: tagFilter}})
	}

	cursor, err := s.collection(index).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector query on %s/%s: %w", index, namespace, err)
	}
	defer cursor.Close(ctx)

	var matches []Match
	for cursor.Next(ctx) {
		var doc chunkDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode query result: %w", err)
		}

		text, err := utils.DecompressText(doc.Text.Data, utils.CompressionAlgorithm(doc.Compression))
		if err != nil {
			logger.Warn("Failed to decompress chunk text", "chunk_id", doc.ChunkID, "error", err)
			continue
		}

		matches = append(matches, Match{
			ID:       doc.ChunkID,
			Score:    doc.Score,
			Text:     text,
			Metadata: doc.Metadata,
		})
	}
	return matches, cursor.Err()
}

func (s *MongoStore) DeleteByID(ctx context.Context, index, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.collection(index).DeleteMany(ctx, bson.M{
		"namespace": namespace,
		"chunk_id":  bson.M{"$in": ids},
	})
	if err != nil {
		return fmt.Errorf("delete %d chunks from %s/%s: %w", len(ids), index, namespace, err)
	}
	return nil
}

func (s *MongoStore) DeleteNamespace(ctx context.Context, index, namespace string) error {
	_, err := s.collection(index).DeleteMany(ctx, bson.M{"namespace": namespace})
	if err != nil {
		return fmt.Errorf("clear namespace %s/%s: %w", index, namespace, err)
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context, index string) (*IndexStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := s.collection(index).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$namespace"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", index, err)
	}
	defer cursor.Close(ctx)

	stats := &IndexStats{
		IndexName:  index,
		Namespaces: make(map[string]int64),
		Dimension:  s.dim,
	}
	for cursor.Next(ctx) {
		var row struct {
			Namespace string `bson:"_id"`
			Count     int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			continue
		}
		stats.Namespaces[row.Namespace] = row.Count
		stats.TotalVectors += row.Count
	}
	return stats, cursor.Err()
}

func (s *MongoStore) searchIndexExists(ctx context.Context, col *mongo.Collection) (bool, error) {
	cursor, err := col.SearchIndexes().List(ctx, options.SearchIndexes().SetName(searchIndexName))
	if err != nil {
		return false, fmt.Errorf("list search indexes: %w", err)
	}
	defer cursor.Close(ctx)
	return cursor.Next(ctx), nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48 // NamespaceExists
	}
	return false
}
