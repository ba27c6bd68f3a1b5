// Package storage provides the Qdrant-backed vector store used when a
// corpus outgrows the in-memory exact-search budget. Qdrant's HNSW graph
// gives approximate nearest-neighbor search that is repeatable for a
// fixed built index; the deterministic tie-break is applied client-side
// on the returned scores.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/codexankiiit31/career-retrieval/internal/corpus"
	"github.com/codexankiiit31/career-retrieval/internal/index"
)

// CollectionName is the single Qdrant collection holding career content
// chunks.
const CollectionName = "career_chunks"

// upsertBatchSize groups chunk upserts per request.
const upsertBatchSize = 100

// Store wraps the Qdrant client with connection management, health
// checks, and the engine's search contract.
type Store struct {
	client *qdrant.Client
	host   string
	port   int
	dim    int
}

// NewStore creates a Qdrant client for vectors of the given
// dimensionality. It health-checks with retry on startup and fails fast
// if Qdrant is unreachable.
func NewStore(host string, port, dim int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{client: client, host: host, port: port, dim: dim}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return s, nil
}

// healthCheckWithRetry performs a health check with exponential backoff:
// initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the chunk collection (cosine distance, the
// store's dimensionality) and its payload indexes if missing. Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == CollectionName {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Filterable fields need indexes or filtering degrades badly.
	for _, field := range []string{"document_id", "source", "topic_tags"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: CollectionName,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("create index for field %s: %w", field, err)
		}
	}

	return nil
}

// Clear deletes all points and recreates the collection. Used by corpus
// refreshes that rebuild from scratch.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, CollectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UpsertChunks stores embedded chunks, batched in groups of 100 with
// backoff retry. Every vector is validated against the store
// dimensionality before anything is written.
func (s *Store) UpsertChunks(ctx context.Context, chunks []corpus.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i := range chunks {
		if len(chunks[i].Vector) != s.dim {
			return fmt.Errorf("chunk %s has %d dimensions, store has %d: %w",
				chunks[i].ID, len(chunks[i].Vector), s.dim, corpus.ErrDimensionMismatch)
		}
	}

	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		batch := chunks[start:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for i, chunk := range batch {
			tags := make([]any, len(chunk.TopicTags))
			for j, t := range chunk.TopicTags {
				tags[j] = t
			}
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(corpus.Normalize(chunk.Vector)...),
				Payload: qdrant.NewValueMap(map[string]any{
					"document_id": chunk.DocumentID,
					"text":        chunk.Text,
					"token_count": chunk.TokenCount,
					"topic_tags":  tags,
					"source":      chunk.Source,
					"url":         chunk.URL,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs the upsert with exponential backoff.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: CollectionName,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search implements the retriever's search contract: top-k chunks by
// cosine similarity, optionally restricted to topic tags. Vectors are
// returned with each chunk so the MMR pass can compute pairwise
// similarity. Results carry clipped [0,1] scores and the same tie-break
// ordering as the in-memory index.
func (s *Store) Search(ctx context.Context, vector []float32, k int, topics []string) ([]corpus.ScoredChunk, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query has %d dimensions, store has %d: %w",
			len(vector), s.dim, corpus.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	var filter *qdrant.Filter
	if len(topics) > 0 {
		filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords("topic_tags", topics...),
			},
		}
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: CollectionName,
		Query:          qdrant.NewQuery(corpus.Normalize(vector)...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	results := make([]corpus.ScoredChunk, 0, len(points))
	for _, point := range points {
		payload := point.Payload

		var tags []string
		if list := payload["topic_tags"].GetListValue(); list != nil {
			for _, v := range list.Values {
				tags = append(tags, v.GetStringValue())
			}
		}

		chunk := &corpus.Chunk{
			ID:         point.Id.GetUuid(),
			DocumentID: payload["document_id"].GetStringValue(),
			Text:       payload["text"].GetStringValue(),
			TokenCount: int(payload["token_count"].GetIntegerValue()),
			TopicTags:  tags,
			Source:     payload["source"].GetStringValue(),
			URL:        payload["url"].GetStringValue(),
			Vector:     point.Vectors.GetVector().GetData(),
		}

		results = append(results, corpus.ScoredChunk{
			Chunk: chunk,
			Score: corpus.ClipScore(float64(point.Score)),
		})
	}

	index.SortRanked(results)
	return results, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, CollectionName)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}
