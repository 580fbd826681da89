package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/luminahq/lumina/internal/models"
)

// ErrVectorRecordNotFound is returned when no vector record exists for an ID.
var ErrVectorRecordNotFound = errors.New("vector record not found")

// VectorRecordsRepository handles data access for the vector_records table
// backing the similarity index.
type VectorRecordsRepository struct {
	db *pgxpool.Pool
}

// NewVectorRecordsRepository creates a new vector records repository.
func NewVectorRecordsRepository(db *pgxpool.Pool) *VectorRecordsRepository {
	return &VectorRecordsRepository{db: db}
}

// Upsert inserts or replaces a single vector record.
func (r *VectorRecordsRepository) Upsert(ctx context.Context, record *models.VectorRecord) error {
	query := `
		INSERT INTO vector_records (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = now()
	`

	_, err := r.db.Exec(ctx, query, record.ID, pgvector.NewVector(record.Embedding), record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to upsert vector record: %w", err)
	}

	return nil
}

// UpsertBatch inserts or replaces multiple vector records in one round trip.
func (r *VectorRecordsRepository) UpsertBatch(ctx context.Context, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO vector_records (id, embedding, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = now()
	`

	batch := &pgx.Batch{}
	for i := range records {
		batch.Queue(query, records[i].ID, pgvector.NewVector(records[i].Embedding), records[i].Metadata)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector record batch: %w", err)
		}
	}

	return nil
}

// Delete removes a single vector record. Missing IDs are not an error: the
// caller cannot know whether an asset was ever vectorized.
func (r *VectorRecordsRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vector_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vector record: %w", err)
	}

	return nil
}

// DeleteByIDs removes multiple vector records by ID.
func (r *VectorRecordsRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `DELETE FROM vector_records WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to delete vector records: %w", err)
	}

	return nil
}

// NearestFilter narrows a similarity search via the metadata document.
// Nil fields are not applied; a nil UserID means global search.
type NearestFilter struct {
	Type      string
	UserID    *string
	AssetID   *string
	AssetType *string
	FolderID  *string
}

// buildNearestQuery builds the similarity query and arguments. The query
// embedding is always $1; metadata conditions follow. Uses cosine distance
// (<=>); score = 1 - distance, filtered by minScore and capped at limit.
func buildNearestQuery(filter *NearestFilter, minScore float64, limit int) (query string, args []any) {
	// $1 is the query embedding, prepended by the caller.
	var conditions []string

	argCount := 2

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("metadata->>'type' = $%d", argCount))
		args = append(args, filter.Type)
		argCount++
	}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("metadata->>'user_id' = $%d", argCount))
		args = append(args, *filter.UserID)
		argCount++
	}

	if filter.AssetID != nil {
		conditions = append(conditions, fmt.Sprintf("metadata->>'asset_id' = $%d", argCount))
		args = append(args, *filter.AssetID)
		argCount++
	}

	if filter.AssetType != nil {
		conditions = append(conditions, fmt.Sprintf("metadata->>'asset_type' = $%d", argCount))
		args = append(args, *filter.AssetType)
		argCount++
	}

	if filter.FolderID != nil {
		conditions = append(conditions, fmt.Sprintf("metadata->>'folder_id' = $%d", argCount))
		args = append(args, *filter.FolderID)
		argCount++
	}

	conditions = append(conditions, fmt.Sprintf("(1 - (embedding <=> $1)) >= $%d", argCount))
	args = append(args, minScore)
	argCount++

	query = fmt.Sprintf(`
		SELECT id, metadata, (1 - (embedding <=> $1)) AS score
		FROM vector_records
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d`, strings.Join(conditions, " AND "), argCount)

	args = append(args, limit)

	return query, args
}

// Nearest returns the vector records closest to queryEmbedding, filtered by
// metadata and minimum similarity score, best matches first.
func (r *VectorRecordsRepository) Nearest(
	ctx context.Context, queryEmbedding []float32, filter *NearestFilter, minScore float64, limit int,
) ([]models.SearchResult, error) {
	query, args := buildNearestQuery(filter, minScore, limit)
	args = append([]any{pgvector.NewVector(queryEmbedding)}, args...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest vector records: %w", err)
	}
	defer rows.Close()

	results := []models.SearchResult{} // Initialize as empty slice, not nil

	for rows.Next() {
		var result models.SearchResult

		if err := rows.Scan(&result.ID, &result.Metadata, &result.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}

		result.AssetID = result.Metadata.AssetID

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// ListByAsset returns the vector records belonging to one asset and record
// type, ordered by chunk index. Embeddings are not loaded; this exists for
// metadata aggregation and chunk enumeration (chunk IDs are not otherwise
// listable).
func (r *VectorRecordsRepository) ListByAsset(
	ctx context.Context, assetID, recordType string, limit int,
) ([]models.VectorRecord, error) {
	query := `
		SELECT id, metadata
		FROM vector_records
		WHERE metadata->>'asset_id' = $1 AND metadata->>'type' = $2
		ORDER BY COALESCE((metadata->>'chunk_index')::int, 0)
	`

	args := []any{assetID, recordType}

	if limit > 0 {
		query += " LIMIT $3"

		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vector records: %w", err)
	}
	defer rows.Close()

	var records []models.VectorRecord

	for rows.Next() {
		var record models.VectorRecord

		if err := rows.Scan(&record.ID, &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan vector record: %w", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector records: %w", err)
	}

	return records, nil
}

// Count returns the total number of vector records.
func (r *VectorRecordsRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vector_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count vector records: %w", err)
	}

	return count, nil
}

// Ping verifies the table is reachable. The vector store uses this at
// startup to decide between enabled and degraded mode.
func (r *VectorRecordsRepository) Ping(ctx context.Context) error {
	var one int

	if err := r.db.QueryRow(ctx, `SELECT 1 FROM vector_records LIMIT 1`).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}

		return fmt.Errorf("vector records ping: %w", err)
	}

	return nil
}
