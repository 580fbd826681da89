// Package repository provides data access for assets and vector records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
)

// AssetsRepository handles data access for asset records.
type AssetsRepository struct {
	db *pgxpool.Pool
}

// NewAssetsRepository creates a new assets repository.
func NewAssetsRepository(db *pgxpool.Pool) *AssetsRepository {
	return &AssetsRepository{db: db}
}

// Create inserts a new asset record.
func (r *AssetsRepository) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	now := time.Now()

	query := `
		INSERT INTO assets (
			id, name, filename, type, mime_type, url,
			user_id, folder_id, tags, metadata, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, name, filename, type, mime_type, url,
			user_id, folder_id, tags, metadata, created_at, updated_at
	`

	var created models.Asset

	err := r.db.QueryRow(ctx, query,
		asset.ID, asset.Name, asset.Filename, asset.Type, asset.MimeType, asset.URL,
		asset.UserID, asset.FolderID, asset.Tags, asset.Metadata, now, now,
	).Scan(
		&created.ID, &created.Name, &created.Filename, &created.Type, &created.MimeType, &created.URL,
		&created.UserID, &created.FolderID, &created.Tags, &created.Metadata, &created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a single asset by ID.
func (r *AssetsRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `
		SELECT id, name, filename, type, mime_type, url,
			user_id, folder_id, tags, metadata, created_at, updated_at
		FROM assets
		WHERE id = $1
	`

	var asset models.Asset

	err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.Name, &asset.Filename, &asset.Type, &asset.MimeType, &asset.URL,
		&asset.UserID, &asset.FolderID, &asset.Tags, &asset.Metadata, &asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, lumerrors.ErrAssetNotFound
		}

		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

// ListAssetsFilters narrows List results. Nil fields are not applied.
type ListAssetsFilters struct {
	UserID   *string
	FolderID *string
	Type     *models.AssetType
	Limit    int
	Offset   int
}

// buildAssetFilterConditions builds WHERE clause conditions and arguments from filters.
// Returns the WHERE clause (including " WHERE " prefix if conditions exist) and the args slice.
func buildAssetFilterConditions(filters *ListAssetsFilters) (whereClause string, args []any) {
	var conditions []string

	argCount := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}

	if filters.FolderID != nil {
		conditions = append(conditions, fmt.Sprintf("folder_id = $%d", argCount))
		args = append(args, *filters.FolderID)
		argCount++
	}

	if filters.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argCount))
		args = append(args, *filters.Type)
	}

	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// List retrieves assets with optional filters, newest first.
func (r *AssetsRepository) List(ctx context.Context, filters *ListAssetsFilters) ([]models.Asset, error) {
	query := `
		SELECT id, name, filename, type, mime_type, url,
			user_id, folder_id, tags, metadata, created_at, updated_at
		FROM assets
	`

	whereClause, args := buildAssetFilterConditions(filters)
	query += whereClause
	argCount := len(args) + 1

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []models.Asset{} // Initialize as empty slice, not nil

	for rows.Next() {
		var asset models.Asset

		err := rows.Scan(
			&asset.ID, &asset.Name, &asset.Filename, &asset.Type, &asset.MimeType, &asset.URL,
			&asset.UserID, &asset.FolderID, &asset.Tags, &asset.Metadata, &asset.CreatedAt, &asset.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// UpdateMetadata replaces the asset's metadata document. The pipeline owns
// this column; callers pass back the full metadata after mutating it.
func (r *AssetsRepository) UpdateMetadata(ctx context.Context, id string, metadata models.AssetMetadata) error {
	query := `UPDATE assets SET metadata = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, metadata, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update asset metadata: %w", err)
	}

	if result.RowsAffected() == 0 {
		return lumerrors.ErrAssetNotFound
	}

	return nil
}

// ListIDsForVectorBackfill returns IDs of assets that have extracted content
// but no vectors yet and are not mid-pipeline.
func (r *AssetsRepository) ListIDsForVectorBackfill(ctx context.Context) ([]string, error) {
	query := `
		SELECT id FROM assets
		WHERE metadata ? 'extracted_content'
		  AND NOT COALESCE((metadata->>'vectorized')::boolean, false)
		  AND NOT COALESCE((metadata->>'vectorization_pending')::boolean, false)
		  AND NOT COALESCE((metadata->>'vectorization_failed')::boolean, false)
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids for vector backfill: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan asset id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector backfill ids: %w", err)
	}

	return ids, nil
}

// Delete removes an asset record.
func (r *AssetsRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM assets WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	if result.RowsAffected() == 0 {
		return lumerrors.ErrAssetNotFound
	}

	return nil
}
