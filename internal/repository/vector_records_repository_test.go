package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/models"
)

func TestBuildNearestQuery(t *testing.T) {
	t.Run("no filters yields score and limit only", func(t *testing.T) {
		query, args := buildNearestQuery(&NearestFilter{}, 0.3, 10)

		require.Len(t, args, 2)
		assert.Equal(t, 0.3, args[0])
		assert.Equal(t, 10, args[1])

		assert.Contains(t, query, "(1 - (embedding <=> $1)) >= $2")
		assert.Contains(t, query, "ORDER BY embedding <=> $1")
		assert.Contains(t, query, "LIMIT $3")
		assert.NotContains(t, query, "user_id")
	})

	t.Run("type filter comes first", func(t *testing.T) {
		query, args := buildNearestQuery(&NearestFilter{Type: models.RecordTypeDocumentChunk}, 0.5, 20)

		require.Len(t, args, 3)
		assert.Equal(t, models.RecordTypeDocumentChunk, args[0])
		assert.Equal(t, 0.5, args[1])
		assert.Equal(t, 20, args[2])

		assert.Contains(t, query, "metadata->>'type' = $2")
		assert.Contains(t, query, "(1 - (embedding <=> $1)) >= $3")
		assert.Contains(t, query, "LIMIT $4")
	})

	t.Run("nil user id omits the user filter entirely", func(t *testing.T) {
		query, _ := buildNearestQuery(&NearestFilter{Type: models.RecordTypeAsset}, 0.3, 10)

		assert.NotContains(t, query, "user_id")
	})

	t.Run("all filters applied in order", func(t *testing.T) {
		userID := "user-1"
		assetID := "asset-1"
		assetType := "pdf"
		folderID := "folder-1"

		query, args := buildNearestQuery(&NearestFilter{
			Type:      models.RecordTypeDocumentChunk,
			UserID:    &userID,
			AssetID:   &assetID,
			AssetType: &assetType,
			FolderID:  &folderID,
		}, 0.4, 5)

		require.Len(t, args, 7)
		assert.Equal(t, models.RecordTypeDocumentChunk, args[0])
		assert.Equal(t, "user-1", args[1])
		assert.Equal(t, "asset-1", args[2])
		assert.Equal(t, "pdf", args[3])
		assert.Equal(t, "folder-1", args[4])
		assert.Equal(t, 0.4, args[5])
		assert.Equal(t, 5, args[6])

		assert.Contains(t, query, "metadata->>'type' = $2")
		assert.Contains(t, query, "metadata->>'user_id' = $3")
		assert.Contains(t, query, "metadata->>'asset_id' = $4")
		assert.Contains(t, query, "metadata->>'asset_type' = $5")
		assert.Contains(t, query, "metadata->>'folder_id' = $6")
		assert.Contains(t, query, "(1 - (embedding <=> $1)) >= $7")
		assert.Contains(t, query, "LIMIT $8")
	})
}

func TestBuildAssetFilterConditions(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		whereClause, args := buildAssetFilterConditions(&ListAssetsFilters{})

		assert.Empty(t, whereClause)
		assert.Empty(t, args)
	})

	t.Run("user and type filters", func(t *testing.T) {
		userID := "user-1"
		assetType := models.AssetTypeCSV

		whereClause, args := buildAssetFilterConditions(&ListAssetsFilters{
			UserID: &userID,
			Type:   &assetType,
		})

		assert.Equal(t, " WHERE user_id = $1 AND type = $2", whereClause)
		require.Len(t, args, 2)
		assert.Equal(t, "user-1", args[0])
		assert.Equal(t, models.AssetTypeCSV, args[1])
	})

	t.Run("folder filter", func(t *testing.T) {
		folderID := "folder-9"

		whereClause, args := buildAssetFilterConditions(&ListAssetsFilters{FolderID: &folderID})

		assert.Equal(t, " WHERE folder_id = $1", whereClause)
		require.Len(t, args, 1)
	})
}
