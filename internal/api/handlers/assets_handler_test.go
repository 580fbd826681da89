package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminahq/lumina/internal/jobs"
	"github.com/luminahq/lumina/internal/lumerrors"
	"github.com/luminahq/lumina/internal/models"
	"github.com/luminahq/lumina/internal/repository"
)

type mockAssetsRepo struct {
	createFunc func(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	getFunc    func(ctx context.Context, id string) (*models.Asset, error)
	listFunc   func(ctx context.Context, filters *repository.ListAssetsFilters) ([]models.Asset, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockAssetsRepo) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, asset)
	}

	return asset, nil
}

func (m *mockAssetsRepo) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}

	return nil, lumerrors.ErrAssetNotFound
}

func (m *mockAssetsRepo) List(ctx context.Context, filters *repository.ListAssetsFilters) ([]models.Asset, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filters)
	}

	return []models.Asset{}, nil
}

func (m *mockAssetsRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}

	return nil
}

func postAsset(t *testing.T, handler *AssetsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "http://test/v1/assets", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	return rec
}

func TestAssetsHandler_Create(t *testing.T) {
	t.Run("csv asset enqueues extraction", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewAssetsHandler(&mockAssetsRepo{}, enq)

		body := `{"name":"employees","type":"csv","url":"https://files.test/employees.csv","user_id":"user-1"}`
		rec := postAsset(t, handler, body)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, enq.enqueued, 1)
		assert.Equal(t, jobs.JobTypeExtractCSV, enq.enqueued[0].jobType)
		assert.Equal(t, jobs.PriorityNormal, enq.enqueued[0].priority)

		var created AssetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, enq.enqueued[0].assetID, created.ID)
		assert.Equal(t, models.VectorStatusNotVectorized, created.VectorStatus)
	})

	t.Run("pdf asset enqueues document extraction", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewAssetsHandler(&mockAssetsRepo{}, enq)

		body := `{"name":"report","type":"pdf","url":"https://files.test/report.pdf","user_id":"user-1","priority":"high"}`
		rec := postAsset(t, handler, body)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, enq.enqueued, 1)
		assert.Equal(t, jobs.JobTypeExtractPDF, enq.enqueued[0].jobType)
		assert.Equal(t, jobs.PriorityHigh, enq.enqueued[0].priority)
	})

	t.Run("image asset enqueues add", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewAssetsHandler(&mockAssetsRepo{}, enq)

		body := `{"name":"logo","type":"image","url":"https://files.test/logo.png","user_id":"user-1"}`
		rec := postAsset(t, handler, body)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, enq.enqueued, 1)
		assert.Equal(t, jobs.JobTypeAdd, enq.enqueued[0].jobType)
	})

	t.Run("missing required fields return 400", func(t *testing.T) {
		enq := &mockEnqueuer{}
		handler := NewAssetsHandler(&mockAssetsRepo{}, enq)

		for _, body := range []string{
			`{"type":"csv","url":"https://files.test/a.csv","user_id":"user-1"}`,
			`{"name":"a","type":"csv","user_id":"user-1"}`,
			`{"name":"a","type":"csv","url":"https://files.test/a.csv"}`,
		} {
			rec := postAsset(t, handler, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}

		assert.Empty(t, enq.enqueued)
	})

	t.Run("invalid priority returns 422", func(t *testing.T) {
		handler := NewAssetsHandler(&mockAssetsRepo{}, &mockEnqueuer{})

		body := `{"name":"a","type":"csv","url":"https://files.test/a.csv","user_id":"user-1","priority":"asap"}`
		rec := postAsset(t, handler, body)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAssetsHandler_Get(t *testing.T) {
	t.Run("found includes vector status", func(t *testing.T) {
		repo := &mockAssetsRepo{
			getFunc: func(_ context.Context, id string) (*models.Asset, error) {
				return &models.Asset{
					ID:       id,
					Name:     "report",
					Type:     models.AssetTypePDF,
					UserID:   "user-1",
					Metadata: models.AssetMetadata{Vectorized: true},
				}, nil
			},
		}
		handler := NewAssetsHandler(repo, &mockEnqueuer{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/assets/asset-1", nil)
		req.SetPathValue("id", "asset-1")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body AssetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, models.VectorStatusVectorized, body.VectorStatus)
	})

	t.Run("missing asset returns 404", func(t *testing.T) {
		handler := NewAssetsHandler(&mockAssetsRepo{}, &mockEnqueuer{})

		req := httptest.NewRequest(http.MethodGet, "http://test/v1/assets/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAssetsHandler_List(t *testing.T) {
	var gotFilters *repository.ListAssetsFilters

	repo := &mockAssetsRepo{
		listFunc: func(_ context.Context, filters *repository.ListAssetsFilters) ([]models.Asset, error) {
			gotFilters = filters

			return []models.Asset{{ID: "a-1"}, {ID: "a-2"}}, nil
		},
	}
	handler := NewAssetsHandler(repo, &mockEnqueuer{})

	req := httptest.NewRequest(http.MethodGet, "http://test/v1/assets?user_id=user-1&type=csv&limit=20", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFilters.UserID)
	assert.Equal(t, "user-1", *gotFilters.UserID)
	require.NotNil(t, gotFilters.Type)
	assert.Equal(t, models.AssetTypeCSV, *gotFilters.Type)
	assert.Equal(t, 20, gotFilters.Limit)

	var body ListAssetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
}

func TestAssetsHandler_Delete(t *testing.T) {
	enq := &mockEnqueuer{}
	handler := NewAssetsHandler(&mockAssetsRepo{deleteFunc: func(context.Context, string) error { return nil }}, enq)

	req := httptest.NewRequest(http.MethodDelete, "http://test/v1/assets/asset-1", nil)
	req.SetPathValue("id", "asset-1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, enq.enqueued, 1)
	assert.Equal(t, jobs.JobTypeRemove, enq.enqueued[0].jobType)
	assert.Equal(t, jobs.PriorityHigh, enq.enqueued[0].priority)
}
