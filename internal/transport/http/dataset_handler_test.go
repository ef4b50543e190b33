package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bajadash/internal/dataprocessing"
	apierrors "bajadash/internal/errors"
	"bajadash/internal/services"
	"bajadash/pkg/contracts/domain"
)

// MockDatasetService is a mock implementation of DatasetServiceInterface.
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, r io.Reader) (services.UploadResult, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(services.UploadResult), args.Error(1)
}

func (m *MockDatasetService) Rows(ctx context.Context, sessionID string) (domain.Dataset, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Dataset), args.Error(1)
}

func (m *MockDatasetService) View(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (services.ViewResult, error) {
	args := m.Called(ctx, sessionID, criteria)
	return args.Get(0).(services.ViewResult), args.Error(1)
}

func (m *MockDatasetService) Quality(ctx context.Context, sessionID string) (domain.DataQualityReport, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.DataQualityReport), args.Error(1)
}

func (m *MockDatasetService) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func newTestHandler(service DatasetServiceInterface) *DatasetHandler {
	logger := slog.Default()
	return NewDatasetHandler(service, logger, apierrors.NewErrorHandler(logger), 1<<20)
}

// multipartBody builds a multipart form with a single "file" field.
func multipartBody(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "export.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDatasetHandler_Upload(t *testing.T) {
	mockService := new(MockDatasetService)
	result := services.UploadResult{
		SessionID: uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Report:    domain.CleanReport{RowsIn: 3, RowsOut: 3},
		Options: domain.FilterOptions{
			Diagnoses:   []string{"Lumbalgia"},
			Genders:     []string{domain.GenderMale},
			AgeBands:    []string{"36-45"},
			MinEpisodes: 8,
			MaxEpisodes: 15,
		},
	}
	mockService.On("Upload", mock.Anything, mock.Anything).Return(result, nil)

	body, contentType := multipartBody(t, []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "success", envelope["status"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, result.SessionID, data["session_id"])
	mockService.AssertExpectations(t)
}

func TestDatasetHandler_UploadMissingFile(t *testing.T) {
	mockService := new(MockDatasetService)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	mockService.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestDatasetHandler_UploadSchemaError(t *testing.T) {
	mockService := new(MockDatasetService)
	mockService.On("Upload", mock.Anything, mock.Anything).
		Return(services.UploadResult{}, &dataprocessing.SchemaError{Missing: []string{"P99min"}})

	body, contentType := multipartBody(t, []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "SCHEMA_INVALID", problem["error_code"])
	details := problem["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"P99min"}, details["missing_columns"])
}

func TestDatasetHandler_UploadEmptyWorkbook(t *testing.T) {
	mockService := new(MockDatasetService)
	mockService.On("Upload", mock.Anything, mock.Anything).
		Return(services.UploadResult{}, services.ErrEmptyWorkbook)

	body, contentType := multipartBody(t, []byte("workbook bytes"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "EMPTY_DATASET", problem["error_code"])
}

func TestDatasetHandler_GetRows(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	ds := domain.Dataset{Records: []domain.EpisodeRecord{
		{Diagnosis: "Lumbalgia", Gender: domain.GenderMale, CaseID: "C001", EpisodeCount: 15},
	}}
	mockService.On("Rows", mock.Anything, sessionID).Return(ds, nil)

	req := httptest.NewRequest(http.MethodGet, "/"+sessionID+"/rows", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "success", envelope["status"])
	assert.Equal(t, float64(1), envelope["count"])
}

func TestDatasetHandler_InvalidSessionID(t *testing.T) {
	mockService := new(MockDatasetService)

	req := httptest.NewRequest(http.MethodGet, "/not-a-uuid/rows", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "Rows", mock.Anything, mock.Anything)
}

func TestDatasetHandler_SessionNotFound(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	mockService.On("Rows", mock.Anything, sessionID).
		Return(domain.Dataset{}, services.ErrSessionNotFound)

	req := httptest.NewRequest(http.MethodGet, "/"+sessionID+"/rows", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "SESSION_NOT_FOUND", problem["error_code"])
}

func TestDatasetHandler_View(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	criteria := domain.FilterCriteria{Gender: domain.GenderMale, MinEpisodes: 10}
	view := services.ViewResult{
		Records: []domain.EpisodeRecord{{Diagnosis: "Lumbalgia", Gender: domain.GenderMale}},
		Summary: domain.SummaryStats{RecordCount: 1},
	}
	mockService.On("View", mock.Anything, sessionID, criteria).Return(view, nil)

	payload, err := json.Marshal(criteria)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/"+sessionID+"/view", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(1), envelope["count"])
	mockService.AssertExpectations(t)
}

func TestDatasetHandler_ViewInvalidGender(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/"+sessionID+"/view",
		bytes.NewBufferString(`{"gender":"banana"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "View", mock.Anything, mock.Anything, mock.Anything)
}

func TestDatasetHandler_ViewInvertedRange(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/"+sessionID+"/view",
		bytes.NewBufferString(`{"min_episodes":100,"max_episodes":10}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "View", mock.Anything, mock.Anything, mock.Anything)
}

func TestDatasetHandler_ViewMalformedBody(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/"+sessionID+"/view",
		bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandler_GetQuality(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	report := domain.DataQualityReport{TotalRows: 3, DuplicateRows: 1}
	mockService.On("Quality", mock.Anything, sessionID).Return(report, nil)

	req := httptest.NewRequest(http.MethodGet, "/"+sessionID+"/quality", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total_rows"])
}

func TestDatasetHandler_Delete(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	mockService.On("Delete", mock.Anything, sessionID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/"+sessionID+"/", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockService.AssertExpectations(t)
}

func TestDatasetHandler_DeleteNotFound(t *testing.T) {
	mockService := new(MockDatasetService)
	sessionID := uuid.New().String()
	mockService.On("Delete", mock.Anything, sessionID).Return(services.ErrSessionNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/"+sessionID+"/", nil)
	rec := httptest.NewRecorder()

	newTestHandler(mockService).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
