package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bajadash/internal/dataprocessing"
	apierrors "bajadash/internal/errors"
	"bajadash/internal/services"
	"bajadash/pkg/contracts/domain"
)

// DatasetHandler handles dataset upload and view requests.
type DatasetHandler struct {
	service        DatasetServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewDatasetHandler creates a dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/rows", h.GetRows)
		r.Post("/view", h.View)
		r.Get("/quality", h.GetQuality)
		r.Delete("/", h.Delete)
	})

	return r
}

// SessionCtx middleware validates the session ID parameter.
func (h *DatasetHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if _, err := uuid.Parse(sessionID); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("session_id", "Session ID must be a valid UUID"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets: a multipart workbook upload. The
// response carries the session ID, the cleaning report and the filter
// options; schema violations come back as 422 with the missing columns.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Multipart field 'file' with the Excel workbook is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	result, err := h.service.Upload(r.Context(), file)
	if err != nil {
		var schemaErr *dataprocessing.SchemaError
		switch {
		case errors.As(err, &schemaErr):
			h.errorHandler.HandleError(w, r, apierrors.SchemaErrorWithColumns(schemaErr.Missing))
		case errors.Is(err, services.ErrEmptyWorkbook):
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnprocessableEntity,
				"EMPTY_DATASET",
				"Workbook contains no usable data rows",
				result.Report,
			))
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// GetRows handles GET /api/datasets/{sessionID}/rows.
func (h *DatasetHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	ds, err := h.service.Rows(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ds.Records,
		"count":  ds.Len(),
	})
}

// View handles POST /api/datasets/{sessionID}/view: one filter
// interaction, recomputing rows, summary and chart.
func (h *DatasetHandler) View(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var criteria domain.FilterCriteria
	if err := render.DecodeJSON(r.Body, &criteria); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(criteria); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"VALIDATION_FAILED",
			"Invalid filter criteria",
			err.Error(),
		))
		return
	}
	if criteria.MaxEpisodes > 0 && criteria.MaxEpisodes < criteria.MinEpisodes {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("max_episodes", "Episode range is inverted"))
		return
	}

	result, err := h.service.View(r.Context(), sessionID, criteria)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Records),
	})
}

// GetQuality handles GET /api/datasets/{sessionID}/quality.
func (h *DatasetHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := h.service.Quality(r.Context(), sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// Delete handles DELETE /api/datasets/{sessionID}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.Delete(r.Context(), sessionID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
