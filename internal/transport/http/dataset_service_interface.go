package http

import (
	"context"
	"io"

	"bajadash/internal/services"
	"bajadash/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handlers
// depend on. Tests substitute a mock implementation.
type DatasetServiceInterface interface {
	Upload(ctx context.Context, r io.Reader) (services.UploadResult, error)
	Rows(ctx context.Context, sessionID string) (domain.Dataset, error)
	View(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (services.ViewResult, error)
	Quality(ctx context.Context, sessionID string) (domain.DataQualityReport, error)
	Delete(ctx context.Context, sessionID string) error
}
