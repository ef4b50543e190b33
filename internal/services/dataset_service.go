package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bajadash/internal/chart"
	"bajadash/internal/config"
	"bajadash/internal/dataprocessing"
	"bajadash/internal/infrastructure"
	"bajadash/pkg/contracts/domain"
)

// UploadResult is returned after a workbook is parsed and cleaned: the
// session handle, the cleaning report and the filter options the cleaned
// dataset supports.
type UploadResult struct {
	SessionID string               `json:"session_id"`
	CreatedAt time.Time            `json:"created_at"`
	Report    domain.CleanReport   `json:"clean_report"`
	Options   domain.FilterOptions `json:"filter_options"`
}

// ViewResult is one full recompute for a set of filter criteria: the
// filtered rows, their summary statistics and the renderable charts.
type ViewResult struct {
	Records       []domain.EpisodeRecord `json:"records"`
	Summary       domain.SummaryStats    `json:"summary"`
	Chart         domain.ChartModel      `json:"chart"`
	SummaryCharts domain.SummaryCharts   `json:"summary_charts"`
}

// session holds one uploaded dataset. The dataset is immutable after
// upload; every view derives fresh artifacts from it.
type session struct {
	id        string
	createdAt time.Time
	dataset   domain.Dataset
	report    domain.CleanReport
}

// DatasetService owns the per-session datasets and runs the processing
// pipeline. The core stays purely functional; all mutable state lives in
// the session map here, guarded for concurrent callers.
type DatasetService struct {
	processor *dataprocessing.Processor
	builder   *chart.Builder
	cfg       config.DashboardConfig
	logger    *slog.Logger
	metrics   *infrastructure.Metrics

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewDatasetService creates the dataset service and its pipeline
// components from the dashboard configuration.
func NewDatasetService(cfg config.DashboardConfig, logger *slog.Logger, metrics *infrastructure.Metrics) (*DatasetService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	builder, err := chart.NewBuilder(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &DatasetService{
		processor: dataprocessing.NewProcessor(cfg, logger),
		builder:   builder,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "dataset_service")),
		metrics:   metrics,
		sessions:  make(map[string]*session),
	}, nil
}

// Upload parses, validates and cleans one workbook and stores the result
// under a fresh session ID. Schema violations and parse failures abort the
// load; cleaning issues are reported in the result, never as errors.
func (s *DatasetService) Upload(ctx context.Context, r io.Reader) (UploadResult, error) {
	start := time.Now()

	raw, err := dataprocessing.ParseWorkbook(r, s.cfg, s.logger)
	if err != nil {
		s.metrics.ObserveUpload("parse_error", start)
		return UploadResult{}, err
	}

	ds, report, err := s.processor.Process(raw)
	if err != nil {
		s.metrics.ObserveUpload("schema_error", start)
		return UploadResult{}, err
	}
	if ds.Empty() {
		s.metrics.ObserveUpload("empty", start)
		return UploadResult{}, ErrEmptyWorkbook
	}

	sess := &session{
		id:        uuid.New().String(),
		createdAt: time.Now().UTC(),
		dataset:   ds,
		report:    report,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.metrics.ObserveUpload("ok", start)
	s.metrics.ActiveSessions.Inc()
	s.metrics.UploadRows.WithLabelValues("kept").Add(float64(report.RowsOut))
	s.metrics.UploadRows.WithLabelValues("dropped").Add(float64(report.RowsIn - report.RowsOut))

	s.logger.InfoContext(ctx, "dataset session created",
		slog.String("session_id", sess.id),
		slog.Int("records", ds.Len()),
		slog.Duration("took", time.Since(start)))

	return UploadResult{
		SessionID: sess.id,
		CreatedAt: sess.createdAt,
		Report:    report,
		Options:   filterOptions(ds),
	}, nil
}

// Rows returns the cleaned, ordered dataset of a session.
func (s *DatasetService) Rows(ctx context.Context, sessionID string) (domain.Dataset, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return domain.Dataset{}, err
	}
	return sess.dataset, nil
}

// View recomputes the filtered dataset, summary statistics and chart
// primitives for the given criteria. Empty results are a valid zero
// state, not an error.
func (s *DatasetService) View(ctx context.Context, sessionID string, criteria domain.FilterCriteria) (ViewResult, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return ViewResult{}, err
	}

	filtered := dataprocessing.ApplyFilters(sess.dataset, criteria)

	s.logger.DebugContext(ctx, "view recomputed",
		slog.String("session_id", sessionID),
		slog.Int("rows", filtered.Len()))

	return ViewResult{
		Records:       filtered.Records,
		Summary:       dataprocessing.Summarize(filtered),
		Chart:         s.builder.Build(filtered),
		SummaryCharts: s.builder.SummaryCharts(filtered),
	}, nil
}

// Quality returns the data-quality report of a session's cleaned dataset.
func (s *DatasetService) Quality(ctx context.Context, sessionID string) (domain.DataQualityReport, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return domain.DataQualityReport{}, err
	}
	return dataprocessing.QualityReport(sess.dataset), nil
}

// Delete discards a session and its dataset.
func (s *DatasetService) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.metrics.ActiveSessions.Dec()
	return nil
}

func (s *DatasetService) get(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// filterOptions derives the control values the sidebar offers: distinct
// diagnoses, genders and age bands in dataset order, plus the episode
// count extent.
func filterOptions(ds domain.Dataset) domain.FilterOptions {
	opts := domain.FilterOptions{}

	diagnoses := make(map[string]struct{})
	genders := make(map[string]struct{})
	ageBands := make(map[string]struct{})

	for i, rec := range ds.Records {
		diagnoses[rec.Diagnosis] = struct{}{}
		genders[rec.Gender] = struct{}{}
		ageBands[rec.AgeBand] = struct{}{}
		if i == 0 || rec.EpisodeCount < opts.MinEpisodes {
			opts.MinEpisodes = rec.EpisodeCount
		}
		if rec.EpisodeCount > opts.MaxEpisodes {
			opts.MaxEpisodes = rec.EpisodeCount
		}
	}

	opts.Diagnoses = sortedKeys(diagnoses)
	opts.Genders = sortedKeys(genders)
	opts.AgeBands = sortedKeys(ageBands)
	return opts
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
