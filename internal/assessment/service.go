package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/detection"
	"github.com/grainguard/grainguard/internal/fusion"
	"github.com/grainguard/grainguard/internal/risk"
)

// ServiceConfig holds configuration for the assessment service.
type ServiceConfig struct {
	Repository Repository
	Engine     *risk.Engine

	// Orchestrator supplies the latest environmental snapshot. Optional;
	// without it, insight-mode scoring uses only the readings the caller
	// provided.
	Orchestrator *fusion.Orchestrator

	// Detector produces kernel counts for batch-based detection scoring.
	// Optional; without it, batch scoring returns ErrNoDetector.
	Detector detection.Detector

	Logger zerolog.Logger
}

// Service scores batches and persists the results per operator.
type Service struct {
	repo         Repository
	engine       *risk.Engine
	orchestrator *fusion.Orchestrator
	detector     detection.Detector
	logger       zerolog.Logger
}

// NewService creates a new assessment service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:         cfg.Repository,
		engine:       cfg.Engine,
		orchestrator: cfg.Orchestrator,
		detector:     cfg.Detector,
		logger:       cfg.Logger,
	}
}

// CreateInsight scores qualitative ratings and persists the result. Readings
// the caller omitted are filled in from the latest environmental snapshot
// when one is available.
func (s *Service) CreateInsight(ctx context.Context, operatorID string, in risk.QualitativeInput) (*Assessment, error) {
	if fieldErrors := validateRatings(in); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	in = s.enrichFromSnapshot(in)
	result := s.engine.AssessQualitative(in)

	a := s.newAssessment(operatorID, ModeInsight, result)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("assessment_id", a.ID).
		Float64("score", a.Score).
		Str("level", string(a.Level)).
		Msg("insight assessment created")

	return a, nil
}

// CreateDetection scores kernel inspection counts and persists the result.
func (s *Service) CreateDetection(ctx context.Context, operatorID string, in risk.DetectionInput) (*Assessment, error) {
	result := s.engine.AssessDetection(in)

	a := s.newAssessment(operatorID, ModeDetection, result)
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("assessment_id", a.ID).
		Float64("score", a.Score).
		Str("level", string(a.Level)).
		Msg("detection assessment created")

	return a, nil
}

// CreateDetectionFromBatch runs the configured detector against a batch and
// scores the resulting kernel counts. Handling conditions and readings come
// from the caller; the counts always come from the detector.
func (s *Service) CreateDetectionFromBatch(ctx context.Context, operatorID, batchID string, in risk.DetectionInput) (*Assessment, error) {
	if s.detector == nil {
		return nil, ErrNoDetector
	}

	counts, err := s.detector.Detect(batchID)
	if err != nil {
		return nil, fmt.Errorf("detect batch %s: %w", batchID, err)
	}
	in.Counts = counts

	s.logger.Debug().
		Str("batch_id", batchID).
		Str("detector", s.detector.Name()).
		Uint("healthy", counts.Healthy).
		Uint("contaminated", counts.Contaminated).
		Msg("batch inspected")

	return s.CreateDetection(ctx, operatorID, in)
}

// Get retrieves an assessment for an operator.
func (s *Service) Get(ctx context.Context, operatorID, id string) (*Assessment, error) {
	return s.repo.GetByOperatorAndID(ctx, operatorID, id)
}

// List retrieves assessments for an operator, newest first.
func (s *Service) List(ctx context.Context, operatorID string, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, operatorID, opts)
}

// Delete removes an assessment for an operator.
func (s *Service) Delete(ctx context.Context, operatorID, id string) error {
	return s.repo.Delete(ctx, operatorID, id)
}

func (s *Service) newAssessment(operatorID string, mode Mode, result risk.Result) *Assessment {
	a := &Assessment{
		ID:              "asm_" + uuid.New().String()[:22],
		OperatorID:      operatorID,
		Mode:            mode,
		Score:           result.Score,
		Level:           result.Level,
		Factors:         result.ContributingFactors,
		Recommendations: result.Recommendations,
		CreatedAt:       time.Now(),
	}

	if s.orchestrator != nil {
		if snap := s.orchestrator.Snapshot(); snap != nil && !snap.Location.IsZero() {
			lat, lon := snap.Location.Lat, snap.Location.Lon
			a.Lat, a.Lon = &lat, &lon
		}
	}

	return a
}

// enrichFromSnapshot fills in environmental readings the caller omitted
// using the latest snapshot. Failed signals stay absent; they are never
// substituted with zeros.
func (s *Service) enrichFromSnapshot(in risk.QualitativeInput) risk.QualitativeInput {
	if s.orchestrator == nil {
		return in
	}
	snap := s.orchestrator.Snapshot()
	if snap == nil {
		return in
	}

	if snap.Weather.OK() {
		if in.TemperatureC == nil {
			t := snap.Weather.Value.Temperature
			in.TemperatureC = &t
		}
		if in.HumidityPct == nil {
			h := snap.Weather.Value.Humidity
			in.HumidityPct = &h
		}
	}
	if in.VegetationIndex == nil && snap.Vegetation.OK() {
		v := snap.Vegetation.Value.Value
		in.VegetationIndex = &v
	}
	if in.SoilMoisturePct == nil && snap.Soil.OK() {
		m := snap.Soil.Value.Percent
		in.SoilMoisturePct = &m
	}

	return in
}

func validateRatings(in risk.QualitativeInput) map[string]string {
	fieldErrors := make(map[string]string)
	for field, rating := range map[string]risk.Rating{
		"soilHealth":        in.SoilHealth,
		"waterAvailability": in.WaterAvailability,
		"pestStatus":        in.PestStatus,
		"fertilization":     in.Fertilization,
	} {
		switch rating {
		case risk.RatingExcellent, risk.RatingAverage, risk.RatingPoor:
		default:
			fieldErrors[field] = "must be one of: excellent, average, poor"
		}
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}
