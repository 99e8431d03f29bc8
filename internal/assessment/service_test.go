package assessment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainguard/grainguard/internal/detection"
	"github.com/grainguard/grainguard/internal/risk"
)

func ptr(v float64) *float64 { return &v }

func newTestService(t *testing.T) (*Service, *InMemoryRepository) {
	t.Helper()

	engine, err := risk.NewEngine(risk.EngineConfig{})
	require.NoError(t, err)

	repo := NewInMemoryRepository()
	svc := NewService(ServiceConfig{
		Repository: repo,
		Engine:     engine,
		Logger:     zerolog.Nop(),
	})
	return svc, repo
}

func validRatings() risk.QualitativeInput {
	return risk.QualitativeInput{
		SoilHealth:        risk.RatingPoor,
		WaterAvailability: risk.RatingAverage,
		PestStatus:        risk.RatingExcellent,
		Fertilization:     risk.RatingPoor,
	}
}

func TestService_CreateInsight(t *testing.T) {
	svc, _ := newTestService(t)

	in := validRatings()
	in.HumidityPct = ptr(85)

	a, err := svc.CreateInsight(context.Background(), "op_1", in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, "asm_"))
	assert.Equal(t, ModeInsight, a.Mode)
	assert.InDelta(t, 39, a.Score, 1e-9)
	assert.Equal(t, risk.LevelModerate, a.Level)
	assert.NotEmpty(t, a.Recommendations)

	got, err := svc.Get(context.Background(), "op_1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestService_CreateInsight_InvalidRating(t *testing.T) {
	svc, _ := newTestService(t)

	in := validRatings()
	in.PestStatus = "terrible"

	_, err := svc.CreateInsight(context.Background(), "op_1", in)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "pestStatus")
}

func TestService_CreateDetection(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.CreateDetection(context.Background(), "op_1", risk.DetectionInput{
		Counts:             detection.Counts{Healthy: 80, Contaminated: 20},
		TransportCondition: "open-truck",
		StorageCondition:   "dry-warehouse",
		GrainMoisturePct:   ptr(18),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeDetection, a.Mode)
	assert.Equal(t, 29.75, a.Score)
	assert.Equal(t, risk.LevelModerate, a.Level)
}

type fixedDetector struct {
	counts detection.Counts
	err    error
}

func (d *fixedDetector) Detect(batchID string) (detection.Counts, error) {
	if d.err != nil {
		return detection.Counts{}, d.err
	}
	return d.counts, nil
}

func (d *fixedDetector) Name() string { return "fixed" }

func TestService_CreateDetectionFromBatch(t *testing.T) {
	engine, err := risk.NewEngine(risk.EngineConfig{})
	require.NoError(t, err)

	svc := NewService(ServiceConfig{
		Repository: NewInMemoryRepository(),
		Engine:     engine,
		Detector:   &fixedDetector{counts: detection.Counts{Healthy: 80, Contaminated: 20}},
		Logger:     zerolog.Nop(),
	})

	// Caller-supplied counts are ignored; the detector's counts score the batch.
	a, err := svc.CreateDetectionFromBatch(context.Background(), "op_1", "batch_42", risk.DetectionInput{
		Counts:             detection.Counts{Healthy: 1, Contaminated: 99},
		TransportCondition: "open-truck",
		StorageCondition:   "dry-warehouse",
		GrainMoisturePct:   ptr(18),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeDetection, a.Mode)
	assert.Equal(t, 29.75, a.Score)
	assert.Equal(t, risk.LevelModerate, a.Level)
}

func TestService_CreateDetectionFromBatch_NoDetector(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateDetectionFromBatch(context.Background(), "op_1", "batch_42", risk.DetectionInput{})
	assert.ErrorIs(t, err, ErrNoDetector)
}

func TestService_CreateDetectionFromBatch_DetectorFailure(t *testing.T) {
	engine, err := risk.NewEngine(risk.EngineConfig{})
	require.NoError(t, err)

	detectErr := errors.New("camera offline")
	svc := NewService(ServiceConfig{
		Repository: NewInMemoryRepository(),
		Engine:     engine,
		Detector:   &fixedDetector{err: detectErr},
		Logger:     zerolog.Nop(),
	})

	_, err = svc.CreateDetectionFromBatch(context.Background(), "op_1", "batch_42", risk.DetectionInput{})
	assert.ErrorIs(t, err, detectErr)
}

func TestService_GetScopedToOperator(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.CreateDetection(context.Background(), "op_1", risk.DetectionInput{Counts: detection.Counts{Healthy: 10}})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "op_2", a.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestService_ListPagination(t *testing.T) {
	svc, repo := newTestService(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(context.Background(), &Assessment{
			ID:         "asm_" + strings.Repeat("a", 21) + string(rune('0'+i)),
			OperatorID: "op_1",
			Mode:       ModeDetection,
			Level:      risk.LevelLow,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	page, err := svc.List(context.Background(), "op_1", ListOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)

	// Newest first.
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	rest, err := svc.List(context.Background(), "op_1", ListOptions{Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 2)
	assert.Empty(t, rest.NextCursor)

	// No overlap between pages.
	seen := make(map[string]bool)
	for _, a := range append(page.Items, rest.Items...) {
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.CreateDetection(context.Background(), "op_1", risk.DetectionInput{Counts: detection.Counts{Healthy: 10}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "op_1", a.ID))
	_, err = svc.Get(context.Background(), "op_1", a.ID)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), "op_1", a.ID), ErrAssessmentNotFound)
}
