package featureflags

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return NewService(ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   time.Minute,
	})
}

func TestService_GetFlag_FromRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	require.NoError(t, repo.SetFlag(context.Background(), &Flag{
		Key:   FlagDisableSoilSignal,
		Value: true,
	}))

	svc := newTestService(t, repo)

	flag := svc.GetFlag(context.Background(), FlagDisableSoilSignal)
	require.NotNil(t, flag)
	assert.True(t, flag.BoolValue(false))
}

func TestService_GetFlag_FallsBackToDefault(t *testing.T) {
	svc := newTestService(t, NewInMemoryRepository())

	flag := svc.GetFlag(context.Background(), FlagDisableVegetationSignal)
	require.NotNil(t, flag)
	assert.False(t, flag.BoolValue(true))
}

func TestService_GetFlag_Unknown(t *testing.T) {
	svc := newTestService(t, NewInMemoryRepository())

	flag := svc.GetFlag(context.Background(), "no_such_flag")
	assert.Nil(t, flag)
	assert.False(t, flag.BoolValue(false))
}

func TestService_SetFlag_UpdatesCache(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := newTestService(t, repo)

	require.NoError(t, svc.SetFlag(context.Background(), &Flag{
		Key:   FlagDisableSiteSweep,
		Value: true,
	}))

	// Remove from the repository; the cached value should still serve.
	require.NoError(t, repo.DeleteFlag(context.Background(), FlagDisableSiteSweep))
	assert.True(t, svc.IsSiteSweepDisabled(context.Background()))

	svc.InvalidateCache()
	assert.False(t, svc.IsSiteSweepDisabled(context.Background()))
}

func TestService_SignalGates(t *testing.T) {
	repo := NewInMemoryRepositoryWithFlags(map[string]*Flag{
		FlagDisableVegetationSignal: {Key: FlagDisableVegetationSignal, Value: true},
	})
	svc := newTestService(t, repo)

	assert.True(t, svc.IsVegetationSignalDisabled(context.Background()))
	assert.False(t, svc.IsSoilSignalDisabled(context.Background()))
}

func TestService_NilServiceIsOpen(t *testing.T) {
	var svc *Service

	assert.False(t, svc.IsVegetationSignalDisabled(context.Background()))
	assert.False(t, svc.IsSoilSignalDisabled(context.Background()))
	assert.False(t, svc.IsSiteSweepDisabled(context.Background()))
}
