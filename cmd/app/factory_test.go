package app

import (
	"context"
	"testing"
	"time"

	"github.com/Taichi-iskw/yt-shorts/internal/config"
	"github.com/Taichi-iskw/yt-shorts/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServicesWithConfig_MemoryStore(t *testing.T) {
	cfg := &config.Config{
		Store:        config.StoreMemory,
		StorageDir:   t.TempDir(),
		WhisperModel: "base",
		Timeouts: config.TimeoutConfig{
			Analysis: time.Minute,
			Render:   time.Minute,
			Finalize: time.Minute,
		},
	}

	services, cleanup, err := NewServiceFactory().CreateServicesWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()

	templates, err := services.Templates.List(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 6)

	recommended, err := services.Templates.Recommend(ctx, model.ContentTypePromotional, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, recommended)

	contents, err := services.Contents.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, contents)

	families, err := services.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["ytshorts_jobs_active"])
	assert.True(t, names["go_goroutines"])
}

func TestCreateServicesWithConfig_BadDatabaseURL(t *testing.T) {
	cfg := &config.Config{
		Store:       config.StorePostgres,
		DatabaseURL: "mysql://localhost/ytshorts",
		StorageDir:  t.TempDir(),
	}

	_, _, err := NewServiceFactory().CreateServicesWithConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}
