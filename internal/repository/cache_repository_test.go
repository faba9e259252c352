package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/class-control-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "geo:countries", &dest)
	require.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, repo.Set(ctx, "geo:countries", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "geo:*"))
	require.NoError(t, repo.Close())
}
