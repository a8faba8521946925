package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/utils"
)

func TestSessionRepoCopiesOnGetAndPut(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepo()

	s := models.NewSession("s1", time.Now(), false, []int{1, 2})
	require.NoError(t, r.Put(ctx, s))

	// mutating the caller's value after Put is invisible
	s.Question(1).VideoRef = "s1/q1_video.webm"

	got, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Question(1).VideoRef)

	got.Status = models.StatusCompleted
	again, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, again.Status)
}

func TestSessionRepoNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewSessionRepo()

	_, err := r.Get(ctx, "missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	require.NoError(t, r.Put(ctx, models.NewSession("s1", time.Now(), false, nil)))
	require.NoError(t, r.Delete(ctx, "s1"))
	_, err = r.Get(ctx, "s1")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.Error(t, r.Put(ctx, &models.Session{}))
}
