package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedExam struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Exam.Set(ctx, ExamKey(1), cachedExam{ID: 1, Title: "Toán 10"}, time.Minute))
	assert.True(t, mr.Exists("exam:id:1"))

	var got cachedExam
	require.NoError(t, cm.Exam.Get(ctx, ExamKey(1), &got))
	assert.Equal(t, "Toán 10", got.Title)

	require.NoError(t, cm.Exam.Delete(ctx, ExamKey(1)))
	assert.ErrorIs(t, cm.Exam.Get(ctx, ExamKey(1), &got), ErrCacheNotFound)
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedExam{ID: 2, Title: "Văn"}, nil
	}

	var first, second cachedExam
	require.NoError(t, cm.Exam.CacheOrExecute(ctx, ExamKey(2), &first, time.Minute, fetch))
	require.NoError(t, cm.Exam.CacheOrExecute(ctx, ExamKey(2), &second, time.Minute, fetch))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCacheHelper_CacheOrExecutePropagatesFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	sentinel := errors.New("boom")

	var dest cachedExam
	err := cm.Exam.CacheOrExecute(context.Background(), ExamKey(3), &dest, time.Minute, func() (interface{}, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	for _, k := range []string{"admin:overview", "admin:users", "teacher:t1"} {
		require.NoError(t, cm.Stats.Set(ctx, k, 1, time.Minute))
	}

	require.NoError(t, cm.Stats.InvalidatePattern(ctx, "admin:*"))
	assert.False(t, mr.Exists("stats:admin:overview"))
	assert.False(t, mr.Exists("stats:admin:users"))
	assert.True(t, mr.Exists("stats:teacher:t1"))

	InvalidateExamCache(ctx, cm, 1, "t1")
	assert.False(t, mr.Exists("stats:teacher:t1"))
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.NoError(t, cm.Exam.Set(ctx, "k", 1, time.Minute))
	assert.ErrorIs(t, cm.Exam.Get(ctx, "k", new(int)), ErrCacheNotAvailable)
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	var dest cachedExam
	require.NoError(t, cm.Exam.CacheOrExecute(ctx, "k", &dest, time.Minute, func() (interface{}, error) {
		return cachedExam{ID: 9}, nil
	}))
	assert.Equal(t, uint(9), dest.ID)
}
