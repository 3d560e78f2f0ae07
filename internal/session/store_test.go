package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adolfdaniel/browser-genai-eval/internal/dataset"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func testArticles(n int) []dataset.Article {
	articles := make([]dataset.Article, n)
	for i := range articles {
		articles[i] = dataset.Article{
			ID:               i + 1,
			Text:             "article body text",
			ReferenceSummary: "reference summary",
			Dataset:          dataset.SampleDataset,
		}
	}
	return articles
}

func testRunParams(n int) RunParams {
	return RunParams{
		DatasetID:   dataset.SampleDataset,
		DatasetName: "Sample Articles",
		MaxArticles: n,
		Mode:        ModeSingle,
		Articles:    testArticles(n),
		Configs:     []Configuration{DefaultConfiguration()},
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore()

	sess, err := store.Create("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "conn-1", sess.ID)
	assert.Equal(t, StatusIdle, sess.Status())

	got, err := store.Get("conn-1")
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestStoreCreateDuplicate(t *testing.T) {
	store := NewStore()

	_, err := store.Create("conn-1")
	require.NoError(t, err)

	_, err = store.Create("conn-1")
	assert.ErrorIs(t, err, ErrDuplicateSession)
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreDestroyIdempotent(t *testing.T) {
	store := NewStore()

	sess, err := store.Create("conn-1")
	require.NoError(t, err)

	canceled := false
	sess.SetCancel(func() { canceled = true })

	store.Destroy("conn-1")
	store.Destroy("conn-1")

	assert.True(t, canceled)
	_, err = store.Get("conn-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Re-creation after destroy is allowed.
	_, err = store.Create("conn-1")
	assert.NoError(t, err)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			store.Create(id)
			store.Get(id)
			store.Destroy(id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}

func TestBeginRunRejectsWhileRunning(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	_, err := sess.BeginRun(testRunParams(2))
	require.NoError(t, err)

	_, err = sess.BeginRun(testRunParams(2))
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestBeginRunAfterCompletedResetsState(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	run1, err := sess.BeginRun(testRunParams(1))
	require.NoError(t, err)

	require.NoError(t, sess.AddPending(&PendingRequest{
		RequestID:    "req-1",
		ArticleIndex: 0,
		Config:       DefaultConfiguration(),
		DispatchedAt: time.Now(),
	}))
	sess.AppendResult(ScoredResult{ArticleID: 1})
	require.True(t, sess.CompleteRun(run1))

	run2, err := sess.BeginRun(testRunParams(1))
	require.NoError(t, err)
	assert.Equal(t, run1+1, run2)

	completed, pending, total := sess.Counts()
	assert.Zero(t, completed)
	assert.Zero(t, pending)
	assert.Equal(t, 1, total)

	// The old run's pending entry is gone along with its correlation id.
	_, ok := sess.TakePending("req-1")
	assert.False(t, ok)
}

func TestAddPendingCollision(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(1))

	req := &PendingRequest{RequestID: "dup", ArticleIndex: 0, DispatchedAt: time.Now()}
	require.NoError(t, sess.AddPending(req))

	err := sess.AddPending(&PendingRequest{RequestID: "dup", ArticleIndex: 0, DispatchedAt: time.Now()})
	assert.ErrorIs(t, err, ErrCorrelationCollision)

	// The original entry survives the rejected insert.
	got, ok := sess.TakePending("dup")
	require.True(t, ok)
	assert.Same(t, req, got)
}

func TestAddPendingBoundsCheck(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(2))

	err := sess.AddPending(&PendingRequest{RequestID: "r", ArticleIndex: 5, DispatchedAt: time.Now()})
	assert.ErrorIs(t, err, ErrArticleOutOfRange)

	err = sess.AddPending(&PendingRequest{RequestID: "r", ArticleIndex: -1, DispatchedAt: time.Now()})
	assert.ErrorIs(t, err, ErrArticleOutOfRange)
}

func TestTakePendingOnlyOnce(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(1))

	require.NoError(t, sess.AddPending(&PendingRequest{RequestID: "r1", ArticleIndex: 0, DispatchedAt: time.Now()}))

	_, ok := sess.TakePending("r1")
	assert.True(t, ok)

	_, ok = sess.TakePending("r1")
	assert.False(t, ok)

	_, ok = sess.TakePending("never-existed")
	assert.False(t, ok)
}

func TestCompleteRunExactlyOnce(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	run, _ := sess.BeginRun(testRunParams(1))

	assert.True(t, sess.CompleteRun(run))
	assert.False(t, sess.CompleteRun(run))
	assert.Equal(t, StatusCompleted, sess.Status())
}

func TestCompleteRunIgnoresStaleRun(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	run1, _ := sess.BeginRun(testRunParams(1))
	require.True(t, sess.CompleteRun(run1))

	run2, _ := sess.BeginRun(testRunParams(1))

	// A leftover finisher from run1 must not complete run2.
	assert.False(t, sess.CompleteRun(run1))
	assert.Equal(t, StatusRunning, sess.Status())
	assert.True(t, sess.CompleteRun(run2))
}

func TestRequestStop(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	assert.False(t, sess.RequestStop(), "stop on idle session is a no-op")

	sess.BeginRun(testRunParams(1))
	assert.True(t, sess.RequestStop())
	assert.Equal(t, StatusStopping, sess.Status())
	assert.False(t, sess.RequestStop())
}

func TestExpiredPending(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(2))

	now := time.Now()
	require.NoError(t, sess.AddPending(&PendingRequest{
		RequestID: "old", ArticleIndex: 0, DispatchedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, sess.AddPending(&PendingRequest{
		RequestID: "fresh", ArticleIndex: 1, DispatchedAt: now,
	}))

	expired := sess.ExpiredPending(now, 30*time.Second)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0])
}

func TestCountsInvariant(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(3))

	check := func() {
		completed, pending, total := sess.Counts()
		assert.LessOrEqual(t, completed+pending, total)
	}

	for i := 0; i < 3; i++ {
		id := string(rune('a' + i))
		require.NoError(t, sess.AddPending(&PendingRequest{RequestID: id, ArticleIndex: i, DispatchedAt: time.Now()}))
		check()

		_, ok := sess.TakePending(id)
		require.True(t, ok)
		sess.AppendResult(ScoredResult{ArticleID: i + 1})
		check()
	}

	completed, pending, total := sess.Counts()
	assert.Equal(t, 3, completed)
	assert.Zero(t, pending)
	assert.Equal(t, 3, total)
}

func TestSignalWakesWaiter(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	done := make(chan struct{})
	go func() {
		select {
		case <-sess.Wake():
		case <-time.After(2 * time.Second):
		}
		close(done)
	}()

	sess.Signal()
	// Coalescing: extra signals must not block.
	sess.Signal()
	sess.Signal()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("waiter was never woken")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")
	sess.BeginRun(testRunParams(2))
	sess.AppendResult(ScoredResult{ArticleID: 1, GeneratedSummary: "one"})

	snap := sess.Snapshot()
	require.Len(t, snap.Results, 1)

	sess.AppendResult(ScoredResult{ArticleID: 2, GeneratedSummary: "two"})
	assert.Len(t, snap.Results, 1, "snapshot must not see later appends")
	assert.Equal(t, 2, snap.TotalArticles)
	assert.True(t, snap.IsRunning)
}

func TestCancelIdempotent(t *testing.T) {
	store := NewStore()
	sess, _ := store.Create("conn-1")

	ctx, cancel := context.WithCancel(context.Background())
	sess.SetCancel(cancel)

	sess.Cancel()
	sess.Cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
