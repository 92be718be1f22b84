package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/threadfeed/internal/types"
)

func TestBuildSucceeded(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	start := time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)
	r := &types.Report{
		RunID: "run-1", ThreadID: "100", State: types.StateDone,
		Total: 2, Sent: 2, Last: "see you <soon>",
		StartedAt: start, FinishedAt: start.Add(7 * time.Second),
	}
	sends := []types.SentMessage{
		{RunID: "run-1", Seq: 0, Content: "hi", SentAt: start.Add(time.Second)},
		{RunID: "run-1", Seq: 1, Content: "see you <soon>", SentAt: start.Add(4 * time.Second)},
	}

	out, err := b.Build(r, sends)
	require.NoError(t, err)

	assert.Equal(t, "threadfeed succeeded - thread 100, 2/2 sent", out.Subject)
	assert.Contains(t, out.HTMLBody, "see you &lt;soon&gt;")
	assert.NotContains(t, out.HTMLBody, "<soon>")
	assert.Contains(t, out.PlainBody, "Sent: 2/2 in 7s")
	assert.Contains(t, out.PlainBody, "2. [08:00:04] see you <soon>")
	assert.NotContains(t, out.PlainBody, "Error:")
}

func TestBuildFailed(t *testing.T) {
	b, err := New()
	require.NoError(t, err)

	r := &types.Report{
		RunID: "run-2", ThreadID: "100", State: types.StateFailed, AbortReason: types.AbortNoInput,
		Total: 3, Error: "message input not found", StartedAt: time.Now(),
	}

	out, err := b.Build(r, nil)
	require.NoError(t, err)
	assert.Equal(t, "threadfeed failed - thread 100, 0/3 sent", out.Subject)
	assert.Contains(t, out.HTMLBody, "message input not found")
	assert.Contains(t, out.PlainBody, "Reason: no-input")
	assert.Contains(t, out.PlainBody, "Error: message input not found")
}

func TestBuildNilReport(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	_, err = b.Build(nil, nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := strings.Repeat("é", 20)
	got := truncate(long, 10)
	assert.Equal(t, strings.Repeat("é", 7)+"...", got)
}
