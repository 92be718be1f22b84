package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/threadfeed/internal/types"
)

func newTestArtifacts(t *testing.T) (*Artifacts, *time.Time) {
	t.Helper()
	now := time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC)
	a := NewArtifacts(t.TempDir())
	a.now = func() time.Time { return now }
	return a, &now
}

func TestArtifactsSaveAndLoadJSON(t *testing.T) {
	a, _ := newTestArtifacts(t)
	r := types.Report{RunID: "abc", ThreadID: "99", State: types.StateDone, Total: 3, Sent: 3, Last: "bye"}

	path, err := a.SaveJSON(KindReport, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.Dir(KindReport), "2026-05-02T10-30-00.000.json"), path)

	got, err := LoadJSON[types.Report](path)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestArtifactsSaveBytes(t *testing.T) {
	a, _ := newTestArtifacts(t)
	png := []byte{0x89, 'P', 'N', 'G'}

	path, err := a.SaveBytes(KindScreenshot, png, ".png")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, raw)
}

func TestArtifactsLatestFile(t *testing.T) {
	a, now := newTestArtifacts(t)

	_, err := a.LatestFile(KindReport)
	assert.ErrorContains(t, err, "no reports artifacts")

	first, err := a.SaveJSON(KindReport, map[string]int{"n": 1})
	require.NoError(t, err)
	*now = now.Add(1500 * time.Millisecond)
	second, err := a.SaveJSON(KindReport, map[string]int{"n": 2})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	latest, err := a.LatestFile(KindReport)
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	got, err := LoadJSON[map[string]int](latest)
	require.NoError(t, err)
	assert.Equal(t, 2, got["n"])
}

func TestLoadJSONErrors(t *testing.T) {
	_, err := LoadJSON[types.Report](filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read artifact")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadJSON[types.Report](bad)
	assert.ErrorContains(t, err, "failed to unmarshal artifact")
}
