package heartbeat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory StateStore.
type memStore struct {
	states  map[string]map[string]float64
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{states: map[string]map[string]float64{}}
}

func (m *memStore) Load(_ context.Context, agent string) (map[string]float64, error) {
	out := map[string]float64{}
	for k, v := range m.states[agent] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, agent string, state map[string]float64) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[agent] = state
	return nil
}

var base = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newTracker(root string, store StateStore) *Tracker {
	return &Tracker{
		Store:    store,
		Agent:    "Nova",
		Root:     root,
		InboxDir: filepath.Join(root, "messages"),
	}
}

func TestCheck_FirstObservationIsSilent(t *testing.T) {
	root := t.TempDir()
	for _, doc := range WatchDocs {
		touch(t, filepath.Join(root, doc.File), base)
	}
	store := newMemStore()

	report, err := newTracker(root, store).Check(context.Background(), base.Add(10*time.Second))
	require.NoError(t, err)
	require.True(t, report.Empty())
	require.Equal(t, "", report.String())

	// Baseline established for every readable document
	require.Len(t, store.states["Nova"], len(WatchDocs))
}

func TestCheck_ReportsChangeWithinWindow(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "CHANGELOG.md")
	touch(t, path, base)
	store := newMemStore()
	tracker := newTracker(root, store)

	_, err := tracker.Check(context.Background(), base.Add(time.Second))
	require.NoError(t, err)

	touch(t, path, base.Add(10*time.Second))
	report, err := tracker.Check(context.Background(), base.Add(30*time.Second))
	require.NoError(t, err)
	require.Equal(t, []string{"CHANGELOG (just now)"}, report.Changes)
	require.Equal(t, "[HEARTBEAT] Updates: CHANGELOG (just now)", report.String())
}

func TestCheck_PeekLeavesBaseline(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "CHANGELOG.md")
	touch(t, path, base)
	store := newMemStore()
	tracker := newTracker(root, store)

	_, err := tracker.Check(context.Background(), base.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)

	touch(t, path, base.Add(10*time.Second))
	peeker := newTracker(root, store)
	peeker.Peek = true
	report, err := peeker.Check(context.Background(), base.Add(30*time.Second))
	require.NoError(t, err)
	require.Equal(t, []string{"CHANGELOG (just now)"}, report.Changes)
	require.Equal(t, 1, store.saves)

	// The regular check still sees the change after a peek.
	report, err = tracker.Check(context.Background(), base.Add(40*time.Second))
	require.NoError(t, err)
	require.Equal(t, []string{"CHANGELOG (just now)"}, report.Changes)
	require.Equal(t, 2, store.saves)
}

func TestCheck_MinutesAgo(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "DECISIONS.md")
	touch(t, path, base)
	store := newMemStore()
	tracker := newTracker(root, store)

	_, err := tracker.Check(context.Background(), base)
	require.NoError(t, err)

	touch(t, path, base.Add(time.Minute))
	report, err := tracker.Check(context.Background(), base.Add(13*time.Minute+59*time.Second))
	require.NoError(t, err)
	require.Equal(t, []string{"DECISIONS (12m ago)"}, report.Changes)
}

func TestCheck_ExpiredWindowSuppressedButStateUpdates(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "CHANGELOG.md")
	touch(t, path, base)
	store := newMemStore()
	tracker := newTracker(root, store)

	_, err := tracker.Check(context.Background(), base.Add(time.Second))
	require.NoError(t, err)

	modified := base.Add(10 * time.Second)
	touch(t, path, modified)
	report, err := tracker.Check(context.Background(), base.Add(4000*time.Second))
	require.NoError(t, err)
	require.True(t, report.Empty())
	require.InDelta(t, float64(modified.Unix()), store.states["Nova"]["CHANGELOG.md"], 0.001)
}

func TestCheck_SecondRunWithoutModificationIsSilent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "SQUAD.md")
	touch(t, path, base)
	store := newMemStore()
	tracker := newTracker(root, store)

	_, err := tracker.Check(context.Background(), base)
	require.NoError(t, err)
	touch(t, path, base.Add(5*time.Second))

	first, err := tracker.Check(context.Background(), base.Add(20*time.Second))
	require.NoError(t, err)
	require.False(t, first.Empty())

	second, err := tracker.Check(context.Background(), base.Add(21*time.Second))
	require.NoError(t, err)
	require.True(t, second.Empty())
}

func TestCheck_UnreadableDocumentOmittedFromState(t *testing.T) {
	root := t.TempDir()
	store := newMemStore()
	store.states["Nova"] = map[string]float64{"RESOURCES.md": float64(base.Unix())}

	_, err := newTracker(root, store).Check(context.Background(), base)
	require.NoError(t, err)
	_, present := store.states["Nova"]["RESOURCES.md"]
	require.False(t, present)
	require.Equal(t, 1, store.saves)
}

func TestCheck_InboxAlerts(t *testing.T) {
	root := t.TempDir()
	inbox := filepath.Join(root, "messages")
	now := base.Add(2 * time.Hour)

	touch(t, filepath.Join(inbox, "nova.md"), now.Add(-5*time.Minute))
	touch(t, filepath.Join(inbox, "orion.md"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(inbox, "notes.txt"), now.Add(-time.Minute))
	require.NoError(t, os.MkdirAll(filepath.Join(inbox, "archive.md"), 0755))

	store := newMemStore()
	report, err := newTracker(root, store).Check(context.Background(), now)
	require.NoError(t, err)
	require.Empty(t, report.Changes)
	require.Equal(t, []string{"Message in messages/nova.md (5m ago)"}, report.Alerts)
	require.InDelta(t, float64(now.Add(-5*time.Minute).Unix()), store.states["Nova"][InboxKey], 0.001)
}

func TestCheck_MissingInboxIsNotAnError(t *testing.T) {
	root := t.TempDir()
	report, err := newTracker(root, newMemStore()).Check(context.Background(), base)
	require.NoError(t, err)
	require.True(t, report.Empty())
}

func TestCheck_SaveFailureStillReports(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "messages", "nova.md"), base.Add(-time.Minute))

	store := newMemStore()
	store.saveErr = fmt.Errorf("disk full")

	report, err := newTracker(root, store).Check(context.Background(), base)
	require.Error(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Alerts, 1)
}

func TestReport_StringJoinsChangesThenAlerts(t *testing.T) {
	r := &Report{
		Changes: []string{"CHANGELOG (3m ago)", "SQUAD (just now)"},
		Alerts:  []string{"Message in messages/nova.md (1m ago)"},
	}
	want := "[HEARTBEAT] Updates: CHANGELOG (3m ago); SQUAD (just now); Message in messages/nova.md (1m ago)"
	require.Equal(t, want, r.String())
}
