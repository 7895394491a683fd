package heartbeat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFollow_NoWatchableDirs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	err := Follow(context.Background(), []string{missing}, 0, nil, func(context.Context) {})
	require.Error(t, err)
}

func TestFollow_InvokesOnChange(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, []string{root}, 20*time.Millisecond, nil, func(context.Context) {
			select {
			case calls <- struct{}{}:
			default:
			}
		})
	}()

	// Keep writing until the watcher has picked up at least one burst.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for got := false; !got; {
		select {
		case <-calls:
			got = true
		case <-tick.C:
			require.NoError(t, os.WriteFile(filepath.Join(root, "CHANGELOG.md"), []byte(time.Now().String()), 0644))
		case <-deadline:
			t.Fatal("Follow never invoked the callback")
		}
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not stop after cancel")
	}
}
