package ops

import (
	"context"
	"log/slog"
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/heartbeat"
)

// HeartbeatInput contains parameters for the Heartbeat operation.
type HeartbeatInput struct {
	Now    time.Time // default: time.Now()
	Logger *slog.Logger
	Peek   bool // leave the stored baseline untouched
}

// HeartbeatOutput contains the result of the Heartbeat operation.
type HeartbeatOutput struct {
	Report  *heartbeat.Report `json:"report"`
	Context string            `json:"context"` // "" when nothing changed
}

// Heartbeat reports shared-document changes and fresh inbox messages since
// the previous call, and advances the stored baseline unless Peek is set. A
// baseline that cannot be saved is logged; the report is still returned.
func Heartbeat(ctx context.Context, store heartbeat.StateStore, cfg *config.Config, input HeartbeatInput) *HeartbeatOutput {
	logger := loggerOf(input.Logger)

	tracker := &heartbeat.Tracker{
		Store:    store,
		Agent:    cfg.Agent,
		Root:     cfg.SharedPath,
		InboxDir: cfg.InboxDir(),
		Logger:   logger,
		Peek:     input.Peek,
	}

	report, err := tracker.Check(ctx, clock(input.Now))
	if err != nil {
		logger.Warn("watch state not saved", "agent", cfg.Agent, "error", err)
	}

	return &HeartbeatOutput{Report: report, Context: report.String()}
}
