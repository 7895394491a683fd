package ops

import (
	"strings"
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/dailylog"
	"github.com/hpungsan/carryover/internal/errors"
)

// AppendLogInput contains parameters for the AppendLog operation.
type AppendLogInput struct {
	Title string // required
	Body  string
	Now   time.Time // default: time.Now()
}

// AppendLogOutput contains the result of the AppendLog operation.
type AppendLogOutput struct {
	Path string `json:"path"`
}

// AppendLog merges an agent-authored entry into today's log.
func AppendLog(cfg *config.Config, input AppendLogInput) (*AppendLogOutput, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if strings.ContainsAny(title, "\r\n") {
		return nil, errors.NewInvalidRequest("title must be a single line")
	}

	now := clock(input.Now)
	merger := &dailylog.Merger{LogsDir: cfg.LogsDir(), Agent: cfg.Agent}
	path, err := merger.Merge(now, dailylog.ManualEntry(title, input.Body, now))
	if err != nil {
		return nil, err
	}
	return &AppendLogOutput{Path: path}, nil
}
