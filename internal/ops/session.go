package ops

import (
	"log/slog"
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/digest"
)

// SessionStartInput contains parameters for the SessionStart operation.
type SessionStartInput struct {
	Source string    // startup|resume|compact|clear, default: startup
	Cwd    string    // default: process working directory
	Now    time.Time // default: time.Now()
	Logger *slog.Logger
}

// SessionStartOutput contains the result of the SessionStart operation.
type SessionStartOutput struct {
	Context string `json:"context"`
}

// SessionStart assembles the bounded session briefing.
func SessionStart(cfg *config.Config, input SessionStartInput) *SessionStartOutput {
	a := &digest.Assembler{Config: cfg, Logger: loggerOf(input.Logger)}
	req := digest.Request{Source: input.Source, Cwd: workingDir(input.Cwd)}
	return &SessionStartOutput{Context: a.Assemble(req, clock(input.Now))}
}
