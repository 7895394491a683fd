package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/db"
	"github.com/hpungsan/carryover/internal/errors"
	"github.com/hpungsan/carryover/internal/heartbeat"
	"github.com/hpungsan/carryover/internal/hook"
	"github.com/hpungsan/carryover/internal/logging"
	"github.com/hpungsan/carryover/internal/ops"
)

// env is what every command needs once the global flags are parsed.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	e := &env{}

	app := &cli.App{
		Name:    "carryover",
		Usage:   "Session memory hooks for coding agents",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				EnvVars: []string{configDirEnv},
				Usage:   "Directory holding agent_config.json (default: the executable's directory)",
			},
		},
		Before: func(c *cli.Context) error {
			dir := resolveConfigDir(c.String("config-dir"))
			e.cfg = config.LoadOrDefault(dir, logging.New(c.App.ErrWriter, config.DefaultLogLevel))
			e.logger = logging.New(c.App.ErrWriter, e.cfg.LogLevel)
			return nil
		},
		Commands: []*cli.Command{
			heartbeatCmd(e),
			sessionStartCmd(e),
			preCompactCmd(e),
			logCmd(e),
			handoversCmd(e),
			latestHandoverCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// heartbeatCmd creates the heartbeat hook command.
func heartbeatCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:         "heartbeat",
		Usage:        "Report shared-document changes and new inbox messages since the last run",
		OnUsageError: hookUsageError(e, ""),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "follow", Aliases: []string{"f"}, Usage: "Keep running and report on every change"},
			&cli.DurationFlag{Name: "debounce", Value: heartbeat.DefaultDebounce, Usage: "Quiet period before a --follow check"},
		},
		Action: func(c *cli.Context) error {
			database, err := db.Init(e.cfg.StateDBDir())
			if err != nil {
				// Hook contract: no output, no failure.
				e.logger.Warn("watch state unavailable", "dir", e.cfg.StateDBDir(), "error", err)
				return nil
			}
			defer database.Close()
			store := db.NewWatchStore(database)

			check := func(ctx context.Context) {
				out := ops.Heartbeat(ctx, store, e.cfg, ops.HeartbeatInput{Logger: e.logger})
				if out.Context == "" {
					return
				}
				if err := hook.Write(c.App.Writer, hook.ContextOutput{AdditionalContext: out.Context}); err != nil {
					e.logger.Warn("heartbeat output failed", "error", err)
				}
			}

			if !c.Bool("follow") {
				drainEvent(c)
				check(c.Context)
				return nil
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			check(ctx)
			dirs := []string{e.cfg.SharedPath, e.cfg.InboxDir()}
			err = heartbeat.Follow(ctx, dirs, c.Duration("debounce"), e.logger, check)
			if err != nil && !stderrors.Is(err, context.Canceled) {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// sessionStartCmd creates the session-start hook command.
func sessionStartCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:         "session-start",
		Usage:        "Emit the session-start briefing (reads the hook event from stdin)",
		OnUsageError: hookUsageError(e, hook.EventSessionStart),
		Action: func(c *cli.Context) error {
			ev := readEvent(c)
			out := ops.SessionStart(e.cfg, ops.SessionStartInput{
				Source: ev.Source,
				Cwd:    ev.Cwd,
				Logger: e.logger,
			})
			return writeHook(c, e, hook.NewSpecificOutput(hook.EventSessionStart, out.Context))
		},
	}
}

// preCompactCmd creates the pre-compact hook command.
func preCompactCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:         "pre-compact",
		Usage:        "Log recent work and save a handover before compaction (reads the hook event from stdin)",
		OnUsageError: hookUsageError(e, hook.EventPreCompact),
		Action: func(c *cli.Context) error {
			ev := readEvent(c)
			out := ops.PreCompact(e.cfg, ops.PreCompactInput{
				SessionID:      ev.SessionID,
				TranscriptPath: ev.TranscriptPath,
				Cwd:            ev.Cwd,
				Trigger:        ev.Trigger,
				Logger:         e.logger,
			})
			return writeHook(c, e, hook.NewSpecificOutput(hook.EventPreCompact, out.Status))
		},
	}
}

// logCmd creates the log command.
func logCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Append an entry to today's daily log (body read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Entry title"},
		},
		Action: func(c *cli.Context) error {
			body := ""
			if hasInput(c) {
				data, err := io.ReadAll(c.App.Reader)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				body = strings.TrimSpace(string(data))
			}

			output, err := ops.AppendLog(e.cfg, ops.AppendLogInput{
				Title: c.String("title"),
				Body:  body,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// handoversCmd creates the handovers command.
func handoversCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "handovers",
		Usage: "List saved handover snapshots, newest first",
		Action: func(c *cli.Context) error {
			output, err := ops.ListHandovers(e.cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// latestHandoverCmd creates the latest-handover command.
func latestHandoverCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "latest-handover",
		Usage: "Print LATEST_HANDOVER.md",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print metadata and content as JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.LatestHandover(e.cfg, ops.LatestHandoverInput{})
			if err != nil {
				return outputError(err)
			}
			if output.Item == nil {
				return outputError(errors.NewNotFound("LATEST_HANDOVER.md"))
			}
			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			_, err = fmt.Fprintln(c.App.Writer, output.Item.Content)
			return err
		},
	}
}

// Helper functions

// readEvent decodes the hook event, or returns the zero event when stdin
// is an interactive terminal.
func readEvent(c *cli.Context) hook.Event {
	if !hasInput(c) {
		return hook.Event{}
	}
	return hook.ReadEvent(c.App.Reader)
}

// drainEvent consumes an unused hook event so the writer never sees EPIPE.
func drainEvent(c *cli.Context) {
	if hasInput(c) {
		_, _ = io.Copy(io.Discard, c.App.Reader)
	}
}

// hasInput reports whether the app reader is piped data rather than a terminal.
func hasInput(c *cli.Context) bool {
	if c.App.Reader != os.Stdin {
		return c.App.Reader != nil
	}
	return stdinHasData()
}

// hookUsageError keeps the hook contract on bad arguments: the error is
// logged and an empty record for event is written (nothing when event is
// empty), with a zero exit.
func hookUsageError(e *env, event string) cli.OnUsageErrorFunc {
	return func(c *cli.Context, err error, _ bool) error {
		logger := logging.OrDiscard(e.logger)
		logger.Warn("ignoring invalid hook arguments", "error", err)
		drainEvent(c)
		if event == "" {
			return nil
		}
		if err := hook.Write(c.App.Writer, hook.NewSpecificOutput(event, "")); err != nil {
			logger.Warn("hook output failed", "error", err)
		}
		return nil
	}
}

// writeHook emits a hook record. Write failures are logged, never returned.
func writeHook(c *cli.Context, e *env, v any) error {
	if err := hook.Write(c.App.Writer, v); err != nil {
		e.logger.Warn("hook output failed", "error", err)
	}
	return nil
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var cErr *errors.CarryError
	if stderrors.As(err, &cErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
