package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/cchavez09/Premier-League-Analytics-Platform/internal/logger"
)

// contextEnvVar carries the optional historical-match context to the engine.
// Engines that do not understand it simply ignore the variable.
const contextEnvVar = "PREDICT_CONTEXT"

// Invocation is the full input of a single scoring run
type Invocation struct {
	HomeTeam       string
	AwayTeam       string
	HomeSeasonCode string
	AwaySeasonCode string
	// Context is optional recent-form data. May be nil; the engine must
	// still produce an answer without it.
	Context *MatchContext
}

// MatchContext holds the optional historical matches supplied to the engine
type MatchContext struct {
	HomeRecent []MatchRecord `json:"homeRecent"`
	AwayRecent []MatchRecord `json:"awayRecent"`
}

// Engine scores a single match context and returns the raw bytes of its
// output document. The returned bytes are untrusted until validated.
type Engine interface {
	Score(ctx context.Context, inv Invocation) ([]byte, error)
}

// ProcessEngine invokes the external scoring model as an isolated
// subprocess, one process per call, never pooled or shared. stdout is the
// sole success channel; stderr is captured for diagnostics only.
type ProcessEngine struct {
	Command string        // interpreter or binary, e.g. "python3"
	Args    []string      // fixed leading arguments such as the script path
	Timeout time.Duration // wall-clock limit per invocation; zero means none
}

// NewProcessEngine builds an engine adapter for the given command line
func NewProcessEngine(command string, args []string, timeout time.Duration) *ProcessEngine {
	return &ProcessEngine{
		Command: command,
		Args:    args,
		Timeout: timeout,
	}
}

// Score runs one isolated engine invocation. The four match identifiers are
// passed as positional arguments after any fixed args. Exceeding the
// configured timeout, or cancellation of ctx, terminates the process.
func (e *ProcessEngine) Score(ctx context.Context, inv Invocation) ([]byte, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(e.Args)+4)
	args = append(args, e.Args...)
	args = append(args, inv.HomeTeam, inv.AwayTeam, inv.HomeSeasonCode, inv.AwaySeasonCode)

	cmd := exec.CommandContext(ctx, e.Command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()

	if inv.Context != nil {
		if encoded, err := json.Marshal(inv.Context); err == nil {
			cmd.Env = append(cmd.Env, contextEnvVar+"="+string(encoded))
		} else {
			logger.Warn("Could not encode match context, invoking engine without it", err)
		}
	}

	logger.Debug("Invoking prediction engine", e.Command, inv.HomeTeam, inv.AwayTeam)
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		diagnostics := Truncate(stderr.String())
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			logger.Error("Engine invocation timed out", elapsed)
			return nil, &Error{
				Kind:        KindTimeout,
				Message:     "prediction engine exceeded its deadline",
				Diagnostics: diagnostics,
				cause:       ctx.Err(),
			}
		case ctx.Err() == context.Canceled:
			// Caller went away; the process has been terminated so it
			// cannot run to completion unobserved.
			return nil, fmt.Errorf("engine invocation canceled: %w", ctx.Err())
		default:
			logger.Error("Engine exited abnormally", err, diagnostics)
			return nil, &Error{
				Kind:        KindEngineFailure,
				Message:     "prediction engine failed",
				Diagnostics: diagnostics,
				cause:       err,
			}
		}
	}

	logger.Debug("Engine completed", elapsed)
	return stdout.Bytes(), nil
}
