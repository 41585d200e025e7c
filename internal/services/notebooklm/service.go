// Package notebooklm drives the external video generation helper. The helper
// command owns the browser automation and login session; this package shells
// out to it and interprets its JSON replies.
package notebooklm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"apd/internal/config"
	"apd/internal/logging"
	"apd/internal/services"
)

// JobState is the lifecycle of a submitted generation job as reported by the
// helper.
type JobState string

const (
	StatePending JobState = "pending"
	StateDone    JobState = "done"
	StateFailed  JobState = "failed"
)

// PollResult describes one status check of a submitted job.
type PollResult struct {
	State JobState
	// ResultPath is the downloaded video location, set when State is done.
	ResultPath string
	// Detail carries the helper's failure message when State is failed.
	Detail string
}

// Service abstracts the generation backend so executors can be tested with
// fakes.
type Service interface {
	// Submit uploads an artifact and starts generation, returning an opaque
	// job reference for later polling.
	Submit(ctx context.Context, artifactPath, title string) (string, error)
	// Poll checks a previously submitted job. A pending job is not an error.
	Poll(ctx context.Context, jobRef string) (PollResult, error)
	// Available reports whether the backend can accept work right now.
	Available(ctx context.Context) error
}

// submitReply is the helper's stdout payload for a submit invocation.
type submitReply struct {
	JobRef string `json:"job_ref"`
	Error  string `json:"error"`
}

// statusReply is the helper's stdout payload for a status invocation.
type statusReply struct {
	State      string `json:"state"`
	ResultPath string `json:"result_path"`
	Error      string `json:"error"`
}

// CommandService invokes the configured helper command. Each call is a fresh
// process; the session file is the only state shared between invocations.
type CommandService struct {
	command       string
	sessionFile   string
	resultDir     string
	submitTimeout time.Duration
	pollTimeout   time.Duration
	logger        *slog.Logger

	// runCommand is swapped in tests.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandService builds a CommandService from configuration.
func NewCommandService(cfg *config.Config, logger *slog.Logger) *CommandService {
	if logger == nil {
		logger = logging.NewNop()
	}
	submitTimeout := time.Duration(cfg.Generator.SubmitTimeoutSecs) * time.Second
	if submitTimeout <= 0 {
		submitTimeout = 10 * time.Minute
	}
	pollTimeout := time.Duration(cfg.Generator.PollTimeoutSecs) * time.Second
	if pollTimeout <= 0 {
		pollTimeout = 2 * time.Minute
	}
	return &CommandService{
		command:       cfg.Generator.Command,
		sessionFile:   cfg.Generator.SessionFile,
		resultDir:     cfg.Paths.ResultDir,
		submitTimeout: submitTimeout,
		pollTimeout:   pollTimeout,
		logger:        logger.With(logging.String(logging.FieldComponent, "notebooklm")),
		runCommand:    runCombined,
	}
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), err
}

// Submit implements Service.
func (s *CommandService) Submit(ctx context.Context, artifactPath, title string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	args := []string{"submit", "--session", s.sessionFile, "--file", artifactPath}
	if title != "" {
		args = append(args, "--title", title)
	}
	out, err := s.runCommand(ctx, s.command, args...)
	if err != nil {
		return "", classifyCommandError("submit", err)
	}

	var reply submitReply
	if err := json.Unmarshal(bytes.TrimSpace(out), &reply); err != nil {
		return "", services.Wrap(services.ErrTransient, "generator", "submit",
			"Helper produced unparseable output", err)
	}
	if reply.Error != "" {
		return "", classifyHelperError("submit", reply.Error)
	}
	if reply.JobRef == "" {
		return "", services.Wrap(services.ErrTransient, "generator", "submit",
			"Helper returned no job reference", nil)
	}
	s.logger.Info("generation job submitted", logging.String("job_ref", reply.JobRef))
	return reply.JobRef, nil
}

// Poll implements Service.
func (s *CommandService) Poll(ctx context.Context, jobRef string) (PollResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.pollTimeout)
	defer cancel()

	args := []string{"status", "--session", s.sessionFile, "--job", jobRef, "--output-dir", s.resultDir}
	out, err := s.runCommand(ctx, s.command, args...)
	if err != nil {
		return PollResult{}, classifyCommandError("status", err)
	}

	var reply statusReply
	if err := json.Unmarshal(bytes.TrimSpace(out), &reply); err != nil {
		return PollResult{}, services.Wrap(services.ErrTransient, "generator", "status",
			"Helper produced unparseable output", err)
	}

	switch JobState(reply.State) {
	case StatePending:
		return PollResult{State: StatePending}, nil
	case StateDone:
		if reply.ResultPath == "" {
			return PollResult{}, services.Wrap(services.ErrTransient, "generator", "status",
				"Helper reported done without a result path", nil)
		}
		return PollResult{State: StateDone, ResultPath: reply.ResultPath}, nil
	case StateFailed:
		return PollResult{State: StateFailed, Detail: reply.Error}, nil
	default:
		return PollResult{}, services.Wrap(services.ErrTransient, "generator", "status",
			fmt.Sprintf("Helper reported unknown state %q", reply.State), nil)
	}
}

// Available implements Service. It verifies the helper binary resolves; the
// session itself is only validated by a real submit.
func (s *CommandService) Available(ctx context.Context) error {
	if strings.TrimSpace(s.command) == "" {
		return services.Wrap(services.ErrPermanent, "generator", "probe", "Generator command not configured", nil)
	}
	if _, err := exec.LookPath(s.command); err != nil {
		return services.Wrap(services.ErrPermanent, "generator", "probe",
			fmt.Sprintf("Generator command %q not found", s.command), err)
	}
	return nil
}

func classifyCommandError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "generator", operation, "Helper timed out", err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The helper reserves exit code 3 for session/auth problems.
		if exitErr.ExitCode() == 3 {
			return services.Wrap(services.ErrAuth, "generator", operation, "Helper session invalid", err)
		}
	}
	return services.Wrap(services.ErrTransient, "generator", operation, "Helper invocation failed", err)
}

func classifyHelperError(operation, detail string) error {
	lower := strings.ToLower(detail)
	if strings.Contains(lower, "rejected") || strings.Contains(lower, "unsupported") {
		return services.Wrap(services.ErrPermanent, "generator", operation, detail, nil)
	}
	if strings.Contains(lower, "session") || strings.Contains(lower, "login") {
		return services.Wrap(services.ErrAuth, "generator", operation, detail, nil)
	}
	return services.Wrap(services.ErrTransient, "generator", operation, detail, nil)
}
