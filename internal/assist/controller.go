// Package assist runs the self-correcting loop that turns a question into an
// executed query: generate, execute, and on rejection regenerate with the
// warehouse diagnostic until the attempt ceiling is reached.
package assist

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sqlmend/sqlmend/internal/executor"
	"github.com/sqlmend/sqlmend/internal/nl2sql"
	"github.com/sqlmend/sqlmend/internal/observability"
)

const defaultMaxAttempts = 3

// Session outcome reasons. Only query rejections are retried; everything else
// terminates the loop where it happened.
const (
	ReasonSuccess         = "success"
	ReasonExhausted       = "exhausted"
	ReasonConnectionError = "connection_error"
	ReasonGenerationError = "generation_error"
	ReasonNoProgress      = "no_progress"
	ReasonQueryError      = "query_error"
)

// Attempt records one executed candidate. Error is empty when the execution
// succeeded.
type Attempt struct {
	Number int    `json:"number"`
	SQL    string `json:"sql"`
	Error  string `json:"error,omitempty"`
}

// Outcome is the terminal report of a session. RowSet is nil unless the
// session succeeded; FinalSQL is the last statement handed to the executor
// and stays empty only when generation never produced one.
type Outcome struct {
	SessionID string           `json:"session_id"`
	Question  string           `json:"question,omitempty"`
	RowSet    *executor.RowSet `json:"row_set,omitempty"`
	FinalSQL  string           `json:"final_sql,omitempty"`
	Succeeded bool             `json:"succeeded"`
	Reason    string           `json:"reason"`
	Attempts  []Attempt        `json:"attempts,omitempty"`
	Provider  string           `json:"provider,omitempty"`
	Model     string           `json:"model,omitempty"`
}

// Controller owns no per-session state; every Run call carries its state on
// the stack, so one Controller serves concurrent sessions as long as the
// generator and executor tolerate concurrent use.
type Controller struct {
	Generator   nl2sql.Generator
	Executor    executor.Executor
	MaxAttempts int
	Logger      *slog.Logger
}

func (c *Controller) maxAttempts() int {
	if c.MaxAttempts < 1 {
		return defaultMaxAttempts
	}
	return c.MaxAttempts
}

func (c *Controller) sessionLogger(sessionID string) *slog.Logger {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return logger.With(slog.String("session_id", sessionID))
}

// Run answers a question. It performs at most MaxAttempts generation calls
// and at most MaxAttempts executions; a connection failure, a generation
// failure, or a correction that makes no progress ends the session early.
func (c *Controller) Run(ctx context.Context, question string) Outcome {
	sessionID := uuid.NewString()
	logger := c.sessionLogger(sessionID)
	start := time.Now()

	outcome := c.run(ctx, logger, question)
	outcome.SessionID = sessionID
	outcome.Question = question

	observability.ObserveSession(outcome.Reason, len(outcome.Attempts), time.Since(start))
	logger.InfoContext(ctx, "session finished",
		slog.String("reason", outcome.Reason),
		slog.Bool("succeeded", outcome.Succeeded),
		slog.Int("attempts", len(outcome.Attempts)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return outcome
}

func (c *Controller) run(ctx context.Context, logger *slog.Logger, question string) Outcome {
	maxAttempts := c.maxAttempts()

	initial, err := c.Generator.Generate(ctx, nl2sql.Request{Question: question})
	if err != nil {
		logger.ErrorContext(ctx, "initial generation failed", slog.Any("error", err))
		return Outcome{Reason: ReasonGenerationError}
	}
	if initial.SQL == "" {
		logger.ErrorContext(ctx, "initial generation produced no statement")
		return Outcome{Reason: ReasonGenerationError, Provider: initial.Provider, Model: initial.Model}
	}

	outcome := Outcome{Provider: initial.Provider, Model: initial.Model}
	currentSQL := initial.SQL

	for attempt := 1; ; attempt++ {
		logger.InfoContext(ctx, "executing candidate", slog.Int("attempt", attempt))

		rowSet, execErr := c.Executor.Execute(ctx, currentSQL)
		if execErr == nil {
			outcome.Attempts = append(outcome.Attempts, Attempt{Number: attempt, SQL: currentSQL})
			outcome.RowSet = &rowSet
			outcome.FinalSQL = currentSQL
			outcome.Succeeded = true
			outcome.Reason = ReasonSuccess
			return outcome
		}

		outcome.Attempts = append(outcome.Attempts, Attempt{Number: attempt, SQL: currentSQL, Error: execErr.Error()})
		outcome.FinalSQL = currentSQL

		if executor.IsConnectionError(execErr) {
			logger.ErrorContext(ctx, "warehouse unreachable", slog.Int("attempt", attempt), slog.Any("error", execErr))
			outcome.Reason = ReasonConnectionError
			return outcome
		}

		message := execErr.Error()
		if queryErr, ok := executor.AsQueryError(execErr); ok {
			message = queryErr.Message
		}
		logger.WarnContext(ctx, "execution failed", slog.Int("attempt", attempt), slog.String("error", message))

		if attempt == maxAttempts {
			logger.WarnContext(ctx, "attempt ceiling reached", slog.Int("max_attempts", maxAttempts))
			outcome.Reason = ReasonExhausted
			return outcome
		}

		correction, err := c.Generator.Generate(ctx, nl2sql.Request{
			Question:   question,
			PriorSQL:   currentSQL,
			PriorError: message,
		})
		if err != nil {
			logger.ErrorContext(ctx, "correction generation failed", slog.Int("attempt", attempt), slog.Any("error", err))
			outcome.Reason = ReasonGenerationError
			return outcome
		}
		if correction.SQL == "" || correction.SQL == currentSQL {
			logger.WarnContext(ctx, "correction made no progress", slog.Int("attempt", attempt))
			outcome.Reason = ReasonNoProgress
			return outcome
		}
		currentSQL = correction.SQL
	}
}

// RunSQL executes an operator-supplied statement once, outside the correction
// loop. It exists for reruns of edited history entries; failures are reported
// in the outcome, never corrected.
func (c *Controller) RunSQL(ctx context.Context, sqlText string) Outcome {
	sessionID := uuid.NewString()
	logger := c.sessionLogger(sessionID)

	outcome := Outcome{SessionID: sessionID, FinalSQL: sqlText}
	rowSet, err := c.Executor.Execute(ctx, sqlText)
	switch {
	case err == nil:
		outcome.Attempts = []Attempt{{Number: 1, SQL: sqlText}}
		outcome.RowSet = &rowSet
		outcome.Succeeded = true
		outcome.Reason = ReasonSuccess
	case executor.IsConnectionError(err):
		logger.ErrorContext(ctx, "warehouse unreachable", slog.Any("error", err))
		outcome.Attempts = []Attempt{{Number: 1, SQL: sqlText, Error: err.Error()}}
		outcome.Reason = ReasonConnectionError
	default:
		message := err.Error()
		if queryErr, ok := executor.AsQueryError(err); ok {
			message = queryErr.Message
		}
		logger.WarnContext(ctx, "execution failed", slog.String("error", message))
		outcome.Attempts = []Attempt{{Number: 1, SQL: sqlText, Error: message}}
		outcome.Reason = ReasonQueryError
	}
	return outcome
}
