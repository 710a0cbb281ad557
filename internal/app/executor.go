package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotes-service/internal/platform/logging"
)

// Catalog writes that change an author's quote set run in five stages:
//
//  1. VALIDATE - check inputs before any state changes
//  2. PERFORM  - apply the quote mutation
//  3. VERIFY   - read the mutation back instead of trusting PERFORM
//  4. ARCHIVE  - persist derived state (the author's recomputed count)
//  5. RESPOND  - shape the result for the caller
//
// A failure in any stage stops the operation and is reported with the stage
// it happened in.

// Stage names one step of an Operation.
type Stage string

const (
	StageValidate Stage = "validate"
	StagePerform  Stage = "perform"
	StageVerify   Stage = "verify"
	StageArchive  Stage = "archive"
	StageRespond  Stage = "respond"
)

// StageError records which stage of an operation failed.
type StageError struct {
	Operation string
	Stage     Stage
	Cause     error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Operation, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// FailedStage extracts the failing stage from err.
func FailedStage(err error) (Stage, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage, true
	}

	return "", false
}

// Operation describes the stage functions of one write. Nil stages are
// skipped; a nil Respond yields the zero O.
type Operation[I, P, V, O any] struct {
	Name     string
	Validate func(ctx context.Context, in I) error
	Perform  func(ctx context.Context, in I) (P, error)
	Verify   func(ctx context.Context, in I, performed P) (V, error)
	Archive  func(ctx context.Context, in I, verified V) error
	Respond  func(ctx context.Context, in I, verified V) (O, error)
}

// Execute runs op against in, stage by stage.
func Execute[I, P, V, O any](ctx context.Context, op Operation[I, P, V, O], in I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		err       error
	)

	logger := logging.FromContext(ctx).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(stage Stage, cause error) (O, error) {
		logger.WarnContext(ctx, "operation stage failed",
			slog.String("stage", string(stage)),
			slog.Any("error", cause),
		)

		return zero, &StageError{Operation: op.Name, Stage: stage, Cause: cause}
	}

	if op.Validate != nil {
		if err = op.Validate(ctx, in); err != nil {
			return fail(StageValidate, err)
		}
	}

	if op.Perform != nil {
		if performed, err = op.Perform(ctx, in); err != nil {
			return fail(StagePerform, err)
		}
	}

	if op.Verify != nil {
		if verified, err = op.Verify(ctx, in, performed); err != nil {
			return fail(StageVerify, err)
		}
	}

	if op.Archive != nil {
		if err = op.Archive(ctx, in, verified); err != nil {
			return fail(StageArchive, err)
		}
	}

	result := zero
	if op.Respond != nil {
		if result, err = op.Respond(ctx, in, verified); err != nil {
			return fail(StageRespond, err)
		}
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}
