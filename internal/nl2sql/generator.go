// Package nl2sql turns natural language questions into SQL via a
// text-generation backend and produces corrected statements for queries the
// warehouse rejected.
package nl2sql

import (
	"context"
	"errors"
	"fmt"
)

// Request describes one generation call. PriorSQL and PriorError are set
// together on correction attempts and empty on the first attempt.
type Request struct {
	Question   string
	PriorSQL   string
	PriorError string
}

func (r Request) IsCorrection() bool {
	return r.PriorSQL != ""
}

// Result carries the extracted SQL candidate. SQL may be empty when the
// backend answered but produced no statement; the session loop decides what
// that means for the attempt in progress.
type Result struct {
	SQL      string
	Provider string
	Model    string
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// GenerationError reports that the backend call itself failed (network, auth,
// quota, malformed response). It is fatal for the session: no candidate
// exists, so there is nothing to execute or to feed into a correction prompt.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func IsGenerationError(err error) bool {
	var generationErr *GenerationError
	return errors.As(err, &generationErr)
}

func promptKind(req Request) string {
	if req.IsCorrection() {
		return "correction"
	}
	return "initial"
}
