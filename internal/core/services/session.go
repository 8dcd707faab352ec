package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/logger"
)

// SampleResolver looks up the stored record of a sample by sha256.
type SampleResolver func(ctx context.Context, sha256 string) (*domain.Sample, error)

// SessionContext holds at most one current sample for a chain.
// It is not safe for concurrent use; every chain owns its own value.
type SessionContext struct {
	inspector driven.FileInspector
	resolve   SampleResolver
	current   *domain.SessionSample
}

// NewSessionContext creates an unset session. resolve may be nil, in which
// case opened samples are never marked as stored.
func NewSessionContext(inspector driven.FileInspector, resolve SampleResolver) *SessionContext {
	return &SessionContext{
		inspector: inspector,
		resolve:   resolve,
	}
}

// IsSet returns true if a current sample is held.
func (s *SessionContext) IsSet() bool {
	return s.current != nil
}

// Current returns the current sample, or nil.
func (s *SessionContext) Current() *domain.SessionSample {
	return s.current
}

// New resolves path to a sample and makes it current, replacing any
// previous one. Returns domain.ErrNotFound if path is not a readable file.
func (s *SessionContext) New(ctx context.Context, path string) error {
	sample, err := s.inspector.Inspect(ctx, path)
	if err != nil {
		return fmt.Errorf("opening session on %s: %w", path, err)
	}

	current := &domain.SessionSample{Path: path, Sample: *sample}
	if s.resolve != nil {
		stored, err := s.resolve(ctx, sample.SHA256)
		switch {
		case err == nil:
			current.Sample = *stored
			current.Stored = true
		case errors.Is(err, domain.ErrNotFound):
		default:
			return fmt.Errorf("looking up sample %s: %w", sample.SHA256, err)
		}
	}

	s.current = current
	logger.Debug("session opened on %s (%s)", current.Sample.Name, current.Sample.SHA256)
	return nil
}

// Close clears the current sample. It is safe to call on an unset session.
func (s *SessionContext) Close() {
	if s.current != nil {
		logger.Debug("session closed on %s", s.current.Sample.SHA256)
	}
	s.current = nil
}
