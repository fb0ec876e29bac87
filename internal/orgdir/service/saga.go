package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/pkg/idx"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
	"github.com/cenkalti/backoff/v5"
)

const (
	defaultRetryAttempts = 5
	defaultRetryInterval = 100 * time.Millisecond
)

// errForwardOnly marks a completed step that cannot be undone. The saga is
// finished by retrying the operation or by the repair pass.
var errForwardOnly = errors.New("step cannot be undone; retry the operation to resume")

type completedStep struct {
	step domain.LifecycleStep
	undo func(context.Context) error
}

// saga tracks one lifecycle operation and its journal entry.
type saga struct {
	d     *Directory
	entry domain.JournalEntry
	done  []completedStep
	log   *slog.Logger
}

// begin writes the journal entry. Nothing has happened yet if it fails.
func (d *Directory) begin(ctx context.Context, entry domain.JournalEntry) (*saga, error) {
	now := time.Now().UTC()
	entry.ID = idx.New().String()
	entry.Step = domain.StepStarted
	entry.State = domain.JournalPending
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := d.Store.Journal().CreateJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("open lifecycle journal: %w", err)
	}

	return &saga{
		d:     d,
		entry: entry,
		log: slogx.FromContext(ctx).With(
			slog.String("journal_id", entry.ID),
			slog.String("op", string(entry.Op)),
			slog.String("organization", entry.OrganizationName),
		),
	}, nil
}

// record notes a completed step. undo is nil for steps that only move
// forward.
func (s *saga) record(ctx context.Context, step domain.LifecycleStep, undo func(context.Context) error) {
	s.done = append(s.done, completedStep{step: step, undo: undo})
	s.entry.Step = step
	s.save(ctx)
}

func (s *saga) complete(ctx context.Context, step domain.LifecycleStep) {
	s.entry.Step = step
	s.entry.State = domain.JournalCompleted
	s.save(ctx)
}

func (s *saga) save(ctx context.Context) {
	if err := s.d.Store.Journal().UpdateJournalEntry(context.WithoutCancel(ctx), s.entry); err != nil {
		s.log.Warn("lifecycle journal update failed",
			slog.String("step", string(s.entry.Step)),
			slog.Any("error", err),
		)
	}
}

// fail undoes completed steps newest first and returns the error to hand
// back. With nothing completed that is cause itself; otherwise a
// *domain.LifecycleError wrapping it.
func (s *saga) fail(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	s.entry.Detail.Error = cause.Error()

	if len(s.done) == 0 {
		s.entry.State = domain.JournalRolledBack
		s.save(ctx)
		return cause
	}

	completed := make([]domain.LifecycleStep, len(s.done))
	var rollbackErr error
	for i := len(s.done) - 1; i >= 0; i-- {
		c := s.done[i]
		completed[i] = c.step
		if c.undo == nil {
			rollbackErr = errors.Join(rollbackErr, fmt.Errorf("%s: %w", c.step, errForwardOnly))
			continue
		}
		if err := s.d.retry(ctx, c.undo); err != nil {
			rollbackErr = errors.Join(rollbackErr, fmt.Errorf("undo %s: %w", c.step, err))
		}
	}

	if rollbackErr != nil {
		s.entry.State = domain.JournalFailed
		s.entry.Detail.Rollback = rollbackErr.Error()
		s.log.Error("lifecycle operation failed and was not fully rolled back",
			slog.Any("error", cause),
			slog.Any("rollback_error", rollbackErr),
		)
	} else {
		s.entry.State = domain.JournalRolledBack
		s.log.Warn("lifecycle operation rolled back", slog.Any("error", cause))
	}
	s.save(ctx)

	return &domain.LifecycleError{
		Op:           s.entry.Op,
		Organization: s.entry.OrganizationName,
		JournalID:    s.entry.ID,
		Completed:    completed,
		Err:          cause,
		RollbackErr:  rollbackErr,
	}
}

// retry runs op with exponential backoff until it succeeds, fails with a
// non-transient error, or the attempts run out.
func (d *Directory) retry(ctx context.Context, op func(context.Context) error) error {
	attempts := d.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInterval
	if d.RetryInterval > 0 {
		b.InitialInterval = d.RetryInterval
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op(ctx)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(attempts))
	return err
}

// retryable reports whether err may go away on its own. Conflicts and
// lookup failures will not.
func retryable(err error) bool {
	for _, permanent := range []error{
		domain.ErrPartitionExists,
		domain.ErrPartitionNotFound,
		domain.ErrDuplicateEmail,
		domain.ErrDuplicateOrganization,
		domain.ErrInvalidName,
		domain.ErrInvalidRequest,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}
