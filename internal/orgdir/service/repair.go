package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
)

const (
	defaultRepairInterval   = 10 * time.Minute
	defaultRepairGrace      = 5 * time.Minute
	defaultJournalRetention = 7 * 24 * time.Hour
)

// RepairReport summarizes one repair pass.
type RepairReport struct {
	Examined     int
	Repaired     int
	Skipped      int // held by an operation still in flight
	Failed       int
	SweptStaging []string
	Pruned       int64
}

// RepairService periodically finishes or undoes lifecycle operations whose
// journal entry was left open by a crash or a failed rollback, drops
// abandoned staging partitions and prunes old settled journal entries.
type RepairService struct {
	Directory *Directory
	Logger    *slog.Logger
	Interval  time.Duration

	// GracePeriod is how long an open entry must sit untouched before the
	// pass treats it as abandoned.
	GracePeriod time.Duration

	// Retention is how long settled entries are kept.
	Retention time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRepairService creates a repair service. Non-positive durations fall
// back to defaults.
func NewRepairService(dir *Directory, logger *slog.Logger, interval, grace time.Duration) *RepairService {
	if interval <= 0 {
		interval = defaultRepairInterval
	}
	if grace <= 0 {
		grace = defaultRepairGrace
	}

	return &RepairService{
		Directory:   dir,
		Logger:      logger,
		Interval:    interval,
		GracePeriod: grace,
		Retention:   defaultJournalRetention,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *RepairService) Start() {
	go s.run()
	s.Logger.Info("repair service started", "interval", s.Interval, "grace_period", s.GracePeriod)
}

// Stop blocks until an in-progress pass has finished.
func (s *RepairService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("repair service stopped")
}

func (s *RepairService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.runLogged()
	for {
		select {
		case <-ticker.C:
			s.runLogged()
		case <-s.stopCh:
			return
		}
	}
}

func (s *RepairService) runLogged() {
	report, err := s.RunOnce(context.Background())
	if err != nil {
		s.Logger.Error("repair pass failed", "error", err)
		return
	}
	s.Logger.Info("repair pass completed",
		"examined", report.Examined,
		"repaired", report.Repaired,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"swept_staging", len(report.SweptStaging),
		"pruned", report.Pruned,
	)
}

// RunOnce performs a single repair pass. Entries whose organization is
// locked by a running operation are skipped until the next pass. Each entry
// is independent; one failing does not stop the others.
func (s *RepairService) RunOnce(ctx context.Context) (RepairReport, error) {
	var report RepairReport
	d := s.Directory
	now := time.Now().UTC()

	entries, err := d.Store.Journal().ListOpenJournalEntries(ctx, now.Add(-s.GracePeriod))
	if err != nil {
		return report, fmt.Errorf("list open journal entries: %w", err)
	}

	for _, e := range entries {
		report.Examined++

		unlock, ok := d.Locks.TryLock(repairLockKeys(e)...)
		if !ok {
			report.Skipped++
			continue
		}
		err := s.repair(ctx, e)
		unlock()

		log := s.Logger.With("journal_id", e.ID, "op", string(e.Op), "organization", e.OrganizationName)
		if err != nil {
			report.Failed++
			log.Error("repair of lifecycle entry failed", "step", string(e.Step), "error", err)
			continue
		}
		report.Repaired++
		log.Info("lifecycle entry repaired", "step", string(e.Step), "state", string(e.State))
	}

	swept, err := d.Partitions.SweepStaging(ctx, d.Locks)
	report.SweptStaging = swept
	if err != nil {
		s.Logger.Error("staging sweep failed", "error", err)
	}

	if s.Retention > 0 {
		n, err := d.Store.Journal().DeleteClosedJournalEntries(ctx, now.Add(-s.Retention))
		if err != nil {
			s.Logger.Error("journal prune failed", "error", err)
		}
		report.Pruned = n
	}

	return report, nil
}

func repairLockKeys(e domain.JournalEntry) []string {
	switch e.Op {
	case domain.OpCreate:
		return []string{partitionLockKey(e.ToPartition)}
	case domain.OpUpdate:
		return []string{
			orgLockKey(e.OrganizationID),
			partitionLockKey(e.FromPartition),
			partitionLockKey(e.ToPartition),
		}
	default:
		return []string{orgLockKey(e.OrganizationID)}
	}
}

func (s *RepairService) repair(ctx context.Context, e domain.JournalEntry) error {
	var err error
	switch e.Op {
	case domain.OpCreate:
		err = s.repairCreate(ctx, e)
	case domain.OpUpdate:
		err = s.repairUpdate(ctx, e)
	case domain.OpDelete:
		err = s.repairDelete(ctx, e)
	default:
		err = fmt.Errorf("unknown lifecycle op %q", e.Op)
	}
	if err != nil {
		return err
	}

	e.State = domain.JournalRepaired
	return s.Directory.Store.Journal().UpdateJournalEntry(ctx, e)
}

// repairCreate undoes a create whose record never got written. A committed
// record means only the journal update was lost.
func (s *RepairService) repairCreate(ctx context.Context, e domain.JournalEntry) error {
	d := s.Directory
	orgs := d.Store.Organizations()

	if _, err := orgs.GetOrganizationByID(ctx, e.OrganizationID); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if e.ToPartition != "" {
		owned, err := partitionOwned(ctx, orgs, e.ToPartition)
		if err != nil {
			return err
		}
		if !owned {
			if err := d.Partitions.Destroy(ctx, e.ToPartition); err != nil {
				return err
			}
		}
	}

	if e.AdminID != "" {
		if _, err := orgs.GetOrganizationByAdmin(ctx, e.AdminID); errors.Is(err, store.ErrNotFound) {
			return d.Credentials.Delete(ctx, e.AdminID)
		} else if err != nil {
			return err
		}
	}
	return nil
}

// repairUpdate puts partitions and credential back in line with the record.
// The record is authoritative: its partition id names where the documents
// must live, whatever the entry says was attempted.
func (s *RepairService) repairUpdate(ctx context.Context, e domain.JournalEntry) error {
	d := s.Directory
	orgs := d.Store.Organizations()

	org, err := orgs.GetOrganizationByID(ctx, e.OrganizationID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted since. Neither partition belongs to anyone any more.
		return s.dropUnowned(ctx, e.FromPartition, e.ToPartition)
	}
	if err != nil {
		return err
	}

	if e.FromPartition != e.ToPartition {
		if err := s.realignPartition(ctx, org, e); err != nil {
			return err
		}
	}

	// A record written after the entry started means the credential was set
	// by this update's commit or by a later one; either way it is current.
	if e.Detail.Credential != nil && org.UpdatedAt.Before(e.CreatedAt) {
		return d.Credentials.Restore(ctx, *e.Detail.Credential)
	}
	return nil
}

// realignPartition moves documents an interrupted rename left under the
// other partition id back to the one the record names.
func (s *RepairService) realignPartition(ctx context.Context, org domain.Organization, e domain.JournalEntry) error {
	d := s.Directory
	live := org.PartitionID

	for _, pid := range []string{e.FromPartition, e.ToPartition} {
		if pid == "" || pid == live {
			continue
		}
		exists, err := d.Partitions.Exists(ctx, pid)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		owned, err := partitionOwned(ctx, d.Store.Organizations(), pid)
		if err != nil {
			return err
		}
		if owned {
			continue
		}

		liveExists, err := d.Partitions.Exists(ctx, live)
		if err != nil {
			return err
		}
		if liveExists {
			return fmt.Errorf("organization %s has partition %s but %s also exists; resolve manually",
				org.ID, live, pid)
		}
		if live != e.FromPartition && live != e.ToPartition {
			return fmt.Errorf("organization %s moved to %s after this update; %s needs manual review",
				org.ID, live, pid)
		}
		if err := d.Partitions.Rename(ctx, pid, live); err != nil {
			return err
		}
	}
	return nil
}

// dropUnowned destroys each partition no organization record points at.
func (s *RepairService) dropUnowned(ctx context.Context, ids ...string) error {
	d := s.Directory
	for _, pid := range ids {
		if pid == "" {
			continue
		}
		owned, err := partitionOwned(ctx, d.Store.Organizations(), pid)
		if err != nil {
			return err
		}
		if owned {
			continue
		}
		if err := d.Partitions.Destroy(ctx, pid); err != nil {
			return err
		}
	}
	return nil
}

// repairDelete finishes a delete that stopped part way.
func (s *RepairService) repairDelete(ctx context.Context, e domain.JournalEntry) error {
	d := s.Directory

	if err := d.Partitions.Destroy(ctx, e.FromPartition); err != nil {
		return err
	}
	if err := d.Credentials.Delete(ctx, e.AdminID); err != nil {
		return err
	}
	err := d.Store.Organizations().DeleteOrganization(ctx, e.OrganizationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func partitionOwned(ctx context.Context, orgs store.Organizations, pid string) (bool, error) {
	_, err := orgs.GetOrganizationByPartition(ctx, pid)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
