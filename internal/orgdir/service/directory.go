package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/naming"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/idx"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
)

// CreateOrganizationInput names a new organization and its admin.
type CreateOrganizationInput struct {
	Name        string
	AdminEmail  string
	AdminSecret string
}

// UpdateOrganizationInput carries the fields to change. Nil fields are kept.
type UpdateOrganizationInput struct {
	Name        *string
	AdminEmail  *string
	AdminSecret *string
}

// Directory drives the organization lifecycle. Each mutation runs as a saga
// over the credential store, the partition manager and the metadata record,
// and the record write is the only point where a change becomes visible.
type Directory struct {
	Store       store.Store
	Credentials *CredentialStore
	Partitions  *PartitionManager
	Tokens      *TokenService
	Gate        *AccessGate
	Locks       *KeyedLocker

	// LockTimeout bounds the wait for another operation on the same
	// organization. Zero waits as long as the request context allows.
	LockTimeout time.Duration

	// RetryAttempts and RetryInterval shape compensation retries.
	RetryAttempts uint
	RetryInterval time.Duration
}

// Get resolves an organization by name, case-insensitively, or by its
// partition id. It never waits on a lock.
func (d *Directory) Get(ctx context.Context, name string) (domain.Organization, error) {
	return lookupOrganization(ctx, d.Store.Organizations(), name)
}

// Create registers an organization: credential, then partition, then the
// record. A failing step undoes the ones before it.
func (d *Directory) Create(ctx context.Context, in CreateOrganizationInput) (domain.Organization, error) {
	l := slogx.FromContext(ctx)

	name := strings.TrimSpace(in.Name)
	pid, err := naming.Normalize(name)
	if err != nil {
		return domain.Organization{}, err
	}
	if _, err := validateEmail(in.AdminEmail); err != nil {
		return domain.Organization{}, err
	}
	if err := validateSecret(in.AdminSecret); err != nil {
		return domain.Organization{}, err
	}

	unlock, err := acquire(ctx, d.Locks, d.LockTimeout, partitionLockKey(pid))
	if err != nil {
		return domain.Organization{}, err
	}
	defer unlock()

	if err := d.checkAvailable(ctx, "", name, pid); err != nil {
		return domain.Organization{}, err
	}
	exists, err := d.Partitions.Exists(ctx, pid)
	if err != nil {
		return domain.Organization{}, err
	}
	if exists {
		return domain.Organization{}, fmt.Errorf("%w: partition %s is held by an unfinished operation",
			domain.ErrDuplicateOrganization, pid)
	}

	orgID := idx.New().String()
	adminID := idx.New().String()

	s, err := d.begin(ctx, domain.JournalEntry{
		Op:               domain.OpCreate,
		OrganizationID:   orgID,
		OrganizationName: name,
		ToPartition:      pid,
		AdminID:          adminID,
	})
	if err != nil {
		return domain.Organization{}, err
	}

	admin, err := d.Credentials.create(ctx, adminID, in.AdminEmail, in.AdminSecret)
	if err != nil {
		return domain.Organization{}, s.fail(ctx, err)
	}
	s.record(ctx, domain.StepCredentialCreated, func(ctx context.Context) error {
		return d.Credentials.Delete(ctx, adminID)
	})

	if err := d.Partitions.Provision(ctx, pid); err != nil {
		return domain.Organization{}, s.fail(ctx, err)
	}
	s.record(ctx, domain.StepPartitionCreated, func(ctx context.Context) error {
		return d.Partitions.Destroy(ctx, pid)
	})

	now := time.Now().UTC()
	org := domain.Organization{
		ID:          orgID,
		Name:        name,
		NameKey:     naming.NameKey(name),
		PartitionID: pid,
		AdminID:     adminID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.Store.Organizations().CreateOrganization(ctx, org); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			err = fmt.Errorf("%w: %q", domain.ErrDuplicateOrganization, name)
		}
		return domain.Organization{}, s.fail(ctx, err)
	}
	s.complete(ctx, domain.StepRecordCommitted)

	org.AdminEmail = admin.Email
	l.Info("organization created",
		slog.String("org_id", org.ID),
		slog.String("partition_id", pid),
	)
	return org, nil
}

// Update renames an organization and/or changes its admin credential. The
// partition moves first, then the credential, then the record.
//
// A retry of an update that already renamed the organization names the old
// organization, which no longer resolves. The token still carries the
// immutable organization id, so the retry is matched against the current
// record and completes as a no-op.
func (d *Directory) Update(ctx context.Context, rawToken, currentName string, in UpdateOrganizationInput) (domain.Organization, error) {
	l := slogx.FromContext(ctx)
	orgs := d.Store.Organizations()

	claims, err := d.Gate.Authenticate(rawToken)
	if err != nil {
		return domain.Organization{}, err
	}

	org, err := lookupOrganization(ctx, orgs, currentName)
	if errors.Is(err, domain.ErrOrganizationNotFound) {
		org, err = d.resolveAppliedRename(ctx, claims, in)
	}
	if err != nil {
		return domain.Organization{}, err
	}
	if err := checkOwnership(claims, org); err != nil {
		return domain.Organization{}, err
	}

	var newName, newPID string
	keys := []string{orgLockKey(org.ID)}
	if in.Name != nil {
		newName = strings.TrimSpace(*in.Name)
		if newPID, err = naming.Normalize(newName); err != nil {
			return domain.Organization{}, err
		}
		keys = append(keys, partitionLockKey(newPID))
	}
	if in.AdminEmail != nil {
		if _, err := validateEmail(*in.AdminEmail); err != nil {
			return domain.Organization{}, err
		}
	}
	if in.AdminSecret != nil {
		if err := validateSecret(*in.AdminSecret); err != nil {
			return domain.Organization{}, err
		}
	}

	unlock, err := acquire(ctx, d.Locks, d.LockTimeout, keys...)
	if err != nil {
		return domain.Organization{}, err
	}
	defer unlock()

	// Whoever held the lock before us may have renamed or deleted it.
	org, err = getOrganizationByID(ctx, orgs, org.ID)
	if err != nil {
		return domain.Organization{}, err
	}
	if err := checkOwnership(claims, org); err != nil {
		return domain.Organization{}, err
	}

	renamed := in.Name != nil && newName != org.Name
	moving := in.Name != nil && newPID != org.PartitionID
	credential := in.AdminEmail != nil || in.AdminSecret != nil
	if !renamed && !credential {
		return org, nil
	}
	if renamed {
		if err := d.checkAvailable(ctx, org.ID, newName, newPID); err != nil {
			return domain.Organization{}, err
		}
	}

	snap, err := d.Credentials.Snapshot(ctx, org.AdminID)
	if err != nil {
		return domain.Organization{}, err
	}

	target, to := org.Name, org.PartitionID
	if renamed {
		target = newName
	}
	if moving {
		to = newPID
	}

	s, err := d.begin(ctx, domain.JournalEntry{
		Op:               domain.OpUpdate,
		OrganizationID:   org.ID,
		OrganizationName: target,
		FromPartition:    org.PartitionID,
		ToPartition:      to,
		AdminID:          org.AdminID,
		Detail: domain.JournalDetail{
			Credential: &snap,
			NewName:    newName,
		},
	})
	if err != nil {
		return domain.Organization{}, err
	}

	if moving {
		from := org.PartitionID
		if err := d.Partitions.Rename(ctx, from, to); err != nil {
			return domain.Organization{}, s.fail(ctx, err)
		}
		s.record(ctx, domain.StepPartitionRenamed, func(ctx context.Context) error {
			return d.Partitions.Rename(ctx, to, from)
		})
	}

	if credential {
		if _, err := d.Credentials.Update(ctx, org.AdminID, in.AdminEmail, in.AdminSecret); err != nil {
			return domain.Organization{}, s.fail(ctx, err)
		}
		s.record(ctx, domain.StepCredentialUpdated, func(ctx context.Context) error {
			return d.Credentials.Restore(ctx, snap)
		})
	}

	if renamed {
		err = orgs.RenameOrganization(ctx, org.ID, target, naming.NameKey(target), to)
	} else {
		err = orgs.TouchOrganization(ctx, org.ID)
	}
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			err = fmt.Errorf("%w: %q", domain.ErrDuplicateOrganization, target)
		}
		return domain.Organization{}, s.fail(ctx, err)
	}
	s.complete(ctx, domain.StepRecordCommitted)

	l.Info("organization updated",
		slog.String("org_id", org.ID),
		slog.String("from_partition", org.PartitionID),
		slog.String("to_partition", to),
		slog.Bool("credential_changed", credential),
	)
	return getOrganizationByID(ctx, orgs, org.ID)
}

func (d *Directory) resolveAppliedRename(ctx context.Context, claims jwtx.Claims, in UpdateOrganizationInput) (domain.Organization, error) {
	if in.Name == nil {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}
	org, err := getOrganizationByID(ctx, d.Store.Organizations(), claims.OrgID)
	if err != nil {
		return domain.Organization{}, err
	}
	if org.NameKey != naming.NameKey(*in.Name) {
		return domain.Organization{}, domain.ErrOrganizationNotFound
	}
	return org, nil
}

// Delete tears an organization down: partition, credential, then the record.
// None of these steps can be undone, so a failure leaves the record in place
// and a retry resumes where the last attempt stopped.
func (d *Directory) Delete(ctx context.Context, rawToken, name string) error {
	l := slogx.FromContext(ctx)
	orgs := d.Store.Organizations()

	grant, err := d.Gate.Authorize(ctx, rawToken, name)
	if err != nil {
		return err
	}

	strays, err := d.strayPartitions(ctx, grant.Organization)
	if err != nil {
		return err
	}
	keys := []string{orgLockKey(grant.Organization.ID)}
	for _, pid := range strays {
		keys = append(keys, partitionLockKey(pid))
	}

	unlock, err := acquire(ctx, d.Locks, d.LockTimeout, keys...)
	if err != nil {
		return err
	}
	defer unlock()

	org, err := getOrganizationByID(ctx, orgs, grant.Organization.ID)
	if err != nil {
		return err
	}

	s, err := d.begin(ctx, domain.JournalEntry{
		Op:               domain.OpDelete,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		FromPartition:    org.PartitionID,
		AdminID:          org.AdminID,
	})
	if err != nil {
		return err
	}

	if err := d.Partitions.Destroy(ctx, org.PartitionID); err != nil {
		return s.fail(ctx, err)
	}
	for _, pid := range strays {
		if pid == org.PartitionID {
			continue
		}
		owned, err := partitionOwned(ctx, orgs, pid)
		if err != nil {
			return s.fail(ctx, err)
		}
		if owned {
			continue
		}
		if err := d.Partitions.Destroy(ctx, pid); err != nil {
			return s.fail(ctx, err)
		}
		l.Info("dropped partition left by failed update", slog.String("partition_id", pid))
	}
	s.record(ctx, domain.StepPartitionDestroyed, nil)

	if err := d.Credentials.Delete(ctx, org.AdminID); err != nil {
		return s.fail(ctx, err)
	}
	s.record(ctx, domain.StepCredentialDeleted, nil)

	if err := orgs.DeleteOrganization(ctx, org.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.fail(ctx, err)
	}
	s.complete(ctx, domain.StepRecordDeleted)

	l.Info("organization deleted",
		slog.String("org_id", org.ID),
		slog.String("partition_id", org.PartitionID),
	)
	return nil
}

// strayPartitions lists the partitions named by open update entries of org
// other than the one its record points at. An update whose rollback failed
// can leave the organization's documents under either of them.
func (d *Directory) strayPartitions(ctx context.Context, org domain.Organization) ([]string, error) {
	entries, err := d.Store.Journal().ListOpenJournalEntriesForOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list open journal entries: %w", err)
	}

	var out []string
	seen := map[string]bool{org.PartitionID: true}
	for _, e := range entries {
		if e.Op != domain.OpUpdate {
			continue
		}
		for _, pid := range []string{e.FromPartition, e.ToPartition} {
			if pid == "" || seen[pid] {
				continue
			}
			seen[pid] = true
			out = append(out, pid)
		}
	}
	return out, nil
}

// Login verifies an admin and issues a token for the organization they
// administer. A missing or wrong TOTP code looks exactly like a wrong
// secret.
func (d *Directory) Login(ctx context.Context, email, secret, otpCode string) (domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	admin, err := d.Credentials.Verify(ctx, email, secret)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	amr := []string{jwtx.AMRPassword}
	if admin.TOTPEnabled() {
		ok, err := checkTOTPCode(otpCode, admin)
		if err != nil {
			return domain.IssuedToken{}, err
		}
		if !ok {
			l.Info("login rejected: totp code", slog.String("admin_id", admin.ID))
			return domain.IssuedToken{}, domain.ErrInvalidCredentials
		}
		amr = append(amr, jwtx.AMROTP, jwtx.AMRMFA)
	}

	org, err := d.Store.Organizations().GetOrganizationByAdmin(ctx, admin.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Credential of an organization mid-create or mid-delete.
		return domain.IssuedToken{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.IssuedToken{}, err
	}

	tok, err := d.Tokens.Issue(admin.ID, org, amr)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	l.Info("admin logged in",
		slog.String("org_id", org.ID),
		slog.String("admin_id", admin.ID),
	)
	return tok, nil
}

// checkAvailable fails with ErrDuplicateOrganization when name or pid
// belongs to an organization other than selfID.
func (d *Directory) checkAvailable(ctx context.Context, selfID, name, pid string) error {
	orgs := d.Store.Organizations()

	org, err := orgs.GetOrganizationByNameKey(ctx, naming.NameKey(name))
	switch {
	case err == nil && org.ID != selfID:
		return fmt.Errorf("%w: %q", domain.ErrDuplicateOrganization, name)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	org, err = orgs.GetOrganizationByPartition(ctx, pid)
	switch {
	case err == nil && org.ID != selfID:
		return fmt.Errorf("%w: %q maps to partition %s of %q", domain.ErrDuplicateOrganization, name, pid, org.Name)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}
	return nil
}
