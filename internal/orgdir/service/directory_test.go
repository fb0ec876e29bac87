package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestDirectoryCreateGetLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	org := f.create(t, "SRM", "admin@srm.example", "correct horse")
	require.Equal(t, "SRM", org.Name)
	require.Equal(t, "org_srm", org.PartitionID)
	require.Equal(t, "admin@srm.example", org.AdminEmail)
	require.Equal(t, []string{"org_srm"}, f.partitions(t))

	for _, name := range []string{"SRM", "srm", "org_srm"} {
		got, err := f.dir.Get(ctx, name)
		require.NoError(t, err, name)
		require.Equal(t, org.ID, got.ID)
		require.Equal(t, "admin@srm.example", got.AdminEmail)
	}

	_, err := f.dir.Get(ctx, "Unknown Org")
	require.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	tok, err := f.dir.Login(ctx, "ADMIN@srm.example", "correct horse", "")
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, time.Minute, tok.ExpiresIn)

	claims, err := f.tokens.Verify(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, org.ID, claims.OrgID)
	require.Equal(t, org.AdminID, claims.Subject)
	require.Equal(t, []string{jwtx.AMRPassword}, claims.AMR)

	_, err = f.dir.Login(ctx, "admin@srm.example", "wrong", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.dir.Login(ctx, "nobody@srm.example", "correct horse", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestDirectoryCreateConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")

	for _, name := range []string{"S R M", "srm", "S.R.M."} {
		_, err := f.dir.Create(ctx, CreateOrganizationInput{Name: name, AdminEmail: "other@example.com", AdminSecret: "secret"})
		require.ErrorIs(t, err, domain.ErrDuplicateOrganization, name)
	}

	_, err := f.dir.Create(ctx, CreateOrganizationInput{Name: "Other", AdminEmail: "Admin@SRM.example", AdminSecret: "secret"})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	_, err = f.dir.Create(ctx, CreateOrganizationInput{Name: "  ", AdminEmail: "x@example.com", AdminSecret: "secret"})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.dir.Create(ctx, CreateOrganizationInput{Name: "Valid", AdminEmail: "not-an-email", AdminSecret: "secret"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	// Failed attempts leave nothing behind.
	require.Equal(t, []string{"org_srm"}, f.partitions(t))
	_, err = f.store.Admins().GetAdminByEmailKey(ctx, "other@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryRename(t *testing.T) {
	for _, strategy := range []RenameStrategy{RenameAtomic, RenameCopy} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, strategy)

			org := f.create(t, "SRM", "admin@srm.example", "secret")
			token := f.login(t, "admin@srm.example", "secret")

			_, err := f.docs.Put(ctx, token, "SRM", "students", json.RawMessage(`{"count":42}`))
			require.NoError(t, err)

			newName := "SRM University"
			updated, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &newName})
			require.NoError(t, err)
			require.Equal(t, org.ID, updated.ID)
			require.Equal(t, "SRM University", updated.Name)
			require.Equal(t, "org_srm_university", updated.PartitionID)
			require.Equal(t, []string{"org_srm_university"}, f.partitions(t))

			_, err = f.dir.Get(ctx, "SRM")
			require.ErrorIs(t, err, domain.ErrOrganizationNotFound)

			// The token is bound to the organization id and survives the rename.
			doc, err := f.docs.Get(ctx, token, "SRM University", "students")
			require.NoError(t, err)
			require.JSONEq(t, `{"count":42}`, string(doc.Body))

			// An identical retry under the old name is a no-op.
			again, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &newName})
			require.NoError(t, err)
			require.Equal(t, updated.ID, again.ID)
			require.Equal(t, "org_srm_university", again.PartitionID)
			require.Equal(t, []string{"org_srm_university"}, f.partitions(t))

			// The old name is free again.
			f.create(t, "SRM", "new@srm.example", "secret")
		})
	}
}

func TestDirectoryUpdateCredential(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	f.create(t, "Acme", "admin@acme.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	email, secret := "root@srm.example", "new secret"
	org, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{AdminEmail: &email, AdminSecret: &secret})
	require.NoError(t, err)
	require.Equal(t, "root@srm.example", org.AdminEmail)
	require.Equal(t, "org_srm", org.PartitionID)

	f.login(t, "root@srm.example", "new secret")
	_, err = f.dir.Login(ctx, "admin@srm.example", "secret", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	taken := "admin@acme.example"
	_, err = f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{AdminEmail: &taken})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	f.login(t, "root@srm.example", "new secret")

	// Renaming onto another organization's partition is a conflict.
	acme := "ACME"
	_, err = f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &acme})
	require.ErrorIs(t, err, domain.ErrDuplicateOrganization)

	// Nothing to change.
	same, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{})
	require.NoError(t, err)
	require.Equal(t, "SRM", same.Name)
}

func TestDirectoryUpdateRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	f.faults.set("RenameOrganization", 0, -1)

	name, secret := "SRM University", "changed"
	_, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &name, AdminSecret: &secret})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, domain.OpUpdate, lerr.Op)
	require.Equal(t, []domain.LifecycleStep{domain.StepPartitionRenamed, domain.StepCredentialUpdated}, lerr.Completed)
	require.True(t, lerr.RolledBack())
	require.Equal(t, domain.JournalRolledBack, f.journal(t, lerr.JournalID).State)

	f.faults.clear()
	require.Equal(t, []string{"org_srm"}, f.partitions(t))
	f.login(t, "admin@srm.example", "secret")

	org, err := f.dir.Get(ctx, "SRM")
	require.NoError(t, err)
	require.Equal(t, "org_srm", org.PartitionID)
}

func TestDirectoryUpdateRollbackFailureIsRepaired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	f.faults.set("RenameOrganization", 0, -1)
	f.faults.set("RenamePartition", 1, -1) // the forward rename works, renaming back does not

	name := "SRM University"
	_, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &name})

	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.False(t, lerr.RolledBack())
	require.Equal(t, []domain.LifecycleStep{domain.StepPartitionRenamed}, lerr.Completed)
	require.NotEmpty(t, lerr.JournalID)

	entry := f.journal(t, lerr.JournalID)
	require.Equal(t, domain.JournalFailed, entry.State)
	require.Equal(t, "org_srm", entry.FromPartition)
	require.Equal(t, "org_srm_university", entry.ToPartition)
	require.Equal(t, []string{"org_srm_university"}, f.partitions(t))

	f.faults.clear()
	time.Sleep(5 * time.Millisecond)

	report, err := f.repair.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Repaired)
	require.Equal(t, domain.JournalRepaired, f.journal(t, lerr.JournalID).State)
	require.Equal(t, []string{"org_srm"}, f.partitions(t))

	// The organization works again under its old name.
	_, err = f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &name})
	require.NoError(t, err)
}

// failRenameRollback renames the organization behind token to newName with
// the record write and the rename back both failing, leaving the documents
// under the new partition id while the record still names the old one.
func failRenameRollback(t *testing.T, f *fixture, token, current, newName string) *domain.LifecycleError {
	t.Helper()

	f.faults.set("RenameOrganization", 0, -1)
	f.faults.set("RenamePartition", 1, -1)
	defer f.faults.clear()

	_, err := f.dir.Update(context.Background(), token, current, UpdateOrganizationInput{Name: &newName})

	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.False(t, lerr.RolledBack())
	require.Equal(t, domain.JournalFailed, f.journal(t, lerr.JournalID).State)
	return lerr
}

func TestDirectoryDeleteAfterFailedRenameDropsMovedPartition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	lerr := failRenameRollback(t, f, token, "SRM", "SRM University")
	require.Equal(t, []string{"org_srm_university"}, f.partitions(t))

	require.NoError(t, f.dir.Delete(ctx, token, "SRM"))
	require.Empty(t, f.partitions(t))

	time.Sleep(5 * time.Millisecond)
	report, err := f.repair.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Examined)
	require.Equal(t, 1, report.Repaired)
	require.Zero(t, report.Failed)
	require.Equal(t, domain.JournalRepaired, f.journal(t, lerr.JournalID).State)
	require.Empty(t, f.partitions(t))

	// Neither name is held by leftovers.
	f.create(t, "SRM University", "other@srm.example", "secret")
	f.create(t, "SRM", "admin@srm.example", "secret")
}

func TestRepairRealignsPartitionAfterLaterCredentialUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")
	_, err := f.docs.Put(ctx, token, "SRM", "roster", json.RawMessage(`{"students":3}`))
	require.NoError(t, err)

	lerr := failRenameRollback(t, f, token, "SRM", "SRM University")

	// A later write moves the record's updated_at past the failed entry.
	rotated := "rotated"
	_, err = f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{AdminSecret: &rotated})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	report, err := f.repair.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Repaired)
	require.Zero(t, report.Failed)
	require.Equal(t, domain.JournalRepaired, f.journal(t, lerr.JournalID).State)
	require.Equal(t, []string{"org_srm"}, f.partitions(t))

	docs, err := f.docs.List(ctx, token, "SRM")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "roster", docs[0].ID)

	// The later credential change stands.
	f.login(t, "admin@srm.example", rotated)
	_, err = f.dir.Login(ctx, "admin@srm.example", "secret", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestDirectoryRetriedRenameResumesAfterFailedRollback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	lerr := failRenameRollback(t, f, token, "SRM", "SRM University")

	name := "SRM University"
	org, err := f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "org_srm_university", org.PartitionID)

	time.Sleep(5 * time.Millisecond)
	report, err := f.repair.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Repaired)
	require.Equal(t, domain.JournalRepaired, f.journal(t, lerr.JournalID).State)
	require.Equal(t, []string{"org_srm_university"}, f.partitions(t))
}

func TestDirectoryCreateRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.faults.set("CreateOrganization", 0, 1)

	_, err := f.dir.Create(ctx, CreateOrganizationInput{Name: "SRM", AdminEmail: "admin@srm.example", AdminSecret: "secret"})
	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.True(t, lerr.RolledBack())
	require.Equal(t, []domain.LifecycleStep{domain.StepCredentialCreated, domain.StepPartitionCreated}, lerr.Completed)

	entry := f.journal(t, lerr.JournalID)
	require.Equal(t, domain.JournalRolledBack, entry.State)
	require.Equal(t, "SRM", entry.OrganizationName)

	require.Empty(t, f.partitions(t))
	_, err = f.store.Admins().GetAdminByEmailKey(ctx, "admin@srm.example")
	require.ErrorIs(t, err, store.ErrNotFound)

	f.create(t, "SRM", "admin@srm.example", "secret")
}

func TestDirectoryCreateProvisionFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.faults.set("CreatePartition", 0, 1)

	_, err := f.dir.Create(ctx, CreateOrganizationInput{Name: "SRM", AdminEmail: "admin@srm.example", AdminSecret: "secret"})
	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, []domain.LifecycleStep{domain.StepCredentialCreated}, lerr.Completed)

	_, err = f.store.Admins().GetAdminByEmailKey(ctx, "admin@srm.example")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	require.NoError(t, f.dir.Delete(ctx, token, "SRM"))

	_, err := f.dir.Get(ctx, "SRM")
	require.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	require.Empty(t, f.partitions(t))

	_, err = f.dir.Login(ctx, "admin@srm.example", "secret", "")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.ErrorIs(t, f.dir.Delete(ctx, token, "SRM"), domain.ErrOrganizationNotFound)

	// A new organization under the same name does not accept the old token.
	f.create(t, "SRM", "admin@srm.example", "secret")
	require.ErrorIs(t, f.dir.Delete(ctx, token, "SRM"), domain.ErrForbidden)
}

func TestDirectoryDeleteResumes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	f.faults.set("DeleteAdmin", 0, -1)

	err := f.dir.Delete(ctx, token, "SRM")
	var lerr *domain.LifecycleError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, domain.OpDelete, lerr.Op)
	require.Equal(t, []domain.LifecycleStep{domain.StepPartitionDestroyed}, lerr.Completed)
	require.False(t, lerr.RolledBack())
	require.Equal(t, domain.JournalFailed, f.journal(t, lerr.JournalID).State)

	// The record is the last thing to go, so the organization is still
	// addressable and the retry finishes the job.
	_, err = f.dir.Get(ctx, "SRM")
	require.NoError(t, err)
	require.Empty(t, f.partitions(t))

	f.faults.clear()
	require.NoError(t, f.dir.Delete(ctx, token, "SRM"))

	_, err = f.dir.Get(ctx, "SRM")
	require.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	_, err = f.store.Admins().GetAdminByEmailKey(ctx, "admin@srm.example")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	f.create(t, "SRM", "admin@srm.example", "secret")
	f.create(t, "Acme", "admin@acme.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	name := "Acme Corp"
	_, err := f.dir.Update(ctx, token, "Acme", UpdateOrganizationInput{Name: &name})
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.False(t, errors.Is(err, domain.ErrToken))

	require.ErrorIs(t, f.dir.Delete(ctx, token, "Acme"), domain.ErrForbidden)
	require.ErrorIs(t, f.dir.Delete(ctx, token, "Nope"), domain.ErrOrganizationNotFound)

	_, err = f.docs.List(ctx, token, "Acme")
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.ElementsMatch(t, []string{"org_acme", "org_srm"}, f.partitions(t))
}

func TestDirectoryTokenErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	org := f.create(t, "SRM", "admin@srm.example", "secret")

	require.ErrorIs(t, f.dir.Delete(ctx, "", "SRM"), domain.ErrTokenMalformed)
	require.ErrorIs(t, f.dir.Delete(ctx, "not.a.jwt", "SRM"), domain.ErrTokenMalformed)

	f.tokens.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := f.tokens.Issue(org.AdminID, org, nil)
	require.NoError(t, err)
	f.tokens.Now = nil

	err = f.dir.Delete(ctx, expired.AccessToken, "SRM")
	require.ErrorIs(t, err, domain.ErrTokenExpired)
	require.ErrorIs(t, err, domain.ErrToken)

	other := &TokenService{Signer: mustSigner(t, "HS256", "another secret that is long enough!"), Issuer: testIssuer}
	forged, err := other.Issue(org.AdminID, org, nil)
	require.NoError(t, err)
	require.ErrorIs(t, f.dir.Delete(ctx, forged.AccessToken, "SRM"), domain.ErrTokenInvalidSignature)

	// Token errors win over unknown targets.
	require.ErrorIs(t, f.dir.Delete(ctx, forged.AccessToken, "Nope"), domain.ErrTokenInvalidSignature)
}

func TestDirectoryConcurrentUpdateAndDelete(t *testing.T) {
	for _, strategy := range []RenameStrategy{RenameAtomic, RenameCopy} {
		t.Run(string(strategy), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, strategy)

			for i := range 3 {
				name := fmt.Sprintf("Tenant %d", i)
				email := fmt.Sprintf("admin%d@example.com", i)
				f.create(t, name, email, "secret")
				token := f.login(t, email, "secret")

				_, err := f.docs.Put(ctx, token, name, "doc", json.RawMessage(`{}`))
				require.NoError(t, err)

				newName := name + " Renamed"
				var wg sync.WaitGroup
				var updateErr, deleteErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, updateErr = f.dir.Update(ctx, token, name, UpdateOrganizationInput{Name: &newName})
				}()
				go func() {
					defer wg.Done()
					deleteErr = f.dir.Delete(ctx, token, name)
				}()
				wg.Wait()

				switch {
				case deleteErr == nil && updateErr != nil:
					// The delete went first.
					require.ErrorIs(t, updateErr, domain.ErrOrganizationNotFound)
				case deleteErr != nil:
					// The rename finished before the delete resolved the old
					// name; the renamed partition must be whole.
					require.ErrorIs(t, deleteErr, domain.ErrOrganizationNotFound)
					require.NoError(t, updateErr)
					doc, err := f.docs.Get(ctx, token, newName, "doc")
					require.NoError(t, err)
					require.JSONEq(t, `{}`, string(doc.Body))
					require.NoError(t, f.dir.Delete(ctx, token, newName))
				}

				require.Empty(t, f.partitions(t))
				_, err = f.dir.Get(ctx, name)
				require.ErrorIs(t, err, domain.ErrOrganizationNotFound)
				_, err = f.dir.Get(ctx, newName)
				require.ErrorIs(t, err, domain.ErrOrganizationNotFound)
			}
			require.Zero(t, f.dir.Locks.size())
		})
	}
}

func TestDirectoryLockTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, RenameAtomic)

	org := f.create(t, "SRM", "admin@srm.example", "secret")
	token := f.login(t, "admin@srm.example", "secret")

	unlock, err := f.dir.Locks.Lock(ctx, orgLockKey(org.ID))
	require.NoError(t, err)
	defer unlock()

	f.dir.LockTimeout = 10 * time.Millisecond
	name := "SRM University"
	_, err = f.dir.Update(ctx, token, "SRM", UpdateOrganizationInput{Name: &name})
	require.ErrorIs(t, err, domain.ErrBusy)

	// Reads never wait.
	_, err = f.dir.Get(ctx, "SRM")
	require.NoError(t, err)
}

func mustSigner(t *testing.T, alg, secret string) jwtx.Signer {
	t.Helper()
	s, err := jwtx.NewSignerHMAC(alg, []byte(secret))
	require.NoError(t, err)
	return s
}
