package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store/drivers/sqlite"
	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
	"github.com/aussiebroadwan/orgdir/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "orgdir-test"

func TestMain(m *testing.M) {
	cryptox.SetPepper("test-pepper")
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

type fixture struct {
	store  *sqlite.Store
	faults *faults
	tokens *TokenService
	dir    *Directory
	docs   *DocumentService
	totp   *TOTPService
	repair *RepairService
}

func newFixture(t *testing.T, strategy RenameStrategy) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "orgdir.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	f := &faults{}
	fs := &faultyStore{Store: st, faults: f}

	secret := []byte(strings.Repeat("s", jwtx.MinSecretLength))
	signer, err := jwtx.NewSignerHMAC("HS256", secret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHMAC("HS256", secret, testIssuer, 0)
	require.NoError(t, err)

	tokens := &TokenService{Signer: signer, Verifier: verifier, Issuer: testIssuer, TTL: time.Minute}
	gate := &AccessGate{Tokens: tokens, Store: fs}
	locks := NewKeyedLocker()
	partitions := &PartitionManager{Store: fs, Strategy: strategy}

	dir := &Directory{
		Store:         fs,
		Credentials:   &CredentialStore{Store: fs},
		Partitions:    partitions,
		Tokens:        tokens,
		Gate:          gate,
		Locks:         locks,
		RetryAttempts: 3,
		RetryInterval: time.Millisecond,
	}

	repair := NewRepairService(dir, discardLogger(), time.Hour, time.Millisecond)

	return &fixture{
		store:  st,
		faults: f,
		tokens: tokens,
		dir:    dir,
		docs:   &DocumentService{Store: fs, Gate: gate, Partitions: partitions, Locks: locks},
		totp:   &TOTPService{Store: fs, Gate: gate, Issuer: testIssuer},
		repair: repair,
	}
}

func (f *fixture) create(t *testing.T, name, email, secret string) domain.Organization {
	t.Helper()
	org, err := f.dir.Create(context.Background(), CreateOrganizationInput{Name: name, AdminEmail: email, AdminSecret: secret})
	require.NoError(t, err)
	return org
}

func (f *fixture) login(t *testing.T, email, secret string) string {
	t.Helper()
	tok, err := f.dir.Login(context.Background(), email, secret, "")
	require.NoError(t, err)
	return tok.AccessToken
}

func (f *fixture) partitions(t *testing.T) []string {
	t.Helper()
	names, err := f.store.Partitions().ListPartitions(context.Background())
	require.NoError(t, err)
	return names
}

func (f *fixture) journal(t *testing.T, id string) domain.JournalEntry {
	t.Helper()
	e, err := f.store.Journal().GetJournalEntry(context.Background(), id)
	require.NoError(t, err)
	return e
}

// faults injects storage failures into named store operations.
type faults struct {
	mu    sync.Mutex
	rules map[string]*faultRule
}

type faultRule struct {
	skip  int // calls let through before failing
	times int // failures to inject; negative means forever
}

var errInjected = fmt.Errorf("%w: injected fault", domain.ErrStorageUnavailable)

func (f *faults) set(op string, skip, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rules == nil {
		f.rules = make(map[string]*faultRule)
	}
	f.rules[op] = &faultRule{skip: skip, times: times}
}

func (f *faults) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = nil
}

func (f *faults) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rules[op]
	if !ok {
		return nil
	}
	if r.skip > 0 {
		r.skip--
		return nil
	}
	if r.times == 0 {
		return nil
	}
	if r.times > 0 {
		r.times--
	}
	return errInjected
}

type faultyStore struct {
	store.Store
	faults *faults
}

func (s *faultyStore) Organizations() store.Organizations {
	return &faultyOrgs{Organizations: s.Store.Organizations(), faults: s.faults}
}

func (s *faultyStore) Admins() store.Admins {
	return &faultyAdmins{Admins: s.Store.Admins(), faults: s.faults}
}

func (s *faultyStore) Partitions() store.Partitions {
	return &faultyPartitions{Partitions: s.Store.Partitions(), faults: s.faults}
}

func (s *faultyStore) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.Store.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{innerTx: tx, faults: s.faults}, nil
}

func (s *faultyStore) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(&faultyTx{innerTx: tx, faults: s.faults})
	})
}

// innerTx names the embedded transaction so its field does not shadow the
// Tx method every store.Tx carries.
type innerTx = store.Tx

type faultyTx struct {
	innerTx
	faults *faults
}

func (t *faultyTx) Organizations() store.Organizations {
	return &faultyOrgs{Organizations: t.innerTx.Organizations(), faults: t.faults}
}

func (t *faultyTx) Admins() store.Admins {
	return &faultyAdmins{Admins: t.innerTx.Admins(), faults: t.faults}
}

func (t *faultyTx) Partitions() store.Partitions {
	return &faultyPartitions{Partitions: t.innerTx.Partitions(), faults: t.faults}
}

type faultyOrgs struct {
	store.Organizations
	faults *faults
}

func (o *faultyOrgs) CreateOrganization(ctx context.Context, org domain.Organization) error {
	if err := o.faults.hit("CreateOrganization"); err != nil {
		return err
	}
	return o.Organizations.CreateOrganization(ctx, org)
}

func (o *faultyOrgs) RenameOrganization(ctx context.Context, id, name, nameKey, partitionID string) error {
	if err := o.faults.hit("RenameOrganization"); err != nil {
		return err
	}
	return o.Organizations.RenameOrganization(ctx, id, name, nameKey, partitionID)
}

func (o *faultyOrgs) DeleteOrganization(ctx context.Context, id string) error {
	if err := o.faults.hit("DeleteOrganization"); err != nil {
		return err
	}
	return o.Organizations.DeleteOrganization(ctx, id)
}

type faultyAdmins struct {
	store.Admins
	faults *faults
}

func (a *faultyAdmins) UpdateAdminCredential(ctx context.Context, id, email, emailKey, secretHash string) error {
	if err := a.faults.hit("UpdateAdminCredential"); err != nil {
		return err
	}
	return a.Admins.UpdateAdminCredential(ctx, id, email, emailKey, secretHash)
}

func (a *faultyAdmins) DeleteAdmin(ctx context.Context, id string) error {
	if err := a.faults.hit("DeleteAdmin"); err != nil {
		return err
	}
	return a.Admins.DeleteAdmin(ctx, id)
}

type faultyPartitions struct {
	store.Partitions
	faults *faults
}

func (p *faultyPartitions) CreatePartition(ctx context.Context, id string) error {
	if err := p.faults.hit("CreatePartition"); err != nil {
		return err
	}
	return p.Partitions.CreatePartition(ctx, id)
}

func (p *faultyPartitions) RenamePartition(ctx context.Context, from, to string) error {
	if err := p.faults.hit("RenamePartition"); err != nil {
		return err
	}
	return p.Partitions.RenamePartition(ctx, from, to)
}

func (p *faultyPartitions) CopyPartition(ctx context.Context, from, to string) (int, error) {
	if err := p.faults.hit("CopyPartition"); err != nil {
		return 0, err
	}
	return p.Partitions.CopyPartition(ctx, from, to)
}

func (p *faultyPartitions) DropPartition(ctx context.Context, id string) error {
	if err := p.faults.hit("DropPartition"); err != nil {
		return err
	}
	return p.Partitions.DropPartition(ctx, id)
}
