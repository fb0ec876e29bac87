package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers expose sub-repositories
// rather than flat methods so a Tx-scoped store offers exactly the same
// surface and nobody can start a transaction inside a transaction.
type Store interface {
	Organizations() Organizations
	Admins() Admins
	Journal() Journal
	Partitions() Partitions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing when fn returns
	// nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Organizations holds the metadata records. name_key, partition_id and
// admin_id are each unique; violating any returns ErrAlreadyExists.
type Organizations interface {
	CreateOrganization(ctx context.Context, o domain.Organization) error

	GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error)
	GetOrganizationByNameKey(ctx context.Context, nameKey string) (domain.Organization, error)
	GetOrganizationByPartition(ctx context.Context, partitionID string) (domain.Organization, error)
	GetOrganizationByAdmin(ctx context.Context, adminID string) (domain.Organization, error)

	// ListOrganizations returns every record ordered by id.
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)

	// RenameOrganization sets name, name_key and partition_id together and
	// bumps updated_at.
	RenameOrganization(ctx context.Context, id, name, nameKey, partitionID string) error

	// TouchOrganization bumps updated_at.
	TouchOrganization(ctx context.Context, id string) error

	// DeleteOrganization returns ErrNotFound when no row was removed.
	DeleteOrganization(ctx context.Context, id string) error
}

// Admins holds administrator credentials. email_key is unique.
type Admins interface {
	CreateAdmin(ctx context.Context, a domain.AdminCredential) error

	GetAdminByID(ctx context.Context, id string) (domain.AdminCredential, error)
	GetAdminByEmailKey(ctx context.Context, emailKey string) (domain.AdminCredential, error)

	// UpdateAdminCredential overwrites email, email_key and secret_hash.
	UpdateAdminCredential(ctx context.Context, id, email, emailKey, secretHash string) error

	// SetTOTPSecret stores a pending secret and clears totp_enabled_at.
	SetTOTPSecret(ctx context.Context, id, secret string) error
	// EnableTOTP stamps totp_enabled_at.
	EnableTOTP(ctx context.Context, id string) error
	// DisableTOTP clears both the secret and totp_enabled_at.
	DisableTOTP(ctx context.Context, id string) error

	// DeleteAdmin returns ErrNotFound when no row was removed.
	DeleteAdmin(ctx context.Context, id string) error
}

// Journal persists lifecycle saga progress.
type Journal interface {
	CreateJournalEntry(ctx context.Context, e domain.JournalEntry) error

	// UpdateJournalEntry rewrites the mutable columns (organization_id,
	// admin_id, to_partition, step, state, detail) and bumps updated_at.
	UpdateJournalEntry(ctx context.Context, e domain.JournalEntry) error

	GetJournalEntry(ctx context.Context, id string) (domain.JournalEntry, error)

	// ListOpenJournalEntries returns pending or failed entries last touched
	// before cutoff, oldest first.
	ListOpenJournalEntries(ctx context.Context, cutoff time.Time) ([]domain.JournalEntry, error)

	// ListOpenJournalEntriesForOrganization returns every pending or failed
	// entry of one organization regardless of age, oldest first.
	ListOpenJournalEntriesForOrganization(ctx context.Context, orgID string) ([]domain.JournalEntry, error)

	// DeleteClosedJournalEntries prunes settled entries last touched before
	// cutoff and reports how many were removed.
	DeleteClosedJournalEntries(ctx context.Context, cutoff time.Time) (int64, error)
}

// Partitions manages the per-organization document tables. Identifiers must
// be valid partition ids or staging names; anything else is rejected before
// reaching SQL.
type Partitions interface {
	// CreatePartition returns ErrAlreadyExists when id is taken.
	CreatePartition(ctx context.Context, id string) error

	PartitionExists(ctx context.Context, id string) (bool, error)

	// RenamePartition returns ErrNotFound when from is absent and
	// ErrAlreadyExists when to is present.
	RenamePartition(ctx context.Context, from, to string) error

	// CopyPartition creates to and copies every document of from into it,
	// returning the number of documents copied.
	CopyPartition(ctx context.Context, from, to string) (int, error)

	// DropPartition is a no-op when id does not exist.
	DropPartition(ctx context.Context, id string) error

	// ListPartitions returns every partition and staging table name.
	ListPartitions(ctx context.Context) ([]string, error)

	CountDocuments(ctx context.Context, id string) (int, error)

	// PutDocument inserts or replaces a document, keeping created_at.
	PutDocument(ctx context.Context, partitionID string, doc domain.Document) (domain.Document, error)
	GetDocument(ctx context.Context, partitionID, docID string) (domain.Document, error)
	ListDocuments(ctx context.Context, partitionID string) ([]domain.Document, error)
	// DeleteDocument returns ErrNotFound when no row was removed.
	DeleteDocument(ctx context.Context, partitionID, docID string) error
}
