package domain

import "time"

// Organization is the metadata record linking an organization name to its
// partition and its administrator.
type Organization struct {
	ID          string // ULID, immutable for the lifetime of the organization
	Name        string
	NameKey     string // case-folded Name, carries the uniqueness constraint
	PartitionID string // always naming.Normalize(Name) as of the last create/rename
	AdminID     string
	AdminEmail  string // joined from admins on reads, ignored on writes
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
