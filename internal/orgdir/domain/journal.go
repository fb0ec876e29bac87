package domain

import (
	"encoding/json"
	"time"
)

// LifecycleOp names the saga a journal entry belongs to.
type LifecycleOp string

const (
	OpCreate LifecycleOp = "create"
	OpUpdate LifecycleOp = "update"
	OpDelete LifecycleOp = "delete"
)

// LifecycleStep is the last side effect a saga completed.
type LifecycleStep string

const (
	StepStarted            LifecycleStep = "started"
	StepCredentialCreated  LifecycleStep = "credential_created"
	StepPartitionCreated   LifecycleStep = "partition_provisioned"
	StepPartitionRenamed   LifecycleStep = "partition_renamed"
	StepCredentialUpdated  LifecycleStep = "credential_updated"
	StepPartitionDestroyed LifecycleStep = "partition_destroyed"
	StepCredentialDeleted  LifecycleStep = "credential_deleted"
	StepRecordCommitted    LifecycleStep = "record_committed"
	StepRecordDeleted      LifecycleStep = "record_deleted"
)

// JournalState tracks whether a saga still needs attention.
type JournalState string

const (
	JournalPending    JournalState = "pending"
	JournalCompleted  JournalState = "completed"
	JournalRolledBack JournalState = "rolled_back"
	JournalFailed     JournalState = "failed"
	JournalRepaired   JournalState = "repaired"
)

// Open reports whether the entry may still describe leftover resources.
func (s JournalState) Open() bool {
	return s == JournalPending || s == JournalFailed
}

// JournalEntry is the durable trace of one lifecycle saga. It is written
// before the first side effect so a crash or failed rollback can always be
// traced back to the attempted organization name.
type JournalEntry struct {
	ID               string
	Op               LifecycleOp
	OrganizationID   string
	OrganizationName string
	FromPartition    string
	ToPartition      string
	AdminID          string
	Step             LifecycleStep
	State            JournalState
	Detail           JournalDetail
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// JournalDetail is the free-form part of an entry, persisted as JSON.
type JournalDetail struct {
	Credential *CredentialSnapshot `json:"credential,omitempty"`
	NewName    string              `json:"new_name,omitempty"`
	Error      string              `json:"error,omitempty"`
	Rollback   string              `json:"rollback_error,omitempty"`
}

func (d JournalDetail) Marshal() ([]byte, error) { return json.Marshal(d) }
