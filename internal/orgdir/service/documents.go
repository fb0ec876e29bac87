package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
)

// MaxDocumentSize bounds a single document body in bytes.
const MaxDocumentSize = 512 << 10

var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// DocumentService reads and writes documents in the partition of the
// organization a token belongs to. Writes hold the organization lock so they
// never race a rename or teardown of the partition.
type DocumentService struct {
	Store       store.Store
	Gate        *AccessGate
	Partitions  *PartitionManager
	Locks       *KeyedLocker
	LockTimeout time.Duration
}

func (s *DocumentService) Put(ctx context.Context, rawToken, orgName, docID string, body json.RawMessage) (domain.Document, error) {
	if err := validateDocID(docID); err != nil {
		return domain.Document{}, err
	}
	if len(body) == 0 || len(body) > MaxDocumentSize || !json.Valid(body) {
		return domain.Document{}, fmt.Errorf("%w: document body must be JSON of at most %d bytes", domain.ErrInvalidRequest, MaxDocumentSize)
	}

	var doc domain.Document
	err := s.write(ctx, rawToken, orgName, func(org domain.Organization) error {
		var err error
		doc, err = s.Partitions.PutDocument(ctx, org.PartitionID, domain.Document{ID: docID, Body: body})
		return err
	})
	return doc, err
}

func (s *DocumentService) Delete(ctx context.Context, rawToken, orgName, docID string) error {
	if err := validateDocID(docID); err != nil {
		return err
	}
	return s.write(ctx, rawToken, orgName, func(org domain.Organization) error {
		return s.Partitions.DeleteDocument(ctx, org.PartitionID, docID)
	})
}

func (s *DocumentService) Get(ctx context.Context, rawToken, orgName, docID string) (domain.Document, error) {
	if err := validateDocID(docID); err != nil {
		return domain.Document{}, err
	}

	var doc domain.Document
	err := s.read(ctx, rawToken, orgName, func(org domain.Organization) error {
		var err error
		doc, err = s.Partitions.GetDocument(ctx, org.PartitionID, docID)
		return err
	})
	return doc, err
}

func (s *DocumentService) List(ctx context.Context, rawToken, orgName string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.read(ctx, rawToken, orgName, func(org domain.Organization) error {
		var err error
		docs, err = s.Partitions.ListDocuments(ctx, org.PartitionID)
		return err
	})
	return docs, err
}

func (s *DocumentService) write(ctx context.Context, rawToken, orgName string, fn func(domain.Organization) error) error {
	grant, err := s.Gate.Authorize(ctx, rawToken, orgName)
	if err != nil {
		return err
	}

	unlock, err := acquire(ctx, s.Locks, s.LockTimeout, orgLockKey(grant.Organization.ID))
	if err != nil {
		return err
	}
	defer unlock()

	org, err := getOrganizationByID(ctx, s.Store.Organizations(), grant.Organization.ID)
	if err != nil {
		return err
	}
	return fn(org)
}

// read runs fn without locking. If the partition moved underneath it, the
// record is read again and fn retried once.
func (s *DocumentService) read(ctx context.Context, rawToken, orgName string, fn func(domain.Organization) error) error {
	grant, err := s.Gate.Authorize(ctx, rawToken, orgName)
	if err != nil {
		return err
	}

	err = fn(grant.Organization)
	if !errors.Is(err, domain.ErrPartitionNotFound) {
		return err
	}

	org, err := getOrganizationByID(ctx, s.Store.Organizations(), grant.Organization.ID)
	if err != nil {
		return err
	}
	return fn(org)
}

func validateDocID(id string) error {
	if !docIDPattern.MatchString(id) {
		return fmt.Errorf("%w: document id must match %s", domain.ErrInvalidRequest, docIDPattern)
	}
	return nil
}
