package domain

import (
	"encoding/json"
	"time"
)

// Document is one opaque entry stored inside an organization's partition.
type Document struct {
	ID        string
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
