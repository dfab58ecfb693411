// Package entity holds the fields every master-data row and document shares.
package entity

import (
	"context"
	"time"

	"partsflow/internal/core/id"
)

// Validatable entities check their own invariants without touching storage.
// A failed check returns an AppError carrying the offending field.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity is the identity of a row plus its optimistic-lock version.
// Repositories compare Version on update and reject stale writes.
type BaseEntity struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`
}

// NewBaseEntity assigns a fresh UUIDv7 at version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// Touch bumps the version before an update is written.
func (b *BaseEntity) Touch() { b.Version++ }

// SetVersion stores the version the database returned.
func (b *BaseEntity) SetVersion(v int) { b.Version = v }

// BaseDocument adds creation and modification stamps.
// CreatedBy and UpdatedBy hold the caller id, or "system" for jobs.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument stamps both timestamps with the current UTC time.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{BaseEntity: NewBaseEntity(), CreatedAt: now, UpdatedAt: now}
}

// SetUpdatedAt stores the modification time the repository wrote.
func (b *BaseDocument) SetUpdatedAt(t time.Time) { b.UpdatedAt = t }
