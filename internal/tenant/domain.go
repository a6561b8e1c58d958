package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents one store. All catalog and sale data is partitioned by it.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BusinessKind string    `json:"business_kind"`
	APIKeyHash   string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
