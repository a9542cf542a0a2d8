package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

type Property struct {
	ID           uint64      `json:"id"`
	Address      string      `json:"address"`
	Type         string      `json:"type"`
	OwnerID      uint64      `json:"owner_id"`
	TenantID     null.Uint64 `json:"tenant_id"`
	TenantEmail  null.String `json:"tenant_email"`
	Department   string      `json:"department"`
	Municipality string      `json:"municipality"`
	ContractFrom null.Time   `json:"contract_from"`
	ContractTo   null.Time   `json:"contract_to"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
