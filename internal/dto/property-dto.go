package dto

import "time"

type CreatePropertyDTO struct {
	Address      string     `json:"address" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	OwnerID      uint64     `json:"owner_id" validate:"required"`
	TenantID     *uint64    `json:"tenant_id"`
	TenantEmail  *string    `json:"tenant_email" validate:"omitempty,email"`
	Department   string     `json:"department" validate:"required"`
	Municipality string     `json:"municipality" validate:"required"`
	ContractFrom *time.Time `json:"contract_from"`
	ContractTo   *time.Time `json:"contract_to"`
}

type UpdatePropertyDTO struct {
	Address      *string    `json:"address"`
	Type         *string    `json:"type"`
	TenantID     *uint64    `json:"tenant_id"`
	TenantEmail  *string    `json:"tenant_email" validate:"omitempty,email"`
	Department   *string    `json:"department"`
	Municipality *string    `json:"municipality"`
	ContractFrom *time.Time `json:"contract_from"`
	ContractTo   *time.Time `json:"contract_to"`
}
