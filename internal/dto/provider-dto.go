package dto

type CreateProviderDTO struct {
	UserID       *uint64 `json:"user_id"`
	Name         string  `json:"name" validate:"required"`
	Phone        string  `json:"phone" validate:"required,phone_CO"`
	Specialty    string  `json:"specialty" validate:"required"`
	Department   string  `json:"department" validate:"required"`
	Municipality string  `json:"municipality" validate:"required"`
}

type UpdateProviderDTO struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone" validate:"omitempty,phone_CO"`
	Specialty    *string `json:"specialty"`
	Department   *string `json:"department"`
	Municipality *string `json:"municipality"`
	Active       *bool   `json:"active"`
}
