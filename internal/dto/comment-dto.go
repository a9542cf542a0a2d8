package dto

type CreateCommentDTO struct {
	Message string   `json:"message" validate:"required"`
	Media   []string `json:"media" validate:"omitempty,dive,uri"`
}
