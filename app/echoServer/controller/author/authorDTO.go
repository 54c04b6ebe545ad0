package author

type CreateAuthorReq struct {
	Name        string  `json:"name" validate:"required"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

type UpdateAuthorReq struct {
	Name        *string `json:"name,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}
