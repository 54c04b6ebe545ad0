package book

type CreateBookReq struct {
	Title           string  `json:"title" validate:"required"`
	PublicationYear int     `json:"publication_year" validate:"required,gt=0"`
	Authors         []int64 `json:"authors,omitempty" validate:"omitempty,dive,gt=0"`
}

type UpdateBookReq struct {
	Title           *string `json:"title,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty"`
	AddAuthors      []int64 `json:"add_authors,omitempty" validate:"omitempty,dive,gt=0"`
	RemoveAuthors   []int64 `json:"remove_authors,omitempty" validate:"omitempty,dive,gt=0"`
}
