package loan

type CreateLoanReq struct {
	UserID             int64   `json:"user_id" validate:"required,gt=0"`
	LoanDate           string  `json:"loan_date" validate:"required"`
	ExpectedReturnDate string  `json:"expected_return_date,omitempty"`
	Books              []int64 `json:"books" validate:"required,min=1,dive,gt=0"`
}

type UpdateLoanReq struct {
	ExpectedReturnDate *string `json:"expected_return_date,omitempty"`
	ReturnDate         *string `json:"return_date,omitempty"`
	AddBooks           []int64 `json:"add_books,omitempty" validate:"omitempty,dive,gt=0"`
	RemoveBooks        []int64 `json:"remove_books,omitempty" validate:"omitempty,dive,gt=0"`
}
