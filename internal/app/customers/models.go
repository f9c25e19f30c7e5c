package customers

type CreateCustomerRequest struct {
	CPF       string `json:"cpf"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// UpdateCustomerRequest is a partial update: only non-nil fields are applied.
type UpdateCustomerRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

type CustomerResponse struct {
	CustomerID string `json:"customerId"`
	CPF        string `json:"cpf"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}
