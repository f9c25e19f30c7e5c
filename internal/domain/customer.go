package domain

import "kiosk/internal/util"

// Customer is a kiosk customer. Every field is optional: a fully blank
// registration becomes an anonymous guest named after its own identifier.
type Customer struct {
	ID        string
	CPF       string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func NewCustomer(cpf, firstName, lastName, email, phone string) *Customer {
	id := util.GenerateUUID()
	if cpf == "" && firstName == "" && lastName == "" && email == "" && phone == "" {
		firstName = "Guest-" + id[:8]
	}
	return &Customer{
		ID:        id,
		CPF:       cpf,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
	}
}

func (c *Customer) ChangeFirstName(firstName string) { c.FirstName = firstName }
func (c *Customer) ChangeLastName(lastName string)   { c.LastName = lastName }
func (c *Customer) ChangeEmail(email string)         { c.Email = email }
func (c *Customer) ChangePhone(phone string)         { c.Phone = phone }
