package customer

type CreateCustomerRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

type UpdateCustomerRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}
