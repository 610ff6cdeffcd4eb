package domain

import (
	"errors"
	"strings"
)

type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// NewCustomer creates a new customer with required fields
func NewCustomer(name, email string) *Customer {
	return &Customer{
		Name:  strings.TrimSpace(name),
		Email: strings.TrimSpace(email),
	}
}

// Validate returns an error if the customer is invalid
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("customer email is required")
	}
	return nil
}
