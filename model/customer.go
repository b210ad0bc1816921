package model

import "time"

// Customer is the identity anchor of orders.
type Customer struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	HN        string    `json:"hn" yaml:"hn" validate:"required"`
	FirstName string    `json:"firstName" yaml:"firstName"`
	LastName  string    `json:"lastName" yaml:"lastName"`
	Gender    string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	BirthDate time.Time `json:"birthDate" yaml:"birthDate"`
}

// FullName returns first and last name joined by a space.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
