package model

import "errors"

// Conditions reported to callers of the workflow core. All of them are
// recoverable by the caller; a failed transition leaves entities unchanged.
var (
	// ErrUnknownTest is returned when an order references a test code that is
	// absent from the catalog or inactive.
	ErrUnknownTest = errors.New("unknown test")

	// ErrEmptyOrder is returned when an order is submitted without tests.
	ErrEmptyOrder = errors.New("empty order")

	// ErrUnknownCustomer is returned when an order references a missing customer.
	ErrUnknownCustomer = errors.New("unknown customer")

	// ErrUnknownActor is returned when the acting user is missing or inactive.
	ErrUnknownActor = errors.New("unknown actor")

	// ErrNoEligibleActor is returned when a transition needs a role pool whose
	// capacity is zero.
	ErrNoEligibleActor = errors.New("no eligible actor")

	// ErrUnauthorizedTransition is returned when the actor lacks the role a
	// transition requires.
	ErrUnauthorizedTransition = errors.New("unauthorized transition")

	// ErrInvalidTransition is returned when the entity is terminal or a
	// precondition of the transition is not met.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidValue is returned when a result value does not fit the test
	// scale or its allowed choices.
	ErrInvalidValue = errors.New("invalid value")
)
