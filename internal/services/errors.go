package services

import (
	"errors"
	"fmt"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

var (
	// ErrUserExists is returned by Register when the email or username is taken.
	ErrUserExists = errors.New("email or username already registered")

	// ErrInvalidCredentials is returned by Authenticate for an unknown login or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnitNameTaken is returned when an owner already has a unit with the requested name.
	ErrUnitNameTaken = errors.New("unit name already in use")
)

// validate runs struct-tag validation and reports failures as compost.ErrInvalidInput.
func validate(req interface{}) error {
	if err := models.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", compost.ErrInvalidInput, err.Error())
	}
	return nil
}
