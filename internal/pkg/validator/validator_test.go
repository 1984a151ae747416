package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `validate:"notblank"`
	Email string `validate:"required,email"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "Amani", Email: "amani@example.com"}))

	errs := Validate(sample{Name: "   ", Email: "nope"})
	assert.Equal(t, "notblank", errs["Name"])
	assert.Equal(t, "email", errs["Email"])
}

type tagged struct {
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	errs := Validate(tagged{})
	assert.Equal(t, "required", errs["customerEmail"])
}
