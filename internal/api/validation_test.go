package api

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindTarget struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email"`
}

func TestBindingErrors(t *testing.T) {
	err := validator.New().Struct(bindTarget{Email: "not-an-email"})
	require.Error(t, err)

	fields := BindingErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Field)
	assert.Equal(t, "required", fields[0].Tag)
	assert.Equal(t, "Email", fields[1].Field)
	assert.Equal(t, "email", fields[1].Tag)
}

func TestBindingErrors_NonValidatorError(t *testing.T) {
	assert.Nil(t, BindingErrors(errors.New("unexpected EOF")))
}
