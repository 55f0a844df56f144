package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError is one failed field constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error" example:"validation failed"`
	Fields []ValidationError `json:"fields,omitempty"`
}

// BindingErrors extracts field-level constraint failures from a gin binding
// error. Returns nil when the error is not a validator error (malformed JSON,
// type mismatches).
func BindingErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Error(),
		})
	}
	return out
}

// RespondBindingError shapes a 400 for a request-binding failure, with
// per-field details when the failure came from constraint tags.
func RespondBindingError(c *gin.Context, err error) {
	if fields := BindingErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Fields: fields})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
