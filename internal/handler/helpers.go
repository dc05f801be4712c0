package handler

import (
	"errors"
	"net/http"
	"reflect"

	"pantrio/internal/apierror"
	"pantrio/internal/middleware"
	"pantrio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError translates the service error taxonomy into HTTP status
// codes. Unknown errors become an opaque 500 so internals never leak.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New("not found"))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, apierror.New("conflict with existing resource"))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, apierror.New("operation not allowed in current status"))
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, apierror.New(stockErr.Error()))
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{
			validationErr.Field: validationErr.Msg,
		}))
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}

// parseIDParam reads a UUID path parameter, answering 400 on garbage.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID extracts the authenticated user's id from the JWT claims.
func currentUserID(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}
