package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/go-task-tree/internal/services"
)

var (
	errInvalidRequestBody   = errors.New("invalid request body")
	errAuthorizationMissing = errors.New("authorization required")
	errInvalidAccessToken   = errors.New("invalid access token")
	errInvalidCredentials   = errors.New("invalid email or password")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func abortWithValidationError(c *gin.Context, err *services.ValidationError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"fields": err.Fields,
	})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// abortWithServiceError maps service errors onto responses. Anything
// unexpected becomes a bare 500.
func abortWithServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		abortWithValidationError(c, validationErr)
	case errors.Is(err, errInvalidRequestBody):
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrTaskAccessDenied):
		abort(c, newForbiddenError(services.ErrTaskAccessDenied.Error()))
	case errors.Is(err, services.ErrUncompletedSubtasks):
		abort(c, newForbiddenError(services.ErrUncompletedSubtasks.Error()))
	case errors.Is(err, services.ErrUserAlreadyExists):
		abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUserPasswordMismatch):
		abort(c, newUnauthorizedError(errInvalidCredentials.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

// bindJSON decodes the body into req. Field problems come back
// as *services.ValidationError, anything else as errInvalidRequestBody.
func bindJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		invalid := &services.ValidationError{}
		for _, fe := range fieldErrs {
			invalid.Add(fe.Field(), describeFieldError(fe))
		}
		return invalid
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.NewValidationError(typeErr.Field, "must be of type "+typeErr.Type.String())
	}
	return fmt.Errorf("%w: %v", errInvalidRequestBody, err)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
