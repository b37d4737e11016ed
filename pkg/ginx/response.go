package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"oip/quotesync/pkg/errorx"
)

// ErrorBody error response shared by all endpoints
type ErrorBody struct {
	Error   bool          `json:"error"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail one invalid request field
type ErrorDetail struct {
	Path string `json:"path" example:"opportunityId"`
	Info string `json:"info" example:"opportunityId is required"`
}

// Success 200 with data as the body
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 with data as the body
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error writes {error:true, message} with httpCode
func Error(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorBody{
		Error:   true,
		Message: message,
	})
}

func ErrorWithDetails(c *gin.Context, httpCode int, message string, details []ErrorDetail) {
	c.AbortWithStatusJSON(httpCode, ErrorBody{
		Error:   true,
		Message: message,
		Details: details,
	})
}

// FromError maps err to its status through errorx.StatusCode
func FromError(c *gin.Context, err error) {
	Error(c, errorx.StatusCode(err), err.Error())
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// BadRequestWithValidation 400 listing every failed validation rule
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: getValidationErrorMessage(fieldErr),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details)
		return
	}

	BadRequest(c, err.Error())
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

func getValidationErrorMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "url":
		return fieldErr.Field() + " must be a valid URL"
	case "min":
		return fieldErr.Field() + " must contain at least " + fieldErr.Param() + " item(s)"
	case "max":
		return fieldErr.Field() + " must contain at most " + fieldErr.Param() + " item(s)"
	default:
		return fieldErr.Field() + " is invalid"
	}
}
