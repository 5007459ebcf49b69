// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"time"

	businessflow "github.com/associacao-viver/membership-api/business_flow"
	"github.com/associacao-viver/membership-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "cpf":
		return "CPF must have 11 digits"
	case "cnpj":
		return "CNPJ must have 14 digits"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// newValidator builds a validator with the Brazilian document validations
// registered. Both accept punctuated input; digits are what count.
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return len(utils.NormalizeDigits(fl.Field().String())) == utils.CPFLength
	})

	_ = v.RegisterValidation("cnpj", func(fl validator.FieldLevel) bool {
		return len(utils.NormalizeDigits(fl.Field().String())) == utils.CNPJLength
	})

	return v
}

// validationErrors flattens validator output into user-facing messages
func validationErrors(err error) []string {
	var messages []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			messages = append(messages, getValidationErrorMessage(verr))
		}
	} else {
		messages = append(messages, err.Error())
	}
	return messages
}

// createRequestContext creates a context with timeout and request-scoped
// values for audit correlation
func createRequestContext(c fiber.Ctx) context.Context {
	return createRequestContextWithTimeout(c, 30*time.Second)
}

type contextKey string

const cancelFuncKey contextKey = "cancel_func"

func createRequestContextWithTimeout(c fiber.Ctx, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	// Keep the cancel func reachable; the context dies with its timeout
	ctx = context.WithValue(ctx, cancelFuncKey, cancel)
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		ctx = context.WithValue(ctx, businessflow.RequestIDKey, requestID)
	}
	return ctx
}

// clientMetadata collects the request attributes recorded in audit entries
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// memberIDFromLocals reads the authenticated member ID set by the auth middleware
func memberIDFromLocals(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("member_id").(uint)
	return id, ok
}
