// Package businessflow contains the core business logic and use cases for membership workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Member-related errors
	ErrMemberNotFound          = errors.New("member not found")
	ErrAccountLocked           = errors.New("account is temporarily locked")
	ErrIncorrectPassword       = errors.New("incorrect password")
	ErrNationalIDAlreadyExists = errors.New("national ID already exists")
	ErrEmailAlreadyExists      = errors.New("email already exists")
	ErrInvalidNationalID       = errors.New("national ID must have 11 digits")

	// Captcha errors
	ErrCaptchaRequired = errors.New("captcha verification is required")
	ErrCaptchaInvalid  = errors.New("captcha verification failed")

	// Token errors
	ErrInvalidToken = errors.New("token is invalid or expired")
	ErrTokenRevoked = errors.New("token has been revoked")

	// Transition errors shared by payments, companies and member status
	ErrInvalidTransition = errors.New("record is not in a state that allows this transition")
	ErrForbidden         = errors.New("actor is not allowed to perform this operation")
	ErrMissingReason     = errors.New("a rejection reason is required")

	// Payment-related errors
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrDuplicatePending       = errors.New("a pending payment of this type already exists")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrReferenceMonthRequired = errors.New("reference month is required for monthly fees")
	ErrDueDateRequired        = errors.New("due date is required")
	ErrReceiptRequired        = errors.New("receipt file is empty")

	// Partner company errors
	ErrCompanyNotFound           = errors.New("partner company not found")
	ErrCompanyAlreadyRegistered  = errors.New("registration number already has an open or approved application")
	ErrInvalidRegistrationNumber = errors.New("registration number must have 14 digits")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsMemberNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}

func IsAccountLocked(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsNationalIDAlreadyExists(err error) bool {
	return errors.Is(err, ErrNationalIDAlreadyExists)
}

func IsEmailAlreadyExists(err error) bool {
	return errors.Is(err, ErrEmailAlreadyExists)
}

func IsInvalidNationalID(err error) bool {
	return errors.Is(err, ErrInvalidNationalID)
}

func IsCaptchaRequired(err error) bool {
	return errors.Is(err, ErrCaptchaRequired)
}

func IsCaptchaInvalid(err error) bool {
	return errors.Is(err, ErrCaptchaInvalid)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsTokenRevoked(err error) bool {
	return errors.Is(err, ErrTokenRevoked)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsMissingReason(err error) bool {
	return errors.Is(err, ErrMissingReason)
}

func IsPaymentNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound)
}

func IsDuplicatePending(err error) bool {
	return errors.Is(err, ErrDuplicatePending)
}

func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}

func IsReferenceMonthRequired(err error) bool {
	return errors.Is(err, ErrReferenceMonthRequired)
}

func IsDueDateRequired(err error) bool {
	return errors.Is(err, ErrDueDateRequired)
}

func IsReceiptRequired(err error) bool {
	return errors.Is(err, ErrReceiptRequired)
}

func IsCompanyNotFound(err error) bool {
	return errors.Is(err, ErrCompanyNotFound)
}

func IsCompanyAlreadyRegistered(err error) bool {
	return errors.Is(err, ErrCompanyAlreadyRegistered)
}

func IsInvalidRegistrationNumber(err error) bool {
	return errors.Is(err, ErrInvalidRegistrationNumber)
}
