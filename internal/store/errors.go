package store

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable domain error code, used by the API layer to
// pick an HTTP status and by callers to branch with errors.Is.
type ErrorCode string

const (
	// Validation
	CodeInvalidMealType   ErrorCode = "INVALID_MEAL_TYPE"
	CodeInvalidPackage    ErrorCode = "INVALID_PACKAGE"
	CodeInvalidDeposit    ErrorCode = "INVALID_DEPOSIT"
	CodeInvalidDateRange  ErrorCode = "INVALID_DATE_RANGE"
	CodeInvalidMemberType ErrorCode = "INVALID_MEMBER_TYPE"
	CodeInvalidTokenRef   ErrorCode = "INVALID_TOKEN_REF"

	// Conflict
	CodePackageConflict   ErrorCode = "PACKAGE_CONFLICT"
	CodeDateRangeConflict ErrorCode = "DATE_RANGE_CONFLICT"
	CodeDuplicateToken    ErrorCode = "DUPLICATE_TOKEN"

	// State
	CodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	CodePackageInactive     ErrorCode = "PACKAGE_INACTIVE"
	CodePackageExpired      ErrorCode = "PACKAGE_EXPIRED"
	CodeMealNotEnabled      ErrorCode = "MEAL_NOT_ENABLED"
	CodeMealsExhausted      ErrorCode = "MEALS_EXHAUSTED"
	CodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	CodeDateOutOfRange      ErrorCode = "DATE_OUT_OF_RANGE"
	CodeDisabledDay         ErrorCode = "DISABLED_DAY"
	CodeMemberInactive      ErrorCode = "MEMBER_INACTIVE"
	CodeCardExpired         ErrorCode = "CARD_EXPIRED"
	CodeAlreadyCollected    ErrorCode = "ALREADY_COLLECTED"
	CodeTokenNotForToday    ErrorCode = "TOKEN_NOT_FOR_TODAY"

	// Not found
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is a domain error carrying a human-readable message plus structured
// context (the conflicting entity, required vs available amounts) so callers
// can render actionable guidance.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %+v)", e.Code, e.Message, e.Context)
}

// Is matches errors by code so sentinel comparisons survive WithContext copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// newError builds a domain error with formatted message and optional key-value
// context pairs.
func newError(code ErrorCode, msg string, kv ...any) *Error {
	e := &Error{Code: code, Message: msg}
	if len(kv) > 0 {
		e.Context = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				key = fmt.Sprint(kv[i])
			}
			e.Context[key] = kv[i+1]
		}
	}
	return e
}

func notFound(entity string, id any) *Error {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", entity), "entity", entity, "id", id)
}

// IsNotFound reports whether err is a domain not-found error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeNotFound
}

// AsDomainError unwraps err into a domain error if it is one.
func AsDomainError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
