package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CodesTestSuite struct {
	suite.Suite
}

func TestCodesTestSuite(t *testing.T) {
	suite.Run(t, new(CodesTestSuite))
}

func allCodes() []ErrorCode {
	return []ErrorCode{
		AuthLoginFailed,
		AuthMissingToken,
		AuthExpiredToken,
		AuthInvalidTokenFormat,
		AuthInsufficientPermission,
		AuthTokenRevoked,
		AuthInvalidState,
		ValidationGeneral,
		ValidationRequiredField,
		ValidationInvalidFormat,
		ValidationOutOfRange,
		ValidationInvalidDate,
		ValidationInvalidID,
		ExpenseNotFound,
		ExpenseNotOwned,
		ExpenseInvalidAmount,
		ExpenseInvalidCategory,
		UserNotFound,
		SystemInternalError,
		SystemDatabaseError,
		SystemServiceUnavailable,
		SystemConfigurationError,
		SystemUnexpectedError,
		SystemRateLimitExceeded,
		SystemRouteNotFound,
		SystemMethodNotAllowed,
	}
}

func (s *CodesTestSuite) TestGetErrorMessage_ValidCode() {
	testCases := []struct {
		name     string
		code     ErrorCode
		expected string
	}{
		{"Auth Missing Token", AuthMissingToken, "Authorization token is required"},
		{"Validation General", ValidationGeneral, "Validation failed"},
		{"Expense Not Found", ExpenseNotFound, "Expense not found"},
		{"Expense Not Owned", ExpenseNotOwned, "Not authorized to modify this expense"},
		{"System Internal Error", SystemInternalError, "An unexpected error occurred. Please contact support with trace ID"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, GetErrorMessage(tc.code))
		})
	}
}

func (s *CodesTestSuite) TestGetErrorMessage_InvalidCode() {
	s.Equal("An error occurred", GetErrorMessage("INVALID_CODE"))
}

func (s *CodesTestSuite) TestIsValidErrorCode() {
	for _, code := range allCodes() {
		s.True(IsValidErrorCode(code), "Expected %s to be valid", code)
	}

	for _, code := range []ErrorCode{"INVALID_001", "", "EXPENSE_999"} {
		s.False(IsValidErrorCode(code), "Expected %s to be invalid", code)
	}
}

func (s *CodesTestSuite) TestErrorCodeConstants_Uniqueness() {
	seen := make(map[ErrorCode]bool)
	for _, code := range allCodes() {
		s.False(seen[code], "Duplicate error code found: %s", code)
		seen[code] = true
	}
}

func (s *CodesTestSuite) TestErrorCodeConstants_Format() {
	prefixes := []string{"AUTH_", "VALIDATION_", "EXPENSE_", "USER_", "SYSTEM_"}
	for _, code := range allCodes() {
		matched := false
		for _, prefix := range prefixes {
			if strings.HasPrefix(string(code), prefix) {
				matched = true
				break
			}
		}
		s.True(matched, "Error code %s has an unknown prefix", code)
	}
}

func (s *CodesTestSuite) TestAllErrorCodesHaveMessages() {
	for _, code := range allCodes() {
		message := GetErrorMessage(code)
		s.NotEqual("An error occurred", message, "Error code %s should have a specific message", code)
	}
}
