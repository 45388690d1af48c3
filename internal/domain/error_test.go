package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Code:    EINVALID,
				Message: "invalid input",
			},
			expected: "invalid input",
		},
		{
			name: "with operation",
			err: &Error{
				Code:    EINVALID,
				Op:      "cart.add",
				Message: "invalid input",
			},
			expected: "cart.add: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "order.create",
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "order.create: failed to save: database connection failed",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to save",
				Err:     errors.New("database connection failed"),
			},
			expected: "failed to save: database connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{
		Code:    EINTERNAL,
		Message: "wrapped",
		Err:     underlying,
	}

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Error.Unwrap() = %v, want %v", unwrapped, underlying)
	}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "domain error",
			err:      &Error{Code: EINVALID, Message: "test"},
			expected: EINVALID,
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND, Message: "test"}),
			expected: ENOTFOUND,
		},
		{
			name:     "unavailable error",
			err:      Unavailable(errors.New("dial timeout"), "cart.get", "store unavailable"),
			expected: EUNAVAILABLE,
		},
		{
			name:     "non-domain error",
			err:      errors.New("some error"),
			expected: EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "domain error",
			err:      &Error{Code: EINVALID, Message: "quantity must be positive"},
			expected: "quantity must be positive",
		},
		{
			name:     "internal error hides details",
			err:      Internal(errors.New("pq: relation does not exist"), "order.list", "query failed"),
			expected: "An internal error occurred. Please try again later.",
		},
		{
			name:     "non-domain error hides details",
			err:      errors.New("raw driver error"),
			expected: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("checkout.address", "street", "street is required")

	if !IsValidationError(err) {
		t.Fatal("expected a ValidationError")
	}

	err = AddFieldError(err, "city", "city is required")

	fields := GetValidationFields(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(fields))
	}
	if fields["street"] != "street is required" {
		t.Errorf("street = %q", fields["street"])
	}
	if fields["city"] != "city is required" {
		t.Errorf("city = %q", fields["city"])
	}
}

func TestAddFieldError_NilStart(t *testing.T) {
	err := AddFieldError(nil, "postal_code", "postal code is required")
	if !IsValidationError(err) {
		t.Fatal("expected a ValidationError")
	}
	if got := GetValidationFields(err)["postal_code"]; got != "postal code is required" {
		t.Errorf("postal_code = %q", got)
	}
}

func TestIsCode(t *testing.T) {
	err := Conflict("cart.checkout", "cart changed during checkout")
	if !IsCode(err, ECONFLICT) {
		t.Error("expected ECONFLICT")
	}
	if IsCode(err, EINVALID) {
		t.Error("did not expect EINVALID")
	}
}
