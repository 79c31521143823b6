package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "event not found",
	}

	expected := "NOT_FOUND: event not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("user_profile is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "user_profile is required" {
		t.Errorf("Message = %q, want %q", err.Message, "user_profile is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("evt-1")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "evt-1" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "evt-1")
	}
}

func TestNewUpstreamFetch(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		err := NewUpstreamFetch("calendar feed", 503, nil)

		if err.Code != ErrUpstreamFetch {
			t.Errorf("Code = %q, want %q", err.Code, ErrUpstreamFetch)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "calendar feed returned 503" {
			t.Errorf("Message = %q, want %q", err.Message, "calendar feed returned 503")
		}
		if err.Details["upstream_status"] != 503 {
			t.Errorf("Details[upstream_status] = %v, want 503", err.Details["upstream_status"])
		}
	})

	t.Run("with transport error", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewUpstreamFetch("calendar feed", 0, cause)

		if err.Message != "calendar feed request failed: connection refused" {
			t.Errorf("Message = %q", err.Message)
		}
		if !stderrors.Is(err, cause) {
			t.Error("expected Unwrap to expose the transport error")
		}
	})
}

func TestNewParse(t *testing.T) {
	err := NewParse("feed response", fmt.Errorf("unexpected EOF"))

	if err.Code != ErrParse {
		t.Errorf("Code = %q, want %q", err.Code, ErrParse)
	}
	if err.Message != "unexpected feed response format: unexpected EOF" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewConfig(t *testing.T) {
	err := NewConfig("classify_api_key")

	if err.Code != ErrConfig {
		t.Errorf("Code = %q, want %q", err.Code, ErrConfig)
	}
	if err.Details["setting"] != "classify_api_key" {
		t.Errorf("Details[setting] = %v, want %q", err.Details["setting"], "classify_api_key")
	}
}

func TestNewRankingUnavailable(t *testing.T) {
	err := NewRankingUnavailable(fmt.Errorf("dial tcp: refused"))

	if err.Code != ErrRankingUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrRankingUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Message != "database connection failed" {
			t.Errorf("Message = %q, want %q", err.Message, "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "internal error" {
			t.Errorf("Message = %q, want %q", err.Message, "internal error")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("x"), ErrParse) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-AppError", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for non-AppError")
		}
	})

	t.Run("wrapped AppError", func(t *testing.T) {
		wrapped := fmt.Errorf("fetch: %w", NewParse("feed response", nil))
		if !Is(wrapped, ErrParse) {
			t.Error("Is() = false, want true for wrapped AppError")
		}
		appErr, ok := As(wrapped)
		if !ok || appErr.Code != ErrParse {
			t.Errorf("As() = %v, %v; want PARSE_ERROR", appErr, ok)
		}
	})
}
