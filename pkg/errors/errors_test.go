package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeInsufficientStock: http.StatusConflict,
		CodeInvalidPromo:      http.StatusUnprocessableEntity,
		CodeInvalidShipping:   http.StatusUnprocessableEntity,
		CodeInvalidTransition: http.StatusUnprocessableEntity,
		CodePaymentFailed:     http.StatusPaymentRequired,
		CodeForbidden:         http.StatusForbidden,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("code %s: expected status %d, got %d", code, status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "load order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found via errors.Is")
	}
	if typed := As(err); typed == nil || typed.Code() != CodeDependency {
		t.Fatalf("unexpected typed error: %v", err)
	}
}

func TestAsReturnsNilForForeignErrors(t *testing.T) {
	t.Parallel()

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for non-typed error")
	}
	if As(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeInsufficientStock, "not enough stock").
		WithDetails(map[string]any{"requested": 5, "available": 2})
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type: %T", err.Details())
	}
	if details["available"] != 2 {
		t.Fatalf("unexpected details: %+v", details)
	}
}
