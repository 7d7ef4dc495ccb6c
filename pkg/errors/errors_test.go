package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor_KnownCode(t *testing.T) {
	meta := MetadataFor(CodeValidation)
	if meta.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation, got %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("expected validation metadata to allow details")
	}
}

func TestMetadataFor_UnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("row locked")
	err := Wrap(CodeConflict, cause, "member busy")

	typed := As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %T", err)
	}
	if typed.Code() != CodeConflict {
		t.Fatalf("expected conflict code, got %s", typed.Code())
	}
	if typed.Unwrap() != cause {
		t.Fatal("expected cause to survive wrapping")
	}
}

func TestWrap_NilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeNotFound, nil, "receipt missing")
	if err.Unwrap() != nil {
		t.Fatal("expected nil cause")
	}
	if err.Error() != "NOT_FOUND: receipt missing" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStateConflict, "quest already claimed"))
	if !HasCode(err, CodeStateConflict) {
		t.Fatal("expected code to be found through wrapping")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatal("did not expect not-found code")
	}
}

func TestDump_IncludesChain(t *testing.T) {
	err := Wrap(CodeDependency, fmt.Errorf("connection refused"), "loading quest catalog")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain to include cause, got %v", dump.Chain)
	}
}
