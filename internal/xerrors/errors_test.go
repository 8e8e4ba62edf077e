// # internal/xerrors/errors_test.go
package xerrors

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := os.ErrNotExist
	err := Wrap(cause, CodeStorage, "open history database")

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected the cause to unwrap")
	}
	if !IsCode(err, CodeStorage) {
		t.Error("Expected the storage code")
	}
	if IsCode(err, CodeNotFound) {
		t.Error("Unexpected code match")
	}
	if !strings.Contains(err.Error(), "STORAGE_ERROR") {
		t.Errorf("Expected the code in the message, got %q", err.Error())
	}
}

func TestAddContext(t *testing.T) {
	err := New(CodeValidationError, "bad extension")
	err = AddContext(err, CtxPath, "/p/a.xyz")

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("Expected a DomainError")
	}
	if de.Context[CtxPath] != "/p/a.xyz" {
		t.Errorf("Unexpected context: %v", de.Context)
	}
}

func TestAddContextWrapsForeignErrors(t *testing.T) {
	err := AddContext(errors.New("plain"), CtxOperation, "record")

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("Expected a DomainError wrapper")
	}
	if de.Code != CodeInternal {
		t.Errorf("Expected the internal code, got %s", de.Code)
	}
	if de.Context[CtxOperation] != "record" {
		t.Errorf("Unexpected context: %v", de.Context)
	}
}

func TestIsCodeOnPlainError(t *testing.T) {
	if IsCode(errors.New("plain"), CodeStorage) {
		t.Error("A plain error has no code")
	}
}
