package utils_test

import (
	"errors"
	"fmt"
	"testing"

	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
)

func TestErrorTaxonomyMatchers(t *testing.T) {
	validation := utils.NewValidationError("quantity must be positive")
	notFound := utils.NewNotFoundError("product")
	conflict := utils.NewConflictError("concurrent stock update")
	parse := utils.NewParseError(4, "invalid Qty")

	if !utils.IsValidationError(validation) {
		t.Fatalf("validation error not recognized")
	}
	if !utils.IsNotFoundError(notFound) {
		t.Fatalf("not-found error not recognized")
	}
	if !utils.IsConflictError(conflict) {
		t.Fatalf("conflict error not recognized")
	}
	if !utils.IsParseError(parse) {
		t.Fatalf("parse error not recognized")
	}

	// matchers must not cross categories
	if utils.IsValidationError(notFound) || utils.IsNotFoundError(validation) {
		t.Fatalf("matchers crossed categories")
	}
	if utils.IsConflictError(parse) || utils.IsParseError(conflict) {
		t.Fatalf("matchers crossed categories")
	}
}

func TestErrorMatchersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("import row 7: %w", utils.NewParseError(7, "invalid Rate"))
	if !utils.IsParseError(wrapped) {
		t.Fatalf("wrapped parse error not recognized")
	}

	var pe *utils.ParseError
	if !errors.As(wrapped, &pe) || pe.Row != 7 {
		t.Fatalf("expected row 7, got %+v", pe)
	}

	if !utils.IsNotFoundError(utils.ErrorRecordNotFound) {
		t.Fatalf("record-not-found sentinel should map to not-found")
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := utils.NewNotFoundError("stock entry")
	if err.Error() != "stock entry not found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
