package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegister(t *testing.T) {
	errs := ValidateRegister("a@example.com", "Alice", "Sup3rSecret")
	assert.False(t, errs.HasErrors())

	errs = ValidateRegister("not-an-email", "", "short")
	assert.True(t, errs.HasErrors())
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "password")
}

func TestValidatePasswordComposition(t *testing.T) {
	errs := ValidateRegister("a@example.com", "Alice", "alllowercase")
	assert.Contains(t, errs, "password")

	errs = ValidateRegister("a@example.com", "Alice", "NoDigitsHere")
	assert.Contains(t, errs, "password")
}

func TestValidateBoard(t *testing.T) {
	assert.False(t, ValidateBoard("Sprint 1", "").HasErrors())
	assert.False(t, ValidateBoard("Sprint 1", "private").HasErrors())

	errs := ValidateBoard("", "invisible")
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "visibility")
}

func TestValidateCardAndComment(t *testing.T) {
	assert.True(t, ValidateCard("  ").HasErrors())
	assert.False(t, ValidateCard("Fix login bug").HasErrors())

	assert.True(t, ValidateComment("").HasErrors())
	assert.False(t, ValidateComment("looks good").HasErrors())
}
