package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	InitValidators(validate, translator)
	return validate
}

func TestAlphaNumUnderValidation(t *testing.T) {
	validate := newTestValidator(t)

	type payload struct {
		Code string `json:"code" validate:"alphanum_"`
	}

	tests := []struct {
		code    string
		wantErr bool
	}{
		{"MATH5", false},
		{"eng_lit", false},
		{"T001", false},
		{"MATH 5", true},
		{"math-5", true},
		{"", true},
	}
	for _, tt := range tests {
		err := validate.Struct(payload{Code: tt.code})
		if gotErr := err != nil; gotErr != tt.wantErr {
			t.Errorf("validate(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  MATH5\t"); got != "MATH5" {
		t.Errorf("CleanString() = %q, want %q", got, "MATH5")
	}
	if got := CleanString("  JDoe ", true); got != "jdoe" {
		t.Errorf("CleanString(lower) = %q, want %q", got, "jdoe")
	}
}
