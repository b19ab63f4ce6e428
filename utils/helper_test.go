package utils_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/go-playground/validator/v10"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10", 10, false},
		{" 10 ", 10, false},
		{"0", 0, false},
		{"10.0", 10, false},
		{"10.00", 10, false},
		{"10.5", 0, true},
		{"-3", 0, true},
		{"-3.0", 0, true},
		{"ten", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := utils.ParseQuantity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseQuantity(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseQuantity(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	if _, err := utils.ParseDecimal(""); err == nil {
		t.Fatalf("empty string should fail")
	}
	if _, err := utils.ParseDecimal("12,50"); err == nil {
		t.Fatalf("comma decimal should fail")
	}
	dec, err := utils.ParseDecimal(" 1250.75 ")
	if err != nil {
		t.Fatalf("ParseDecimal: %v", err)
	}
	if dec.String() != "1250.75" {
		t.Fatalf("got %s", dec.String())
	}
}

func TestProcessValidationErrors(t *testing.T) {
	type form struct {
		SupplierName string `validate:"required"`
		Quantity     int    `validate:"min=1"`
	}
	err := validator.New().Struct(form{})
	if err == nil {
		t.Fatalf("expected validation failures")
	}
	fields := utils.ProcessValidationErrors(err)
	if fields["SupplierName"] != "required" {
		t.Fatalf("SupplierName tag = %q", fields["SupplierName"])
	}
	if fields["Quantity"] != "min" {
		t.Fatalf("Quantity tag = %q", fields["Quantity"])
	}
}

func TestIsValidEmail(t *testing.T) {
	if !utils.IsValidEmail("parts@example.com") {
		t.Fatalf("valid email rejected")
	}
	if utils.IsValidEmail("not-an-email") {
		t.Fatalf("invalid email accepted")
	}
}
