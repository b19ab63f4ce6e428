package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/autoparts_backend/models"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
)

func TestPopulateStockRow(t *testing.T) {
	row, err := models.PopulateStockRow(2, []string{"Brake Shoe", "06430-KWB-601", "HONDA", "6500", "20", "SET"})
	if err != nil {
		t.Fatalf("PopulateStockRow: %v", err)
	}
	if row.RowNumber != 2 {
		t.Fatalf("row number = %d", row.RowNumber)
	}
	if row.ProductName != "Brake Shoe" || row.PartNo != "06430-KWB-601" || row.CompanyName != "HONDA" || row.Unit != "SET" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !row.Rate.Equal(dec("6500")) || row.Quantity != 20 {
		t.Fatalf("rate/qty: %s / %d", row.Rate, row.Quantity)
	}
}

func TestPopulateStockRowIntegralDecimalQty(t *testing.T) {
	// spreadsheets frequently render quantities as "20.0"
	row, err := models.PopulateStockRow(3, []string{"Air Filter", "17210-KYZ-900", "HONDA", "4200.50", "20.0", "PCS"})
	if err != nil {
		t.Fatalf("PopulateStockRow: %v", err)
	}
	if row.Quantity != 20 {
		t.Fatalf("quantity = %d, want 20", row.Quantity)
	}
	if !row.Rate.Equal(dec("4200.50")) {
		t.Fatalf("rate = %s", row.Rate)
	}
}

func TestPopulateStockRowPadsShortRows(t *testing.T) {
	// excelize drops trailing empty cells; Unit may be absent entirely
	row, err := models.PopulateStockRow(4, []string{"Drive Chain", "40530-KPH-901", "HONDA", "21000", "5"})
	if err != nil {
		t.Fatalf("PopulateStockRow: %v", err)
	}
	if row.Unit != "" {
		t.Fatalf("unit = %q, want empty", row.Unit)
	}
}

func TestPopulateStockRowRejectsBadCells(t *testing.T) {
	cases := []struct {
		name  string
		cells []string
	}{
		{"missing description", []string{"", "06430-KWB-601", "HONDA", "6500", "20", "SET"}},
		{"missing part no", []string{"Brake Shoe", "", "HONDA", "6500", "20", "SET"}},
		{"missing group", []string{"Brake Shoe", "06430-KWB-601", "", "6500", "20", "SET"}},
		{"non-numeric rate", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "cheap", "20", "SET"}},
		{"negative rate", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "-6500", "20", "SET"}},
		{"non-numeric qty", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "6500", "lots", "SET"}},
		{"fractional qty", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "6500", "2.5", "SET"}},
		{"negative qty", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "6500", "-2", "SET"}},
		{"zero qty", []string{"Brake Shoe", "06430-KWB-601", "HONDA", "6500", "0", "SET"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := models.PopulateStockRow(9, tc.cells)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !utils.IsParseError(err) {
				t.Fatalf("expected parse error, got %T: %v", err, err)
			}
			var pe *utils.ParseError
			if !errors.As(err, &pe) || pe.Row != 9 {
				t.Fatalf("expected row 9 in error, got %+v", pe)
			}
		})
	}
}
