package models

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// expected column order of the stock upload sheet
var stockSheetHeaders = []string{"Description", "Part_no", "Group", "Rate", "Qty", "Unit"}

// StockExcelRow is one sheet row after type coercion. CompanyName carries the
// row's Group column, which names the manufacturer the part's stock is
// ledgered under (not the importing company).
type StockExcelRow struct {
	RowNumber   int
	ProductName string
	PartNo      string
	CompanyName string
	Rate        decimal.Decimal
	Quantity    int
	Unit        string
}

// StockImportItem is the per-row summary returned to the uploader.
type StockImportItem struct {
	Product       string          `json:"product"`
	PartNo        string          `json:"part_no"`
	AddedQuantity int             `json:"added_quantity"`
	UpdatedMrp    decimal.Decimal `json:"updated_mrp"`
}

type StockImportResult struct {
	InvoiceNo    string            `json:"invoice_no"`
	FileName     string            `json:"file_name"`
	RowsImported int               `json:"rows_imported"`
	Items        []StockImportItem `json:"items"`
}

// PopulateStockRow coerces one raw sheet row into typed fields. rowNumber is
// the 1-based sheet position used in error messages (data starts at row 2).
func PopulateStockRow(rowNumber int, cells []string) (*StockExcelRow, error) {
	// excelize drops trailing empty cells, pad to header width
	for len(cells) < len(stockSheetHeaders) {
		cells = append(cells, "")
	}

	row := StockExcelRow{
		RowNumber:   rowNumber,
		ProductName: strings.TrimSpace(cells[0]),
		PartNo:      strings.TrimSpace(cells[1]),
		CompanyName: strings.TrimSpace(cells[2]),
		Unit:        strings.TrimSpace(cells[5]),
	}

	if row.ProductName == "" {
		return nil, utils.NewParseError(rowNumber, "Description is required")
	}
	if row.PartNo == "" {
		return nil, utils.NewParseError(rowNumber, "Part_no is required")
	}
	if row.CompanyName == "" {
		return nil, utils.NewParseError(rowNumber, "Group is required")
	}

	rate, err := utils.ParseDecimal(cells[3])
	if err != nil {
		return nil, utils.NewParseError(rowNumber, "invalid Rate "+fmt.Sprintf("%q", cells[3]))
	}
	if rate.IsNegative() {
		return nil, utils.NewParseError(rowNumber, "Rate cannot be negative")
	}
	row.Rate = rate.Round(2)

	quantity, err := utils.ParseQuantity(cells[4])
	if err != nil {
		return nil, utils.NewParseError(rowNumber, "invalid Qty "+fmt.Sprintf("%q", cells[4]))
	}
	if quantity <= 0 {
		return nil, utils.NewParseError(rowNumber, "Qty must be a positive integer")
	}
	row.Quantity = quantity

	return &row, nil
}

func validateStockSheetHeader(header []string) error {
	if len(header) < len(stockSheetHeaders) {
		return utils.NewParseError(1, "header row is missing columns, expected "+strings.Join(stockSheetHeaders, ", "))
	}
	for i, want := range stockSheetHeaders {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return utils.NewParseError(1, fmt.Sprintf("unexpected column %q, expected %q", strings.TrimSpace(header[i]), want))
		}
	}
	return nil
}

// ImportStockFromXlsx ingests a stock upload workbook: every data row is
// parsed and validated up front, then products are upserted, the stock ledger
// is posted and a purchase journal entry is written, all under a single
// transaction. One bad row fails the whole sheet.
//
// Ledger rows are keyed by each row's Group (the part's manufacturer); the
// purchase journal is filed under the importing company.
func ImportStockFromXlsx(ctx context.Context, reader io.Reader, fileName string, companyId int, exporterName string, invoiceNo string, purchaseDate time.Time) (*StockImportResult, error) {
	company, err := GetCompany(ctx, companyId)
	if err != nil {
		return nil, err
	}

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, utils.NewParseError(0, "cannot open workbook: "+err.Error())
	}
	defer workbook.Close()

	sheetName := workbook.GetSheetName(0)
	rawRows, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, utils.NewParseError(0, "cannot read sheet "+sheetName+": "+err.Error())
	}
	if len(rawRows) < 2 {
		return nil, utils.NewValidationError("sheet has no data rows")
	}
	if err := validateStockSheetHeader(rawRows[0]); err != nil {
		return nil, err
	}

	// coerce everything before touching the database
	rows := make([]*StockExcelRow, 0, len(rawRows)-1)
	for i, cells := range rawRows[1:] {
		row, err := PopulateStockRow(i+2, cells)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	var sequenceNo int64
	if invoiceNo == "" || strings.EqualFold(invoiceNo, "AUTO_GENERATE") {
		seqNo, err := utils.GetSequence[Purchase](ctx)
		if err != nil {
			return nil, err
		}
		sequenceNo = seqNo
		invoiceNo = FormatPurchaseInvoiceNo(seqNo)
	}

	release, err := utils.CompanyLock(ctx, companyId, "stock_import", "models", "ImportStockFromXlsx")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	items := make([]StockImportItem, 0, len(rows))
	for _, row := range rows {
		product, _, err := UpsertProductForImport(tx, ctx, row)
		if err != nil {
			return nil, err
		}

		if _, err := ApplyStockPurchase(tx, ctx, product, row.CompanyName, row.Quantity, row.Rate); err != nil {
			return nil, err
		}

		if _, err := createPurchaseEntryTx(tx, ctx, company.CompanyName, product, row.Quantity, row.Rate, invoiceNo, sequenceNo, purchaseDate, exporterName); err != nil {
			return nil, err
		}

		items = append(items, StockImportItem{
			Product:       product.ProductName,
			PartNo:        product.PartNo,
			AddedQuantity: row.Quantity,
			UpdatedMrp:    product.ProductMrp,
		})
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	config.GetLogger().WithField("invoice_no", invoiceNo).
		WithField("file_name", fileName).
		WithField("rows", len(items)).
		Info("stock import committed")

	return &StockImportResult{
		InvoiceNo:    invoiceNo,
		FileName:     fileName,
		RowsImported: len(items),
		Items:        items,
	}, nil
}
