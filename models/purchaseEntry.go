package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Purchase is the lightweight purchase journal used by simple entry and the
// excel import. Unlike SupplierPurchase it has no supplier, discount or
// payments; it only records what arrived and when. It never writes the stock
// ledger itself, callers post ledger movements separately.
type Purchase struct {
	ID           int            `gorm:"primary_key" json:"id"`
	SequenceNo   int64          `gorm:"index" json:"sequence_no"`
	InvoiceNo    string         `gorm:"size:100;index" json:"invoice_no"`
	PurchaseDate time.Time      `gorm:"type:date;not null" json:"purchase_date"`
	ExporterName string         `gorm:"size:255" json:"exporter_name"`
	CompanyName  string         `gorm:"size:255;not null" json:"company_name"`
	Items        []PurchaseItem `gorm:"foreignKey:PurchaseId" json:"items"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

type PurchaseItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	PurchaseId    int             `gorm:"index;not null" json:"purchase_id"`
	ProductId     int             `gorm:"index;not null" json:"product_id"`
	Product       *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_price"`
}

type NewPurchaseEntry struct {
	CompanyId     int             `json:"company_id" binding:"required"`
	PartNo        string          `json:"part_no" binding:"required"`
	Quantity      int             `json:"quantity" binding:"required"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	InvoiceNo     string          `json:"invoice_no"`
	PurchaseDate  time.Time       `json:"purchase_date" binding:"required"`
	ExporterName  string          `json:"exporter_name"`
}

// createPurchaseEntryTx appends one item to the journal entry identified by
// (invoice_no, purchase_date), creating the header when it does not exist
// yet. Runs on the caller's transaction so the excel import can batch many
// rows under one invoice atomically. sequenceNo records which sequence value
// backs an auto-assigned invoice number (0 for caller-supplied numbers); the
// sequence reseed reads max(sequence_no), so it must land on the header.
func createPurchaseEntryTx(tx *gorm.DB, ctx context.Context, companyName string, product *Product, quantity int, purchasePrice decimal.Decimal, invoiceNo string, sequenceNo int64, purchaseDate time.Time, exporterName string) (*Purchase, error) {
	if quantity <= 0 {
		return nil, utils.NewValidationError("quantity must be a positive integer")
	}
	if purchasePrice.IsNegative() {
		return nil, utils.NewValidationError("purchase_price cannot be negative")
	}

	purchase := Purchase{
		InvoiceNo:    invoiceNo,
		SequenceNo:   sequenceNo,
		PurchaseDate: purchaseDate,
		CompanyName:  companyName,
		ExporterName: exporterName,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invoice_no = ? AND purchase_date = ?", invoiceNo, purchaseDate).
		FirstOrCreate(&purchase).Error
	if err != nil {
		return nil, err
	}

	item := PurchaseItem{
		PurchaseId:    purchase.ID,
		ProductId:     product.ID,
		Quantity:      quantity,
		PurchasePrice: purchasePrice.Round(2),
		TotalPrice:    purchasePrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	}
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	purchase.Items = append(purchase.Items, item)
	return &purchase, nil
}

// CreatePurchaseEntry records one purchased line against a company, updating
// the stock ledger in the same transaction. An invoice number is assigned
// from the purchase sequence when the caller leaves it blank.
func CreatePurchaseEntry(ctx context.Context, input *NewPurchaseEntry) (*Purchase, error) {
	company, err := GetCompany(ctx, input.CompanyId)
	if err != nil {
		return nil, err
	}
	product, err := GetProductByPartNo(ctx, input.PartNo)
	if err != nil {
		return nil, err
	}

	invoiceNo := input.InvoiceNo
	var sequenceNo int64
	if invoiceNo == "" {
		seqNo, err := utils.GetSequence[Purchase](ctx)
		if err != nil {
			return nil, err
		}
		sequenceNo = seqNo
		invoiceNo = FormatPurchaseInvoiceNo(seqNo)
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	purchase, err := createPurchaseEntryTx(tx, ctx, company.CompanyName, product, input.Quantity, input.PurchasePrice, invoiceNo, sequenceNo, input.PurchaseDate, input.ExporterName)
	if err != nil {
		return nil, err
	}

	if _, err := ApplyStockPurchase(tx, ctx, product, company.CompanyName, input.Quantity, input.PurchasePrice); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	purchase, err := utils.FetchModel[Purchase](ctx, id, "Items", "Items.Product")
	if err != nil {
		return nil, utils.NewNotFoundError("purchase")
	}
	return purchase, nil
}

func GetPurchaseAll(ctx context.Context, companyName string, invoiceNo string) ([]*Purchase, error) {
	db := config.GetDB()
	var results []*Purchase

	dbCtx := db.WithContext(ctx).Preload("Items").Preload("Items.Product")
	if companyName != "" {
		dbCtx = dbCtx.Where("company_name = ?", companyName)
	}
	if invoiceNo != "" {
		dbCtx = dbCtx.Where("invoice_no = ?", invoiceNo)
	}
	if err := dbCtx.Order("purchase_date DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
