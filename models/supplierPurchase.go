package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
)

// SupplierPurchase is one supplier invoice: a header plus its purchase lines
// and any payments. Immutable after creation except for returns adjusting
// line-level returned quantities.
type SupplierPurchase struct {
	ID                 int                `gorm:"primary_key" json:"id"`
	SequenceNo         int64              `gorm:"index" json:"sequence_no"`
	SupplierId         int                `gorm:"index;not null" json:"supplier_id" binding:"required"`
	Supplier           *Supplier          `gorm:"foreignKey:SupplierId" json:"supplier,omitempty"`
	CompanyName        string             `gorm:"size:255;not null" json:"company_name"`
	PurchaseDate       time.Time          `gorm:"type:date;not null" json:"purchase_date"`
	InvoiceNo          string             `gorm:"size:100;uniqueIndex" json:"invoice_no"`
	TotalAmount        decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"total_amount"`
	DiscountAmount     decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"discount_amount"`
	TotalPayableAmount decimal.Decimal    `gorm:"type:decimal(12,2);default:0" json:"total_payable_amount"`
	Products           []PurchaseProduct  `gorm:"foreignKey:PurchaseId" json:"products"`
	Payments           []PurchasePayment  `gorm:"foreignKey:PurchaseId" json:"payments"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

type PurchaseProduct struct {
	ID                          int             `gorm:"primary_key" json:"id"`
	PurchaseId                  int             `gorm:"index;not null" json:"purchase_id"`
	ProductId                   int             `gorm:"index;not null" json:"product_id"`
	Product                     *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	PartNo                      string          `gorm:"size:100;not null" json:"part_no"`
	PurchaseQuantity            int             `gorm:"not null" json:"purchase_quantity"`
	PurchasePrice               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
	Percentage                  decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"percentage"`
	PurchasePriceWithPercentage decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"purchase_price_with_percentage"`
	TotalPrice                  decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_price"`
	ReturnedQuantity            int             `gorm:"not null;default:0" json:"returned_quantity"`
}

type PurchasePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PurchaseId  int             `gorm:"index;not null" json:"purchase_id"`
	PaymentMode string          `gorm:"size:100;not null" json:"payment_mode"`
	BankName    string          `gorm:"size:255" json:"bank_name"`
	AccountNo   string          `gorm:"size:100" json:"account_no"`
	ChequeNo    string          `gorm:"size:100" json:"cheque_no"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
}

// TotalReturnedQuantity sums returned units over the invoice's loaded lines.
func (p *SupplierPurchase) TotalReturnedQuantity() int {
	total := 0
	for _, line := range p.Products {
		total += line.ReturnedQuantity
	}
	return total
}

// TotalReturnedValue sums returned units x purchase price over the invoice's
// loaded lines.
func (p *SupplierPurchase) TotalReturnedValue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Products {
		total = total.Add(line.PurchasePrice.Mul(decimal.NewFromInt(int64(line.ReturnedQuantity))))
	}
	return total.Round(2)
}

type NewSupplierPurchase struct {
	SupplierId     int                  `json:"supplier_id" binding:"required"`
	CompanyName    string               `json:"company_name" binding:"required"`
	PurchaseDate   time.Time            `json:"purchase_date" binding:"required"`
	InvoiceNo      string               `json:"invoice_no"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Products       []NewPurchaseProduct `json:"products" binding:"required"`
	Payments       []NewPurchasePayment `json:"payments"`
}

type NewPurchaseProduct struct {
	ProductId        int             `json:"product_id" binding:"required"`
	PartNo           string          `json:"part_no"`
	PurchaseQuantity int             `json:"purchase_quantity" binding:"required"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	Percentage       decimal.Decimal `json:"percentage"`
}

type NewPurchasePayment struct {
	PaymentMode string          `json:"payment_mode" binding:"required"`
	BankName    string          `json:"bank_name"`
	AccountNo   string          `json:"account_no"`
	ChequeNo    string          `json:"cheque_no"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
}

// PriceWithPercentage applies the line's markup to its unit purchase price,
// rounded to 2dp: price x (1 + percentage/100).
func PriceWithPercentage(price decimal.Decimal, percentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(percentage.Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}

// FormatPurchaseInvoiceNo renders an auto-assigned invoice number:
// PU + 8-digit zero-padded sequence.
func FormatPurchaseInvoiceNo(seqNo int64) string {
	return fmt.Sprintf("PU%08d", seqNo)
}

func (input *NewSupplierPurchase) validate(ctx context.Context) error {
	if len(input.Products) == 0 {
		return utils.NewValidationError("purchase requires at least one product line")
	}
	if input.DiscountAmount.IsNegative() {
		return utils.NewValidationError("discount_amount cannot be negative")
	}
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return utils.NewNotFoundError("supplier")
	}
	for _, line := range input.Products {
		if line.PurchaseQuantity <= 0 {
			return utils.NewValidationError("purchase_quantity must be a positive integer")
		}
		if line.PurchasePrice.IsNegative() {
			return utils.NewValidationError("purchase_price cannot be negative")
		}
		if line.Percentage.IsNegative() {
			return utils.NewValidationError("percentage cannot be negative")
		}
		if err := utils.ValidateResourceId[Product](ctx, line.ProductId); err != nil {
			return utils.NewNotFoundError("product")
		}
	}
	if input.InvoiceNo != "" {
		if err := utils.ValidateUnique[SupplierPurchase](ctx, "invoice_no", input.InvoiceNo, 0); err != nil {
			return utils.NewValidationError(err.Error())
		}
	}
	for _, payment := range input.Payments {
		if payment.PaidAmount.IsNegative() {
			return utils.NewValidationError("paid_amount cannot be negative")
		}
	}
	return nil
}

// CreateSupplierPurchase persists one supplier invoice with its lines and
// payments and posts each line to the stock ledger, all in one transaction.
// The invoice number comes from a dedicated sequence when the caller did not
// supply one.
func CreateSupplierPurchase(ctx context.Context, input *NewSupplierPurchase) (*SupplierPurchase, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()

	totalAmount := decimal.Zero
	lines := make([]PurchaseProduct, 0, len(input.Products))
	lineProducts := make([]*Product, 0, len(input.Products))
	for _, item := range input.Products {
		product, err := utils.FetchModel[Product](ctx, item.ProductId)
		if err != nil {
			return nil, utils.NewNotFoundError("product")
		}
		// part_no always comes from the catalog row; a caller-supplied value
		// is only accepted as a cross-check
		if item.PartNo != "" && item.PartNo != product.PartNo {
			return nil, utils.NewValidationError("part_no " + item.PartNo + " does not match product " + product.PartNo)
		}
		lineProducts = append(lineProducts, product)

		priceWithPct := PriceWithPercentage(item.PurchasePrice, item.Percentage)
		totalPrice := priceWithPct.Mul(decimal.NewFromInt(int64(item.PurchaseQuantity))).Round(2)
		totalAmount = totalAmount.Add(totalPrice)

		lines = append(lines, PurchaseProduct{
			ProductId:                   item.ProductId,
			PartNo:                      product.PartNo,
			PurchaseQuantity:            item.PurchaseQuantity,
			PurchasePrice:               item.PurchasePrice.Round(2),
			Percentage:                  item.Percentage,
			PurchasePriceWithPercentage: priceWithPct,
			TotalPrice:                  totalPrice,
		})
	}

	payments := make([]PurchasePayment, 0, len(input.Payments))
	for _, payment := range input.Payments {
		payments = append(payments, PurchasePayment{
			PaymentMode: payment.PaymentMode,
			BankName:    payment.BankName,
			AccountNo:   payment.AccountNo,
			ChequeNo:    payment.ChequeNo,
			PaidAmount:  payment.PaidAmount.Round(2),
		})
	}

	purchase := SupplierPurchase{
		SupplierId:         input.SupplierId,
		CompanyName:        input.CompanyName,
		PurchaseDate:       input.PurchaseDate,
		InvoiceNo:          input.InvoiceNo,
		TotalAmount:        totalAmount.Round(2),
		DiscountAmount:     input.DiscountAmount.Round(2),
		TotalPayableAmount: totalAmount.Sub(input.DiscountAmount).Round(2),
		Products:           lines,
		Payments:           payments,
	}

	tx := db.Begin()
	// always rollback on early-return or panic to avoid leaking row locks
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	seqNo, err := utils.GetSequence[SupplierPurchase](ctx)
	if err != nil {
		return nil, err
	}
	purchase.SequenceNo = seqNo
	if purchase.InvoiceNo == "" {
		purchase.InvoiceNo = FormatPurchaseInvoiceNo(seqNo)
	}

	if err := tx.WithContext(ctx).Create(&purchase).Error; err != nil {
		return nil, err
	}

	// post every line to the stock ledger at its raw purchase price (cost
	// basis, not the marked-up price)
	for i := range purchase.Products {
		line := &purchase.Products[i]
		if _, err := ApplyStockPurchase(tx, ctx, lineProducts[i], purchase.CompanyName, line.PurchaseQuantity, line.PurchasePrice); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).
		Preload("Supplier").Preload("Products").Preload("Payments").
		First(&purchase, purchase.ID).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func GetSupplierPurchase(ctx context.Context, id int) (*SupplierPurchase, error) {
	purchase, err := utils.FetchModel[SupplierPurchase](ctx, id, "Supplier", "Products", "Payments")
	if err != nil {
		return nil, utils.NewNotFoundError("purchase")
	}
	return purchase, nil
}

func GetSupplierPurchaseAll(ctx context.Context, supplierId int, companyName string, invoiceNo string) ([]*SupplierPurchase, error) {
	db := config.GetDB()
	var results []*SupplierPurchase

	dbCtx := db.WithContext(ctx).
		Preload("Supplier").Preload("Products").Preload("Payments")
	if supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", supplierId)
	}
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
