package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupplierPurchaseReturn records units sent back to the supplier against one
// invoice line. The cumulative returned quantity on the line can never exceed
// its purchased quantity.
type SupplierPurchaseReturn struct {
	ID                int              `gorm:"primary_key" json:"id"`
	PurchaseProductId int              `gorm:"index;not null" json:"purchase_product_id"`
	PurchaseProduct   *PurchaseProduct `gorm:"foreignKey:PurchaseProductId" json:"purchase_product,omitempty"`
	Quantity          int              `gorm:"not null" json:"quantity"`
	ReturnDate        time.Time        `gorm:"autoCreateTime" json:"return_date"`
}

type NewSupplierPurchaseReturn struct {
	PurchaseProductId int `json:"purchase_product_id" binding:"required"`
	Quantity          int `json:"quantity" binding:"required"`
}

// CreateSupplierPurchaseReturn posts a return against an invoice line: the
// return record, the line's returned_quantity bump and the stock ledger
// decrement happen in one transaction. Purchase history on the ledger is not
// reversed, only on-hand quantity goes down.
func CreateSupplierPurchaseReturn(ctx context.Context, input *NewSupplierPurchaseReturn) (*SupplierPurchaseReturn, error) {
	if input.Quantity <= 0 {
		return nil, utils.NewValidationError("return quantity must be a positive integer")
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

	// lock the line so concurrent returns serialize on the cap check
	var line PurchaseProduct
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&line, input.PurchaseProductId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("purchase line")
		}
		return nil, err
	}

	if line.ReturnedQuantity+input.Quantity > line.PurchaseQuantity {
		return nil, utils.NewValidationError("return quantity exceeds remaining purchased quantity")
	}

	var purchase SupplierPurchase
	if err := tx.WithContext(ctx).First(&purchase, line.PurchaseId).Error; err != nil {
		return nil, err
	}

	purchaseReturn := SupplierPurchaseReturn{
		PurchaseProductId: line.ID,
		Quantity:          input.Quantity,
	}
	if err := tx.WithContext(ctx).Create(&purchaseReturn).Error; err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).Exec(
		"UPDATE purchase_products SET returned_quantity = returned_quantity + ? WHERE id = ?",
		input.Quantity, line.ID).Error; err != nil {
		return nil, err
	}

	if err := ApplyStockReturn(tx, ctx, purchase.CompanyName, line.PartNo, line.ProductId, input.Quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).
		Preload("PurchaseProduct").
		First(&purchaseReturn, purchaseReturn.ID).Error; err != nil {
		return nil, err
	}
	return &purchaseReturn, nil
}

func GetSupplierPurchaseReturnAll(ctx context.Context, invoiceNo *string) ([]*SupplierPurchaseReturn, error) {
	db := config.GetDB()
	var results []*SupplierPurchaseReturn

	dbCtx := db.WithContext(ctx).Preload("PurchaseProduct")
	if invoiceNo != nil && len(*invoiceNo) > 0 {
		dbCtx = dbCtx.
			Joins("JOIN purchase_products ON purchase_products.id = supplier_purchase_returns.purchase_product_id").
			Joins("JOIN supplier_purchases ON supplier_purchases.id = purchase_products.purchase_id").
			Where("supplier_purchases.invoice_no = ?", *invoiceNo)
	}
	if err := dbCtx.Order("return_date DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
