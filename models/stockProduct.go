package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockProduct is the running-balance ledger row for one part within one
// company. Purchases add to quantity and cost value; returns and damage only
// reduce the on-hand quantity (purchase history and cost basis stay
// untouched, a deliberate asymmetry). On-hand decrements clamp at zero.
type StockProduct struct {
	ID          int      `gorm:"primary_key" json:"id"`
	CompanyName string   `gorm:"size:255;not null;uniqueIndex:idx_stock_company_part" json:"company_name"`
	PartNo      string   `gorm:"size:100;not null;uniqueIndex:idx_stock_company_part" json:"part_no"`
	ProductId   int      `gorm:"index;not null" json:"product_id"`
	Product     *Product `gorm:"foreignKey:ProductId" json:"product,omitempty"`

	PurchaseQuantity     int `gorm:"not null;default:0" json:"purchase_quantity"`
	SaleQuantity         int `gorm:"not null;default:0" json:"sale_quantity"`
	DamageQuantity       int `gorm:"not null;default:0" json:"damage_quantity"`
	CurrentStockQuantity int `gorm:"not null;default:0" json:"current_stock_quantity"`

	PurchasePrice     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"purchase_price"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"sale_price"`
	CurrentStockValue decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"current_stock_value"`

	NetWeight *decimal.Decimal `gorm:"type:decimal(8,2)" json:"net_weight"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// bounded retry for the get-or-create race on the (company_name, part_no)
// unique index
const stockWriteRetries = 3

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// lockOrCreateStockProduct returns the ledger row for (companyName, partNo),
// creating a zero-quantity row when none exists, locked FOR UPDATE for the
// rest of the transaction. Two concurrent creators race on the unique index;
// the loser re-reads the winner's row instead of failing.
func lockOrCreateStockProduct(tx *gorm.DB, ctx context.Context, companyName string, partNo string, productId int, initialPrice decimal.Decimal) (*StockProduct, bool, error) {
	var lastErr error
	for attempt := 0; attempt < stockWriteRetries; attempt++ {
		stock := StockProduct{
			CompanyName: companyName,
			PartNo:      partNo,
			ProductId:   productId,
		}
		result := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_name = ? AND part_no = ?", companyName, partNo).
			Attrs(StockProduct{PurchasePrice: initialPrice, SalePrice: initialPrice}).
			FirstOrCreate(&stock)
		if result.Error == nil {
			return &stock, result.RowsAffected == 1, nil
		}
		if !isDuplicateKeyErr(result.Error) {
			return nil, false, result.Error
		}
		lastErr = result.Error
	}
	return nil, false, utils.NewConflictError("concurrent stock update for part " + partNo + ": " + lastErr.Error())
}

// ApplyStockPurchase posts a purchase of quantity units at unitPrice against
// the (companyName, part) ledger row, creating the row on first purchase.
// Last purchase price is overwritten, not averaged; stock value grows by
// quantity x unitPrice. Runs on the caller's transaction.
func ApplyStockPurchase(tx *gorm.DB, ctx context.Context, product *Product, companyName string, quantity int, unitPrice decimal.Decimal) (*StockProduct, error) {
	if quantity <= 0 {
		return nil, utils.NewValidationError("purchase quantity must be a positive integer")
	}
	if unitPrice.IsNegative() {
		return nil, utils.NewValidationError("purchase price cannot be negative")
	}

	stock, _, err := lockOrCreateStockProduct(tx, ctx, companyName, product.PartNo, product.ID, unitPrice.Round(2))
	if err != nil {
		return nil, err
	}

	addedValue := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if err := tx.WithContext(ctx).Exec(
		"UPDATE stock_products SET purchase_quantity = purchase_quantity + ?, current_stock_quantity = current_stock_quantity + ?, purchase_price = ?, current_stock_value = current_stock_value + ? WHERE id = ?",
		quantity, quantity, unitPrice.Round(2), addedValue, stock.ID).Error; err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).First(stock, stock.ID).Error; err != nil {
		return nil, err
	}
	return stock, nil
}

// ApplyStockReturn reduces on-hand quantity for a purchase return, clamped at
// zero. A return against a part with no ledger row is absorbed silently
// (there is nothing to reverse); cumulative purchase quantity and stock value
// are left untouched so purchase history stays immutable.
func ApplyStockReturn(tx *gorm.DB, ctx context.Context, companyName string, partNo string, productId int, quantity int) error {
	if quantity <= 0 {
		return utils.NewValidationError("return quantity must be a positive integer")
	}

	var stock StockProduct
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_name = ? AND part_no = ? AND product_id = ?", companyName, partNo, productId).
		First(&stock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return tx.WithContext(ctx).Exec(
		"UPDATE stock_products SET current_stock_quantity = GREATEST(current_stock_quantity - ?, 0) WHERE id = ?",
		quantity, stock.ID).Error
}

// ApplyStockDamage moves quantity units from on-hand into damaged stock.
// On-hand clamps at zero; damaged accumulates the full amount.
func ApplyStockDamage(tx *gorm.DB, ctx context.Context, stock *StockProduct, quantity int) error {
	if quantity <= 0 {
		return utils.NewValidationError("damage quantity must be a positive integer")
	}

	return tx.WithContext(ctx).Exec(
		"UPDATE stock_products SET current_stock_quantity = GREATEST(current_stock_quantity - ?, 0), damage_quantity = damage_quantity + ? WHERE id = ?",
		quantity, quantity, stock.ID).Error
}

// SetDamageQuantity adds damageQuantity to the entry's cumulative damaged
// stock. Despite the name this is additive, not absolute: each call moves
// another damageQuantity units out of on-hand. Kept for compatibility with
// the existing client; flagged for product clarification.
func SetDamageQuantity(ctx context.Context, stockId int, damageQuantity int) (*StockProduct, error) {
	if damageQuantity < 0 {
		return nil, utils.NewValidationError("damage_quantity cannot be negative")
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

	var stock StockProduct
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stock, stockId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("stock entry")
		}
		return nil, err
	}

	if damageQuantity > 0 {
		if err := ApplyStockDamage(tx, ctx, &stock, damageQuantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Preload("Product").First(&stock, stockId).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func GetStockProduct(ctx context.Context, id int) (*StockProduct, error) {
	stock, err := utils.FetchModel[StockProduct](ctx, id, "Product")
	if err != nil {
		return nil, utils.NewNotFoundError("stock entry")
	}
	return stock, nil
}

func GetStockProductAll(ctx context.Context, companyName string, partNo string) ([]*StockProduct, error) {
	db := config.GetDB()
	var results []*StockProduct

	dbCtx := db.WithContext(ctx).Preload("Product")
	if companyName != "" {
		dbCtx = dbCtx.Where("company_name = ?", companyName)
	}
	if partNo != "" {
		dbCtx = dbCtx.Where("part_no = ?", partNo)
	}
	if err := dbCtx.Order("part_no").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
