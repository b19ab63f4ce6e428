package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
)

// Order is a customer order header. Order numbers restart daily:
// ORD-YYYYMMDD-NNN.
type Order struct {
	ID          int         `gorm:"primary_key" json:"id"`
	OrderNo     string      `gorm:"size:30;uniqueIndex" json:"order_no"`
	SequenceNo  int64       `gorm:"index" json:"sequence_no"`
	SequenceDay string      `gorm:"size:8;index" json:"sequence_day"`
	OrderDate   time.Time   `gorm:"type:date;not null" json:"order_date"`
	CompanyId   *int        `gorm:"index" json:"company_id"`
	Company     *Company    `gorm:"foreignKey:CompanyId" json:"company,omitempty"`
	Items       []OrderItem `gorm:"foreignKey:OrderId" json:"items"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

type OrderItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	OrderId    int             `gorm:"index;not null" json:"order_id"`
	ProductId  *int            `gorm:"index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	OrderPrice decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"order_price"`
}

type NewOrder struct {
	OrderDate time.Time      `json:"order_date" binding:"required"`
	CompanyId *int           `json:"company_id"`
	Items     []NewOrderItem `json:"items" binding:"required"`
}

type NewOrderItem struct {
	ProductId  *int            `json:"product_id"`
	Quantity   int             `json:"quantity" binding:"required"`
	OrderPrice decimal.Decimal `json:"order_price"`
}

// FormatOrderNo renders the daily order number for a day key (YYYYMMDD).
func FormatOrderNo(day string, seqNo int64) string {
	return fmt.Sprintf("ORD-%s-%03d", day, seqNo)
}

func (input *NewOrder) validate(ctx context.Context) error {
	if len(input.Items) == 0 {
		return utils.NewValidationError("order requires at least one item")
	}
	if input.CompanyId != nil {
		if err := utils.ValidateResourceId[Company](ctx, *input.CompanyId); err != nil {
			return utils.NewNotFoundError("company")
		}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return utils.NewValidationError("quantity must be a positive integer")
		}
		if item.OrderPrice.IsNegative() {
			return utils.NewValidationError("order_price cannot be negative")
		}
		if item.ProductId != nil {
			if err := utils.ValidateResourceId[Product](ctx, *item.ProductId); err != nil {
				return utils.NewNotFoundError("product")
			}
		}
	}
	return nil
}

func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	day := input.OrderDate.Format("20060102")
	seqNo, err := utils.GetDailySequence[Order](ctx, day)
	if err != nil {
		return nil, err
	}

	order := Order{
		OrderNo:     FormatOrderNo(day, seqNo),
		SequenceNo:  seqNo,
		SequenceDay: day,
		OrderDate:   input.OrderDate,
		CompanyId:   input.CompanyId,
	}
	for _, item := range input.Items {
		order.Items = append(order.Items, OrderItem{
			ProductId:  item.ProductId,
			Quantity:   item.Quantity,
			OrderPrice: item.OrderPrice.Round(2),
		})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	order, err := utils.FetchModel[Order](ctx, id, "Company", "Items", "Items.Product")
	if err != nil {
		return nil, utils.NewNotFoundError("order")
	}
	return order, nil
}

func GetOrderAll(ctx context.Context, companyId int, day string) ([]*Order, error) {
	db := config.GetDB()
	var results []*Order

	dbCtx := db.WithContext(ctx).Preload("Company").Preload("Items").Preload("Items.Product")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if day != "" {
		dbCtx = dbCtx.Where("sequence_day = ?", day)
	}
	if err := dbCtx.Order("order_date DESC, sequence_no DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
