package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
)

type Supplier struct {
	ID           int       `gorm:"primary_key" json:"id"`
	SupplierName string    `gorm:"size:255;not null" json:"supplier_name" binding:"required"`
	Phone        string    `gorm:"size:20" json:"phone"`
	Email        string    `gorm:"size:100" json:"email"`
	Address      string    `gorm:"size:255" json:"address"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	SupplierName string `json:"supplier_name" binding:"required"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}

func (input *NewSupplier) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Supplier](ctx, "supplier_name", input.SupplierName, id); err != nil {
		return utils.NewValidationError(err.Error())
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("invalid phone number")
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		SupplierName: input.SupplierName,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("supplier")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&supplier).
		Updates(map[string]interface{}{
			"SupplierName": input.SupplierName,
			"Phone":        input.Phone,
			"Email":        input.Email,
			"Address":      input.Address,
		}).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("supplier")
	}
	return supplier, nil
}

func GetSupplierAll(ctx context.Context, name *string) ([]*Supplier, error) {
	db := config.GetDB()
	var results []*Supplier

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("supplier_name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("supplier_name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
