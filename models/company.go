package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
)

type Company struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CompanyName string    `gorm:"size:255;not null;uniqueIndex" json:"company_name" binding:"required"`
	Address     string    `gorm:"size:255" json:"address"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Email       string    `gorm:"size:100" json:"email"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	CompanyName string `json:"company_name" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (input *NewCompany) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Company](ctx, "company_name", input.CompanyName, id); err != nil {
		return utils.NewValidationError(err.Error())
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email")
	}
	return nil
}

// the directory changes rarely, so the unfiltered list is cached in redis
const companyListCacheKey = "companies_all"

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	company := Company{
		CompanyName: input.CompanyName,
		Address:     input.Address,
		Phone:       input.Phone,
		Email:       input.Email,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	_ = config.RemoveRedisKey(companyListCacheKey)
	return &company, nil
}

func GetCompany(ctx context.Context, id int) (*Company, error) {
	company, err := utils.FetchModel[Company](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("company")
	}
	return company, nil
}

func GetCompanyAll(ctx context.Context, name *string) ([]*Company, error) {
	db := config.GetDB()
	var results []*Company

	filtered := name != nil && len(*name) > 0
	if !filtered {
		if found, err := config.GetRedisObject(companyListCacheKey, &results); err == nil && found {
			return results, nil
		}
	}

	dbCtx := db.WithContext(ctx)
	if filtered {
		dbCtx = dbCtx.Where("company_name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("company_name").Find(&results).Error; err != nil {
		return nil, err
	}
	if !filtered {
		_ = config.SetRedisObject(companyListCacheKey, results, 10*time.Minute)
	}
	return results, nil
}
