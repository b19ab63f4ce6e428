package models

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductCategory struct {
	ID           int       `gorm:"primary_key" json:"id"`
	CompanyId    int       `gorm:"index;not null" json:"company_id" binding:"required"`
	Company      *Company  `json:"company,omitempty"`
	CategoryName string    `gorm:"size:255;not null" json:"category_name" binding:"required"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type BikeModel struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId int       `gorm:"index;not null;uniqueIndex:idx_bike_model_company_name" json:"company_id" binding:"required"`
	Company   *Company  `json:"company,omitempty"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:idx_bike_model_company_name" json:"name" binding:"required"`
	ImageUrl  string    `gorm:"size:500" json:"image_url"`
	Slug      string    `gorm:"size:160;uniqueIndex" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Product is the part catalog entry. PartNo identifies a sellable part; the
// bulk import path upserts by part_no, so the column carries a unique index
// rather than relying on lookup-by-first-match.
type Product struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Company     string           `gorm:"size:100" json:"company"`
	CategoryId  *int             `gorm:"index" json:"category_id"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryId" json:"category,omitempty"`
	ProductName string           `gorm:"size:100;not null" json:"product_name" binding:"required"`
	PartNo      string           `gorm:"size:100;not null;uniqueIndex" json:"part_no" binding:"required"`
	ImageUrl    string           `gorm:"size:500" json:"image_url"`
	BrandName   string           `gorm:"size:100" json:"brand_name"`
	ModelNo     string           `gorm:"size:100" json:"model_no"`
	BikeModelId *int             `gorm:"index" json:"bike_model_id"`
	BikeModel   *BikeModel       `gorm:"foreignKey:BikeModelId" json:"bike_model,omitempty"`
	ProductMrp  decimal.Decimal  `gorm:"type:decimal(12,2);default:0" json:"product_mrp"`
	Unit        string           `gorm:"size:20" json:"unit"`
	Remarks     string           `gorm:"type:text" json:"remarks"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Company     string          `json:"company"`
	CategoryId  *int            `json:"category_id"`
	ProductName string          `json:"product_name" binding:"required"`
	PartNo      string          `json:"part_no" binding:"required"`
	ImageUrl    string          `json:"image_url"`
	BrandName   string          `json:"brand_name"`
	ModelNo     string          `json:"model_no"`
	BikeModelId *int            `json:"bike_model_id"`
	ProductMrp  decimal.Decimal `json:"product_mrp"`
	Unit        string          `json:"unit"`
	Remarks     string          `json:"remarks"`
}

// ProductFilter narrows GetProductAll. Zero values are ignored.
type ProductFilter struct {
	Company     string
	CategoryId  int
	BikeModelId int
	ModelNo     string
	BrandName   string
	Search      string
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if strings.TrimSpace(input.PartNo) == "" {
		return utils.NewValidationError("part_no is required")
	}
	if input.ProductMrp.IsNegative() {
		return utils.NewValidationError("product_mrp cannot be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "part_no", input.PartNo, id); err != nil {
		return utils.NewValidationError(err.Error())
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[ProductCategory](ctx, *input.CategoryId); err != nil {
			return utils.NewNotFoundError("product category")
		}
	}
	if input.BikeModelId != nil {
		if err := utils.ValidateResourceId[BikeModel](ctx, *input.BikeModelId); err != nil {
			return utils.NewNotFoundError("bike model")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Company:     input.Company,
		CategoryId:  input.CategoryId,
		ProductName: input.ProductName,
		PartNo:      strings.TrimSpace(input.PartNo),
		ImageUrl:    input.ImageUrl,
		BrandName:   input.BrandName,
		ModelNo:     input.ModelNo,
		BikeModelId: input.BikeModelId,
		ProductMrp:  input.ProductMrp.Round(2),
		Unit:        input.Unit,
		Remarks:     input.Remarks,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("product")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&product).
		Updates(map[string]interface{}{
			"Company":     input.Company,
			"CategoryId":  input.CategoryId,
			"ProductName": input.ProductName,
			"PartNo":      strings.TrimSpace(input.PartNo),
			"ImageUrl":    input.ImageUrl,
			"BrandName":   input.BrandName,
			"ModelNo":     input.ModelNo,
			"BikeModelId": input.BikeModelId,
			"ProductMrp":  input.ProductMrp.Round(2),
			"Unit":        input.Unit,
			"Remarks":     input.Remarks,
		}).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id, "Category", "BikeModel")
	if err != nil {
		return nil, utils.NewNotFoundError("product")
	}
	return product, nil
}

// GetProductByPartNo resolves a part for the purchase-entry and import paths.
func GetProductByPartNo(ctx context.Context, partNo string) (*Product, error) {
	db := config.GetDB()
	var product Product
	err := db.WithContext(ctx).Where("part_no = ?", partNo).First(&product).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewNotFoundError("product")
		}
		return nil, err
	}
	return &product, nil
}

func GetProductAll(ctx context.Context, filter *ProductFilter) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product

	dbCtx := db.WithContext(ctx).Preload("Category").Preload("BikeModel")
	if filter != nil {
		if filter.Company != "" {
			dbCtx = dbCtx.Where("company = ?", filter.Company)
		}
		if filter.CategoryId > 0 {
			dbCtx = dbCtx.Where("category_id = ?", filter.CategoryId)
		}
		if filter.BikeModelId > 0 {
			dbCtx = dbCtx.Where("bike_model_id = ?", filter.BikeModelId)
		}
		if filter.ModelNo != "" {
			dbCtx = dbCtx.Where("model_no = ?", filter.ModelNo)
		}
		if filter.BrandName != "" {
			dbCtx = dbCtx.Where("brand_name = ?", filter.BrandName)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			dbCtx = dbCtx.Where(
				"product_name LIKE ? OR part_no LIKE ? OR brand_name LIKE ? OR model_no LIKE ?",
				like, like, like, like,
			).Limit(config.SearchLimit)
		}
	}
	if err := dbCtx.Order("product_name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpsertProductForImport is the bulk-import part upsert: get-or-create by
// part_no; an existing part only has its MRP overwritten with the row's rate.
// Runs on the caller's transaction and locks the row for the rest of it.
func UpsertProductForImport(tx *gorm.DB, ctx context.Context, row *StockExcelRow) (*Product, bool, error) {
	product := Product{
		PartNo:      row.PartNo,
		Company:     row.CompanyName,
		ProductName: row.ProductName,
		ProductMrp:  row.Rate,
		Unit:        row.Unit,
	}

	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("part_no = ?", row.PartNo).
		FirstOrCreate(&product)
	if result.Error != nil {
		return nil, false, result.Error
	}
	created := result.RowsAffected == 1

	if !created {
		if err := tx.WithContext(ctx).Model(&product).
			Update("ProductMrp", row.Rate).Error; err != nil {
			return nil, false, err
		}
		product.ProductMrp = row.Rate
	}

	return &product, created, nil
}

/* Product category */

type NewProductCategory struct {
	CompanyId    int    `json:"company_id" binding:"required"`
	CategoryName string `json:"category_name" binding:"required"`
}

func CreateProductCategory(ctx context.Context, input *NewProductCategory) (*ProductCategory, error) {
	if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
		return nil, utils.NewNotFoundError("company")
	}

	category := ProductCategory{
		CompanyId:    input.CompanyId,
		CategoryName: input.CategoryName,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func GetProductCategoryAll(ctx context.Context, companyId int, search *string) ([]*ProductCategory, error) {
	db := config.GetDB()
	var results []*ProductCategory

	dbCtx := db.WithContext(ctx).Preload("Company")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if search != nil && len(*search) > 0 {
		dbCtx = dbCtx.Where("category_name LIKE ?", "%"+*search+"%")
	}
	if err := dbCtx.Order("category_name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

/* Bike model */

type NewBikeModel struct {
	CompanyId int    `json:"company_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	ImageUrl  string `json:"image_url"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func CreateBikeModel(ctx context.Context, input *NewBikeModel) (*BikeModel, error) {
	if err := utils.ValidateResourceId[Company](ctx, input.CompanyId); err != nil {
		return nil, utils.NewNotFoundError("company")
	}

	slug := slugify(fmt.Sprintf("%d-%s", input.CompanyId, input.Name))
	if len(slug) > 160 {
		slug = slug[:160]
	}

	bikeModel := BikeModel{
		CompanyId: input.CompanyId,
		Name:      input.Name,
		ImageUrl:  input.ImageUrl,
		Slug:      slug,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&bikeModel).Error; err != nil {
		return nil, err
	}
	return &bikeModel, nil
}

func GetBikeModelAll(ctx context.Context, companyId int, search *string) ([]*BikeModel, error) {
	db := config.GetDB()
	var results []*BikeModel

	dbCtx := db.WithContext(ctx).Preload("Company")
	if companyId > 0 {
		dbCtx = dbCtx.Where("company_id = ?", companyId)
	}
	if search != nil && len(*search) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*search+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
