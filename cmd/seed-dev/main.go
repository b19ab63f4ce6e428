package main

import (
	"context"
	"log"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/models"
	"github.com/shopspring/decimal"
)

// Seeds a development database with a couple of companies, a supplier, a few
// parts and one purchase so the API has data to serve. Safe to re-run: it
// stops if any company already exists.
func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if err := models.MigrateTable(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()

	existing, err := models.GetCompanyAll(ctx, nil)
	if err != nil {
		log.Fatalf("list companies: %v", err)
	}
	if len(existing) > 0 {
		log.Println("database already seeded, nothing to do")
		return
	}

	honda, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "HONDA"})
	if err != nil {
		log.Fatalf("create company: %v", err)
	}
	if _, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "YAMAHA"}); err != nil {
		log.Fatalf("create company: %v", err)
	}

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierName: "Golden Gate Trading",
		Phone:        "09799333222",
		Address:      "Mandalay",
	})
	if err != nil {
		log.Fatalf("create supplier: %v", err)
	}

	parts := []models.NewProduct{
		{Company: honda.CompanyName, ProductName: "Brake Shoe", PartNo: "06430-KWB-601", ProductMrp: decimal.NewFromInt(8500), Unit: "SET"},
		{Company: honda.CompanyName, ProductName: "Air Filter", PartNo: "17210-KYZ-900", ProductMrp: decimal.NewFromInt(6000), Unit: "PCS"},
		{Company: honda.CompanyName, ProductName: "Drive Chain", PartNo: "40530-KPH-901", ProductMrp: decimal.NewFromInt(21000), Unit: "PCS"},
	}
	products := make([]*models.Product, 0, len(parts))
	for i := range parts {
		product, err := models.CreateProduct(ctx, &parts[i])
		if err != nil {
			log.Fatalf("create product %s: %v", parts[i].PartNo, err)
		}
		products = append(products, product)
	}

	purchase, err := models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
		SupplierId:   supplier.ID,
		CompanyName:  honda.CompanyName,
		PurchaseDate: time.Now(),
		Products: []models.NewPurchaseProduct{
			{ProductId: products[0].ID, PurchaseQuantity: 20, PurchasePrice: decimal.NewFromInt(6500), Percentage: decimal.NewFromInt(5)},
			{ProductId: products[1].ID, PurchaseQuantity: 50, PurchasePrice: decimal.NewFromInt(4200)},
		},
	})
	if err != nil {
		log.Fatalf("create purchase: %v", err)
	}

	log.Printf("seeded purchase %s with %d lines", purchase.InvoiceNo, len(purchase.Products))
}
