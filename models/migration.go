package models

import "bitbucket.org/mmdatafocus/autoparts_backend/config"

// MigrateTable creates or updates every table the service owns.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Company{},
		&Supplier{},
		&ProductCategory{},
		&BikeModel{},
		&Product{},
		&StockProduct{},
		&SupplierPurchase{},
		&PurchaseProduct{},
		&PurchasePayment{},
		&SupplierPurchaseReturn{},
		&Purchase{},
		&PurchaseItem{},
		&Order{},
		&OrderItem{},
	)
}
