package models_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/config"
	"bitbucket.org/mmdatafocus/autoparts_backend/models"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Spins up throwaway MySQL + Redis containers and exercises the full purchase
// -> ledger -> return -> damage lifecycle, plus the excel import.
func TestStockLedgerLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "autoparts_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	honda, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "HONDA"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	yamaha, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "YAMAHA"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{SupplierName: "Golden Gate Trading"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	brakeShoe, err := models.CreateProduct(ctx, &models.NewProduct{
		Company:     honda.CompanyName,
		ProductName: "Brake Shoe",
		PartNo:      "06430-KWB-601",
		ProductMrp:  dec("8500"),
		Unit:        "SET",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	airFilter, err := models.CreateProduct(ctx, &models.NewProduct{
		Company:     honda.CompanyName,
		ProductName: "Air Filter",
		PartNo:      "17210-KYZ-900",
		ProductMrp:  dec("6000"),
		Unit:        "PCS",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// 1) Supplier purchase: two lines, auto invoice number, ledger rows created.
	purchase, err := models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
		SupplierId:     supplier.ID,
		CompanyName:    honda.CompanyName,
		PurchaseDate:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DiscountAmount: dec("1000"),
		Products: []models.NewPurchaseProduct{
			{ProductId: brakeShoe.ID, PurchaseQuantity: 20, PurchasePrice: dec("6500"), Percentage: dec("5")},
			{ProductId: airFilter.ID, PurchaseQuantity: 50, PurchasePrice: dec("4200")},
		},
	})
	if err != nil {
		t.Fatalf("CreateSupplierPurchase: %v", err)
	}
	if !regexp.MustCompile(`^PU\d{8}$`).MatchString(purchase.InvoiceNo) {
		t.Fatalf("invoice number %q does not match PU%%08d", purchase.InvoiceNo)
	}
	// line 1: 6500*1.05=6825, *20=136500; line 2: 4200*50=210000
	if !purchase.TotalAmount.Equal(dec("346500")) {
		t.Fatalf("TotalAmount = %s, want 346500", purchase.TotalAmount)
	}
	if !purchase.TotalPayableAmount.Equal(dec("345500")) {
		t.Fatalf("TotalPayableAmount = %s, want 345500", purchase.TotalPayableAmount)
	}

	// A line whose part_no names a different product than product_id must be
	// rejected before anything is written.
	_, err = models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
		SupplierId:   supplier.ID,
		CompanyName:  honda.CompanyName,
		PurchaseDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Products: []models.NewPurchaseProduct{
			{ProductId: brakeShoe.ID, PartNo: airFilter.PartNo, PurchaseQuantity: 1, PurchasePrice: dec("100")},
		},
	})
	if !utils.IsValidationError(err) {
		t.Fatalf("mismatched part_no should be a validation error, got %v", err)
	}

	stocks, err := models.GetStockProductAll(ctx, honda.CompanyName, brakeShoe.PartNo)
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(stocks))
	}
	ledger := stocks[0]
	if ledger.PurchaseQuantity != 20 || ledger.CurrentStockQuantity != 20 {
		t.Fatalf("ledger quantities: %+v", ledger)
	}
	// ledger carries the raw purchase price, not the marked-up one
	if !ledger.PurchasePrice.Equal(dec("6500")) {
		t.Fatalf("ledger purchase price = %s, want 6500", ledger.PurchasePrice)
	}
	if !ledger.CurrentStockValue.Equal(dec("130000")) {
		t.Fatalf("ledger stock value = %s, want 130000", ledger.CurrentStockValue)
	}

	// 2) Second purchase of the same part accumulates into the same row and
	// overwrites last purchase price.
	if _, err := models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
		SupplierId:   supplier.ID,
		CompanyName:  honda.CompanyName,
		PurchaseDate: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		Products: []models.NewPurchaseProduct{
			{ProductId: brakeShoe.ID, PurchaseQuantity: 10, PurchasePrice: dec("7000")},
		},
	}); err != nil {
		t.Fatalf("CreateSupplierPurchase: %v", err)
	}
	stocks, err = models.GetStockProductAll(ctx, honda.CompanyName, brakeShoe.PartNo)
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("expected the same ledger row, got %d rows", len(stocks))
	}
	ledger = stocks[0]
	if ledger.PurchaseQuantity != 30 || ledger.CurrentStockQuantity != 30 {
		t.Fatalf("ledger quantities after second purchase: %+v", ledger)
	}
	if !ledger.PurchasePrice.Equal(dec("7000")) {
		t.Fatalf("last purchase price = %s, want 7000", ledger.PurchasePrice)
	}
	if !ledger.CurrentStockValue.Equal(dec("200000")) {
		t.Fatalf("stock value = %s, want 200000", ledger.CurrentStockValue)
	}

	// 3) Same part under a different company gets its own ledger row.
	if _, err := models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
		SupplierId:   supplier.ID,
		CompanyName:  yamaha.CompanyName,
		PurchaseDate: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		Products: []models.NewPurchaseProduct{
			{ProductId: brakeShoe.ID, PurchaseQuantity: 5, PurchasePrice: dec("6400")},
		},
	}); err != nil {
		t.Fatalf("CreateSupplierPurchase: %v", err)
	}
	stocks, err = models.GetStockProductAll(ctx, "", brakeShoe.PartNo)
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(stocks) != 2 {
		t.Fatalf("expected 2 ledger rows across companies, got %d", len(stocks))
	}

	// 4) Returns: capped at the line's purchased quantity, ledger only loses
	// on-hand quantity.
	full, err := models.GetSupplierPurchase(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("GetSupplierPurchase: %v", err)
	}
	var brakeLine *models.PurchaseProduct
	for i := range full.Products {
		if full.Products[i].PartNo == brakeShoe.PartNo {
			brakeLine = &full.Products[i]
		}
	}
	if brakeLine == nil {
		t.Fatalf("brake shoe line missing from purchase")
	}

	if _, err := models.CreateSupplierPurchaseReturn(ctx, &models.NewSupplierPurchaseReturn{
		PurchaseProductId: brakeLine.ID,
		Quantity:          5,
	}); err != nil {
		t.Fatalf("CreateSupplierPurchaseReturn: %v", err)
	}
	_, err = models.CreateSupplierPurchaseReturn(ctx, &models.NewSupplierPurchaseReturn{
		PurchaseProductId: brakeLine.ID,
		Quantity:          16, // 5 already returned of 20
	})
	if err == nil {
		t.Fatalf("over-return should fail")
	}
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %T: %v", err, err)
	}

	stocks, err = models.GetStockProductAll(ctx, honda.CompanyName, brakeShoe.PartNo)
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	ledger = stocks[0]
	if ledger.CurrentStockQuantity != 25 {
		t.Fatalf("on-hand after return = %d, want 25", ledger.CurrentStockQuantity)
	}
	// purchase history and value are not reversed by returns
	if ledger.PurchaseQuantity != 30 {
		t.Fatalf("purchase quantity changed by return: %d", ledger.PurchaseQuantity)
	}
	if !ledger.CurrentStockValue.Equal(dec("200000")) {
		t.Fatalf("stock value changed by return: %s", ledger.CurrentStockValue)
	}

	// 5) Damage: additive, clamps on-hand at zero.
	damaged, err := models.SetDamageQuantity(ctx, ledger.ID, 3)
	if err != nil {
		t.Fatalf("SetDamageQuantity: %v", err)
	}
	if damaged.DamageQuantity != 3 || damaged.CurrentStockQuantity != 22 {
		t.Fatalf("after damage: %+v", damaged)
	}
	damaged, err = models.SetDamageQuantity(ctx, ledger.ID, 100)
	if err != nil {
		t.Fatalf("SetDamageQuantity: %v", err)
	}
	if damaged.DamageQuantity != 103 {
		t.Fatalf("damage should accumulate, got %d", damaged.DamageQuantity)
	}
	if damaged.CurrentStockQuantity != 0 {
		t.Fatalf("on-hand should clamp at zero, got %d", damaged.CurrentStockQuantity)
	}
	if _, err := models.SetDamageQuantity(ctx, ledger.ID, -1); !utils.IsValidationError(err) {
		t.Fatalf("negative damage should be a validation error, got %v", err)
	}
	if _, err := models.SetDamageQuantity(ctx, 999999, 1); !utils.IsNotFoundError(err) {
		t.Fatalf("unknown stock id should be not-found, got %v", err)
	}
}

func TestStockLedgerConcurrentPurchases(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "autoparts_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	company, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "SUZUKI"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{SupplierName: "Parallel Importer"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Company:     company.CompanyName,
		ProductName: "Clutch Plate",
		PartNo:      "21200-38B00",
		Unit:        "SET",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// First writes race on creating the (company, part) ledger row; losers
	// must retry onto the winner's row, never produce a second row.
	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.CreateSupplierPurchase(ctx, &models.NewSupplierPurchase{
				SupplierId:   supplier.ID,
				CompanyName:  company.CompanyName,
				PurchaseDate: time.Now(),
				Products: []models.NewPurchaseProduct{
					{ProductId: product.ID, PurchaseQuantity: 10, PurchasePrice: dec("1500")},
				},
			})
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}
		// bounded-retry exhaustion is the only acceptable failure
		if !utils.IsConflictError(err) {
			t.Fatalf("unexpected error from concurrent purchase: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatalf("no concurrent purchase succeeded")
	}

	stocks, err := models.GetStockProductAll(ctx, company.CompanyName, product.PartNo)
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(stocks) != 1 {
		t.Fatalf("expected a single ledger row, got %d", len(stocks))
	}
	ledger := stocks[0]
	if ledger.PurchaseQuantity != succeeded*10 || ledger.CurrentStockQuantity != succeeded*10 {
		t.Fatalf("ledger quantities %d/%d, want %d", ledger.PurchaseQuantity, ledger.CurrentStockQuantity, succeeded*10)
	}
	wantValue := decimal.NewFromInt(int64(succeeded * 10 * 1500))
	if !ledger.CurrentStockValue.Equal(wantValue) {
		t.Fatalf("stock value %s, want %s", ledger.CurrentStockValue, wantValue)
	}
}

func TestPurchaseInvoiceSequenceSurvivesCounterLoss(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "autoparts_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	company, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "KAWASAKI"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Company:     company.CompanyName,
		ProductName: "Oil Filter",
		PartNo:      "16097-0008",
		Unit:        "PCS",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	first, err := models.CreatePurchaseEntry(ctx, &models.NewPurchaseEntry{
		CompanyId:     company.ID,
		PartNo:        product.PartNo,
		Quantity:      5,
		PurchasePrice: dec("800"),
		PurchaseDate:  time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreatePurchaseEntry: %v", err)
	}
	if first.InvoiceNo != "PU00000001" || first.SequenceNo != 1 {
		t.Fatalf("first entry: invoice %q sequence %d", first.InvoiceNo, first.SequenceNo)
	}

	// Losing the redis counter must not recycle invoice numbers: the reseed
	// reads max(sequence_no) from the purchases table.
	if err := config.RemoveRedisKey("purchase_seq"); err != nil {
		t.Fatalf("RemoveRedisKey: %v", err)
	}

	second, err := models.CreatePurchaseEntry(ctx, &models.NewPurchaseEntry{
		CompanyId:     company.ID,
		PartNo:        product.PartNo,
		Quantity:      3,
		PurchasePrice: dec("800"),
		PurchaseDate:  time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreatePurchaseEntry: %v", err)
	}
	if second.InvoiceNo == first.InvoiceNo {
		t.Fatalf("invoice number %q recycled after counter loss", second.InvoiceNo)
	}
	if second.InvoiceNo != "PU00000002" || second.SequenceNo != 2 {
		t.Fatalf("second entry: invoice %q sequence %d", second.InvoiceNo, second.SequenceNo)
	}

	// Same day, distinct invoices: the entries must not have merged into one
	// journal header.
	entries, err := models.GetPurchaseAll(ctx, company.CompanyName, "")
	if err != nil {
		t.Fatalf("GetPurchaseAll: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal headers, got %d", len(entries))
	}
}

func TestStockExcelImport(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })
	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "autoparts_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	importer, err := models.CreateCompany(ctx, &models.NewCompany{CompanyName: "AA Auto Parts"})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	// Pre-existing part: import must update its MRP, not duplicate it.
	existing, err := models.CreateProduct(ctx, &models.NewProduct{
		Company:     "HONDA",
		ProductName: "Brake Shoe",
		PartNo:      "06430-KWB-601",
		ProductMrp:  dec("8000"),
		Unit:        "SET",
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	sheet := buildStockSheet(t, [][]interface{}{
		{"Description", "Part_no", "Group", "Rate", "Qty", "Unit"},
		{"Brake Shoe", "06430-KWB-601", "HONDA", 8500, 12, "SET"},
		{"Gear Lever", "24700-KTL-740", "HONDA", 3200, "6.0", "PCS"},
		{"Head Lamp", "5PA-H4310-00", "YAMAHA", 15000, 4, "PCS"},
	})

	result, err := models.ImportStockFromXlsx(ctx, bytes.NewReader(sheet), "stock.xlsx", importer.ID, "U Kyaw", "", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ImportStockFromXlsx: %v", err)
	}
	if result.RowsImported != 3 || len(result.Items) != 3 {
		t.Fatalf("rows imported = %d items = %d", result.RowsImported, len(result.Items))
	}
	if !regexp.MustCompile(`^PU\d{8}$`).MatchString(result.InvoiceNo) {
		t.Fatalf("auto invoice %q", result.InvoiceNo)
	}
	first := result.Items[0]
	if first.PartNo != existing.PartNo || first.AddedQuantity != 12 || !first.UpdatedMrp.Equal(dec("8500")) {
		t.Fatalf("unexpected summary row: %+v", first)
	}

	// Existing product updated in place.
	reloaded, err := models.GetProductByPartNo(ctx, existing.PartNo)
	if err != nil {
		t.Fatalf("GetProductByPartNo: %v", err)
	}
	if reloaded.ID != existing.ID || !reloaded.ProductMrp.Equal(dec("8500")) {
		t.Fatalf("product not upserted in place: %+v", reloaded)
	}

	// Ledger rows keyed by the row's Group, not the importing company.
	hondaStocks, err := models.GetStockProductAll(ctx, "HONDA", "")
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(hondaStocks) != 2 {
		t.Fatalf("expected 2 HONDA ledger rows, got %d", len(hondaStocks))
	}
	yamahaStocks, err := models.GetStockProductAll(ctx, "YAMAHA", "")
	if err != nil {
		t.Fatalf("GetStockProductAll: %v", err)
	}
	if len(yamahaStocks) != 1 || yamahaStocks[0].CurrentStockQuantity != 4 {
		t.Fatalf("unexpected YAMAHA ledger rows: %+v", yamahaStocks)
	}

	// Purchase journal filed under the importing company.
	purchases, err := models.GetPurchaseAll(ctx, importer.CompanyName, result.InvoiceNo)
	if err != nil {
		t.Fatalf("GetPurchaseAll: %v", err)
	}
	if len(purchases) != 1 || len(purchases[0].Items) != 3 {
		t.Fatalf("unexpected purchase journal: %+v", purchases)
	}

	// A bad row anywhere fails the whole sheet with no partial effects.
	badSheet := buildStockSheet(t, [][]interface{}{
		{"Description", "Part_no", "Group", "Rate", "Qty", "Unit"},
		{"Fork Oil Seal", "51490-GN1-B01", "HONDA", 900, 30, "PCS"},
		{"Bad Row", "99999-XXX-000", "HONDA", 1200, "2.5", "PCS"},
	})
	_, err = models.ImportStockFromXlsx(ctx, bytes.NewReader(badSheet), "bad.xlsx", importer.ID, "", "", time.Now())
	if !utils.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := models.GetProductByPartNo(ctx, "51490-GN1-B01"); !utils.IsNotFoundError(err) {
		t.Fatalf("good row from failed sheet leaked into products: %v", err)
	}
}

func buildStockSheet(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("autoparts-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("autoparts-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=autoparts_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
