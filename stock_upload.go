package main

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/autoparts_backend/models"
	"bitbucket.org/mmdatafocus/autoparts_backend/utils"
	"github.com/gin-gonic/gin"
)

func listStockProductsHandler(c *gin.Context) {
	stocks, err := models.GetStockProductAll(c.Request.Context(), c.Query("company_name"), c.Query("part_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

func getStockProductHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	stock, err := models.GetStockProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// setDamageQuantityHandler accepts damage_quantity as a JSON number or a
// numeric string; anything non-numeric is rejected before touching the row.
func setDamageQuantityHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	var body struct {
		DamageQuantity json.Number `json:"damage_quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, utils.NewValidationError("damage_quantity must be a number"))
		return
	}
	damageQuantity, err := utils.ParseQuantity(body.DamageQuantity.String())
	if err != nil {
		respondError(c, utils.NewValidationError("damage_quantity must be a non-negative integer"))
		return
	}

	stock, err := models.SetDamageQuantity(c.Request.Context(), id, damageQuantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// uploadStockExcelHandler ingests a stock workbook. Multipart fields:
// file (required .xlsx), company_id (required), exporter_name, invoice_no
// (blank or AUTO_GENERATE assigns one), purchase_date (2006-01-02, defaults
// to today).
func uploadStockExcelHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, utils.NewValidationError("file is required"))
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		respondError(c, utils.NewValidationError("only .xlsx files are supported"))
		return
	}

	companyId := queryInt(c, "company_id")
	if companyId == 0 {
		if v := c.PostForm("company_id"); v != "" {
			parsed, err := utils.ParseQuantity(v)
			if err != nil {
				respondError(c, utils.NewValidationError("company_id must be an integer"))
				return
			}
			companyId = parsed
		}
	}
	if companyId <= 0 {
		respondError(c, utils.NewValidationError("company_id is required"))
		return
	}

	purchaseDate := time.Now()
	if v := c.PostForm("purchase_date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(c, utils.NewValidationError("purchase_date must be formatted as 2006-01-02"))
			return
		}
		purchaseDate = parsed
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	result, err := models.ImportStockFromXlsx(
		c.Request.Context(),
		file,
		fileHeader.Filename,
		companyId,
		c.PostForm("exporter_name"),
		c.PostForm("invoice_no"),
		purchaseDate,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
