package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/autoparts_backend/models"
	"github.com/gin-gonic/gin"
)

func createSupplierPurchaseHandler(c *gin.Context) {
	var input models.NewSupplierPurchase
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	purchase, err := models.CreateSupplierPurchase(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func listSupplierPurchasesHandler(c *gin.Context) {
	purchases, err := models.GetSupplierPurchaseAll(
		c.Request.Context(),
		queryInt(c, "supplier_id"),
		c.Query("company_name"),
		c.Query("invoice_no"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func getSupplierPurchaseHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	purchase, err := models.GetSupplierPurchase(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func createPurchaseEntryHandler(c *gin.Context) {
	var input models.NewPurchaseEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	purchase, err := models.CreatePurchaseEntry(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func listPurchaseEntriesHandler(c *gin.Context) {
	purchases, err := models.GetPurchaseAll(c.Request.Context(), c.Query("company_name"), c.Query("invoice_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, purchases)
}

func createPurchaseReturnHandler(c *gin.Context) {
	var input models.NewSupplierPurchaseReturn
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	purchaseReturn, err := models.CreateSupplierPurchaseReturn(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchaseReturn)
}

func listPurchaseReturnsHandler(c *gin.Context) {
	returns, err := models.GetSupplierPurchaseReturnAll(c.Request.Context(), optionalQuery(c, "invoice_no"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, returns)
}

func createOrderHandler(c *gin.Context) {
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	order, err := models.CreateOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func listOrdersHandler(c *gin.Context) {
	orders, err := models.GetOrderAll(c.Request.Context(), queryInt(c, "company_id"), c.Query("day"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func getOrderHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
