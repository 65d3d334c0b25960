package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pos-platform/pos/internal/application"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/middleware"
)

func getInventoryHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetInventoryQuery{
			StoreID:     c.Param("storeId"),
			SKU:         c.Param("sku"),
			WarehouseID: c.Query("warehouseId"),
		}

		inv, err := service.GetInventory(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, inv)
	}
}

func listInventoryHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query application.ListInventoryQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			middleware.AbortWithAppError(c, errors.ErrValidation(err.Error()))
			return
		}

		result, err := service.ListInventory(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func listLowStockHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID := c.Query("storeId")
		if storeID == "" {
			middleware.AbortWithAppError(c, errors.ErrValidation("storeId is required"))
			return
		}

		records, err := service.ListLowStock(c.Request.Context(), storeID)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": records})
	}
}

func listTransactionsHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query application.ListTransactionsQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			middleware.AbortWithAppError(c, errors.ErrValidation(err.Error()))
			return
		}

		result, err := service.ListTransactions(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func receiveStockHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.ReceiveStockCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		inv, err := service.ReceiveStock(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, inv)
	}
}

func adjustStockHandler(service *application.InventoryApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.AdjustInventoryCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		inv, err := service.AdjustStock(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, inv)
	}
}

func listDeadLettersHandler(service *application.DeadLetterApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
		pageSize, _ := strconv.ParseInt(c.DefaultQuery("pageSize", "20"), 10, 64)

		entries, err := service.ListUnresolved(c.Request.Context(), page, pageSize)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": entries})
	}
}

func getDeadLetterHandler(service *application.DeadLetterApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := service.GetEntry(c.Request.Context(), c.Param("entryId"))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, entry)
	}
}

func resolveDeadLetterHandler(service *application.DeadLetterApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.ResolveDeadLetterCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.EntryID = c.Param("entryId")

		entry, err := service.Resolve(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, entry)
	}
}
