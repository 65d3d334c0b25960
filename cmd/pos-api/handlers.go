package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pos-platform/pos/internal/application"
	"github.com/pos-platform/pos/pkg/errors"
	"github.com/pos-platform/pos/pkg/middleware"
)

func createSaleHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.CreateSaleCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		sale, err := service.CreateSale(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, sale)
	}
}

func getSaleHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetSaleQuery{SaleID: c.Param("saleId")}

		sale, err := service.GetSale(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func listSalesHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query application.ListSalesQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			middleware.AbortWithAppError(c, errors.ErrValidation(err.Error()))
			return
		}

		result, err := service.ListSales(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func addSaleItemHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.AddSaleItemCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.SaleID = c.Param("saleId")

		sale, err := service.AddItem(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func updateSaleItemHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.UpdateSaleItemCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.SaleID = c.Param("saleId")
		cmd.SKU = c.Param("sku")

		sale, err := service.UpdateItemQuantity(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func removeSaleItemHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := application.RemoveSaleItemCommand{
			SaleID: c.Param("saleId"),
			SKU:    c.Param("sku"),
		}

		sale, err := service.RemoveItem(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func applyDiscountHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.ApplyDiscountCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.SaleID = c.Param("saleId")

		sale, err := service.ApplyDiscount(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func addPaymentHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.AddPaymentCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.SaleID = c.Param("saleId")

		sale, err := service.AddPayment(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func completeSaleHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := application.CompleteSaleCommand{SaleID: c.Param("saleId")}

		sale, err := service.CompleteSale(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func cancelSaleHandler(service *application.SaleApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.CancelSaleCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.SaleID = c.Param("saleId")

		sale, err := service.CancelSale(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, sale)
	}
}

func createReturnHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.CreateReturnCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}

		ret, err := service.CreateReturn(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, ret)
	}
}

func addReturnItemHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.AddReturnItemCommand
		if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
			middleware.AbortWithAppError(c, appErr)
			return
		}
		cmd.ReturnID = c.Param("returnId")

		ret, err := service.AddItem(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, ret)
	}
}

func getReturnHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.GetReturnQuery{ReturnID: c.Param("returnId")}

		ret, err := service.GetReturn(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, ret)
	}
}

func listReturnsHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query application.ListReturnsQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			middleware.AbortWithAppError(c, errors.ErrValidation(err.Error()))
			return
		}

		result, err := service.ListReturns(c.Request.Context(), query)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func processReturnHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.ProcessReturnCommand
		// The body is optional; the refund method defaults to cash.
		if c.Request.ContentLength > 0 {
			if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
				middleware.AbortWithAppError(c, appErr)
				return
			}
		}
		cmd.ReturnID = c.Param("returnId")

		ret, err := service.ProcessReturn(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, ret)
	}
}

func cancelReturnHandler(service *application.ReturnApplicationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd application.CancelReturnCommand
		// The body is optional; cancellation does not require a reason.
		if c.Request.ContentLength > 0 {
			if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
				middleware.AbortWithAppError(c, appErr)
				return
			}
		}
		cmd.ReturnID = c.Param("returnId")

		ret, err := service.CancelReturn(c.Request.Context(), cmd)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, ret)
	}
}
