package main

import (
	"net/http"

	"tixd/src/common"
	"tixd/src/types"

	"github.com/gin-gonic/gin"
)

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/orders", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			order, err := common.CreateOrder(userId, body.OccurrenceID, body.Items, body.GiftID)
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": order})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			order, err := common.GetOrder(params.ID)
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		}).
		PATCH("/orders/:id/pay", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			order, err := common.UpdateOrderStatus(params.ID, types.ORDER_PAID)
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		}).
		POST("/orders/:id/checkout", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			url, err := common.CreateCheckout(params.ID)
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"url": url})
		}).
		GET("/orders/sync-seat-status", func(ctx *gin.Context) {
			updatedPaid, updatedCancelled, err := common.SyncAllSeatStatuses()
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"updated_paid":      updatedPaid,
				"updated_cancelled": updatedCancelled,
			})
		})
	return g
}
