package main

import (
	"errors"
	"io"
	"log"
	"net/http"

	"tixd/src/common"
	"tixd/src/types"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/callback", func(ctx *gin.Context) {
			payload, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			result, err := common.VerifyCallback(payload)
			if err != nil {
				if errors.Is(err, common.ErrConflict) {
					// Redelivered event, already handled. Ack it so the
					// gateway stops retrying.
					ctx.Status(http.StatusOK)
					return
				}
				respondCoreError(ctx, err)
				return
			}
			target := types.ORDER_PAID
			if !result.Success {
				target = types.ORDER_FAILED
			}
			order, err := common.UpdateOrderStatus(result.OrderID, target)
			if err != nil {
				// The event is not handled until the order transition
				// committed; release it so the gateway's retry gets through.
				common.ReleaseCallback(result.EventID)
				respondCoreError(ctx, err)
				return
			}
			log.Printf("[callback] order %d resolved to %s\n", order.ID, order.Status)
			ctx.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": order.Status})
		})
	return g
}
