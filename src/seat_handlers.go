package main

import (
	"net/http"

	"tixd/src/common"
	"tixd/src/types"

	"github.com/gin-gonic/gin"
)

func seatHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/occurrences/:id/seats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			seats, err := common.GetOccupancy(params.ID)
			if err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": seats, "count": len(seats)})
		}).
		POST("/tickets/:id/resize", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.ResizeTicketClassRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.ResizeTicketClass(params.ID, *body.Quantity); err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/events/:id/recompute", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.RecomputeEvent(params.ID); err != nil {
				respondCoreError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
