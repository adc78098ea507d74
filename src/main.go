package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"tixd/src/boot"
	"tixd/src/common"
	"tixd/src/middlewares"
	"tixd/src/types"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

// uniqueSeatsValidatorFunc rejects order bodies that name the same seat twice.
// The engine would catch the duplicate as a conflict anyway; failing fast here
// gives the client a validation error instead.
var uniqueSeatsValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	items, ok := fl.Field().Interface().([]types.OrderLineItem)
	if !ok {
		return false
	}
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if seen[item.SeatID] {
			return false
		}
		seen[item.SeatID] = true
	}
	return true
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("uniqueseats", uniqueSeatsValidatorFunc); err != nil {
			log.Printf("Error registering validator: %s\n", err.Error())
		}
	}
}

// respondCoreError maps the core error taxonomy onto status codes. A seat
// conflict gets its own status so clients can re-offer seat selection.
func respondCoreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrInvalid):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Error while processing request"})
	}
}

func buildRouter() *gin.Engine {
	registerValidators()
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("APP_HOST")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group(apiPrefix)
	api.Use(middlewares.AuthMiddleware)
	orderHandlers(api)
	seatHandlers(api)

	// The gateway authenticates by signature, not bearer token.
	callbacks := r.Group(apiPrefix)
	paymentHandlers(callbacks)

	return r
}

func main() {
	boot.InitDb()
	if os.Getenv("KAFKA_BROKER") != "" {
		boot.InitBroker()
	}
	boot.InitScheduler()

	r := buildRouter()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
