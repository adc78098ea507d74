package middlewares

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// AuthMiddleware extracts the buyer id from a bearer token. Authorization
// beyond identifying the buyer is handled upstream.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.TrimPrefix(bearerToken, "Bearer ")
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil || uid < 1 {
		log.Printf("error parsing claims subject: %v\n", err)
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("id", uint(uid))
}
