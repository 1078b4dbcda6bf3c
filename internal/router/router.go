// Package router assembles the gin engine serving this module's
// operational HTTP surface (spec §1: the product's HTTP surface is
// out of scope; only health and manual maintenance triggers are
// exposed), grounded on the teacher's router.go CORS+middleware+route
// group wiring.
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/dig"

	"github.com/beacon-labs/wikimind/internal/handler"
	"github.com/beacon-labs/wikimind/internal/middleware"
)

// Params is the dig.In struct NewRouter is invoked with.
type Params struct {
	dig.In

	SystemHandler     *handler.SystemHandler
	OperationsHandler *handler.OperationsHandler
}

// NewRouter builds the gin engine and registers every route.
func NewRouter(params Params) *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.TracingMiddleware())

	r.GET("/health", params.SystemHandler.GetHealth)

	ops := r.Group("/ops")
	{
		ops.POST("/sync", params.OperationsHandler.TriggerSync)
		ops.POST("/recompute", params.OperationsHandler.TriggerRecompute)
		ops.POST("/archival", params.OperationsHandler.TriggerArchival)
	}

	return r
}
