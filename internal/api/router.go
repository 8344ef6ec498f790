package api

import (
	"merchant-bot/internal/service"
	"merchant-bot/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the admin/stats HTTP API. The web panel in front of it
// handles its own auth; this API is expected to be bound locally.
func NewRouter(svc *service.Service, logger *utils.Logger) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	h := &Handler{service: svc, logger: logger}

	apiGroup := router.Group("/api")
	{
		stats := apiGroup.Group("/stats")
		{
			stats.GET("/dashboard", h.GetDashboard)
			stats.GET("/activity", h.GetActivity)
			stats.GET("/funnel", h.GetFunnel)
			stats.GET("/cohorts", h.GetCohorts)
			stats.GET("/segments", h.GetSegments)
		}

		merchants := apiGroup.Group("/merchants")
		{
			merchants.GET("", h.ListMerchants)
			merchants.GET("/:id", h.GetMerchant)
			merchants.PUT("/:id/status", h.UpdateMerchantStatus)
		}

		codes := apiGroup.Group("/codes")
		{
			codes.GET("", h.ListCodes)
			codes.POST("", h.GenerateCode)
			codes.DELETE("/:id", h.DeleteCode)
		}

		regions := apiGroup.Group("/regions")
		{
			regions.GET("/cities", h.ListCities)
			regions.POST("/cities", h.CreateCity)
			regions.PUT("/cities/:id", h.UpdateCity)
			regions.DELETE("/cities/:id", h.DeleteCity)
			regions.GET("/cities/:id/districts", h.ListDistricts)
			regions.POST("/cities/:id/districts", h.CreateDistrict)
			regions.DELETE("/districts/:id", h.DeleteDistrict)
		}

		slots := apiGroup.Group("/slots")
		{
			slots.GET("", h.ListSlots)
			slots.POST("", h.CreateSlot)
			slots.DELETE("/:id", h.DeleteSlot)
			slots.GET("/occupancy", h.GetSlotOccupancy)
		}

		apiGroup.POST("/cleanup", h.RunCleanup)
	}

	return router
}
