package routes

import (
	"Dinder/controllers"
	"Dinder/middleware"
	"Dinder/services/node"
	utils "Dinder/utils"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, n *node.Node) {
	// utils global
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/session/host", controllers.HostSession(n))

	api.POST("/session/join", controllers.JoinSession(n))

	participant := api.Group("/session")
	participant.Use(middleware.ParticipantRequired(n))
	{
		participant.GET("", controllers.GetSession(n))

		participant.DELETE("", controllers.LeaveSession(n))

		participant.POST("/location", controllers.BeginLocationSetup(n))

		participant.POST("/lobby", controllers.ReturnToLobby(n))

		participant.POST("/round", controllers.StartRound(n))

		participant.POST("/keep-swiping", controllers.KeepSwiping(n))

		participant.POST("/approve", controllers.Approve(n))

		participant.POST("/reject", controllers.Reject(n))
	}
}
