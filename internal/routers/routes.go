package routers

import (
	auth "rentora-api-io/api/internal/auth"
	"rentora-api-io/api/internal/container"
	"rentora-api-io/api/internal/middleware"
	"rentora-api-io/api/pkg/controllers"

	"github.com/gin-gonic/gin"
)

// InitRoute creates a new Gin router with service layer architecture
func InitRoute() *gin.Engine {
	serviceContainer := container.NewServiceContainer()
	router := gin.Default()
	router.Use(middleware.CorsMiddleware())

	api := router.Group("/v1", middleware.RentoraRateLimiter())
	{
		api.GET("/ping", controllers.Ping)

		verificationRoutes(api, serviceContainer)
		adminVerificationRoutes(api, serviceContainer)
		ownerVerificationRoutes(api, serviceContainer)
	}

	return router
}

// verificationRoutes configures the customer-facing verification endpoints
func verificationRoutes(api *gin.RouterGroup, serviceContainer *container.ServiceContainer) {
	verificationController := serviceContainer.GetVerificationController()

	verification := api.Group("/verification").Use(auth.Auth())
	{
		verification.POST("/requests", verificationController.CreateRequest())
		verification.GET("/requests/me", verificationController.GetMyLatestRequest())
		verification.POST("/requests/:requestid/documents", verificationController.UploadDocument())
		verification.GET("/requests/:requestid/status", verificationController.GetStatus())
		verification.GET("/requests/:requestid/history", verificationController.GetHistory())
	}
}

// adminVerificationRoutes configures the platform-admin review endpoints
func adminVerificationRoutes(api *gin.RouterGroup, serviceContainer *container.ServiceContainer) {
	adminController := serviceContainer.GetAdminVerificationController()

	admin := api.Group("/admin/verification").Use(auth.Auth(), middleware.AdminOnly())
	{
		admin.GET("/requests", adminController.ListRequests())
		admin.GET("/requests/:requestid", adminController.GetRequestDetail())
		admin.PUT("/requests/:requestid/approve", adminController.Approve())
		admin.PUT("/requests/:requestid/reject", adminController.Reject())
		admin.DELETE("/requests/:requestid", adminController.DeleteRequest())
		admin.GET("/documents/:documentid/url", adminController.GetDocumentURL())
		admin.GET("/analytics/providers", adminController.ProviderAnalytics())
	}
}

// ownerVerificationRoutes configures the property-owner review endpoints
func ownerVerificationRoutes(api *gin.RouterGroup, serviceContainer *container.ServiceContainer) {
	ownerController := serviceContainer.GetOwnerVerificationController()

	owner := api.Group("/owner/verification").Use(auth.Auth(), middleware.OwnerOnly())
	{
		owner.GET("/tenants", ownerController.ListTenantRequests())
		owner.GET("/analytics", ownerController.Analytics())
		owner.GET("/tenants/:tenantid", ownerController.GetTenantDetail())
		owner.PUT("/tenants/:tenantid/approve", ownerController.Approve())
		owner.PUT("/tenants/:tenantid/reject", ownerController.Reject())
		owner.PUT("/tenants/:tenantid/resubmission", ownerController.RequestResubmission())
		owner.DELETE("/tenants/:tenantid", ownerController.Delete())
	}
}
