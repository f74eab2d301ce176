package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/services"
	"rentora-api-io/api/pkg/util"
)

// AdminVerificationController exposes the platform-admin review surface.
type AdminVerificationController struct {
	adminService services.AdminReviewService
}

func InitAdminVerificationController(as services.AdminReviewService) *AdminVerificationController {
	return &AdminVerificationController{adminService: as}
}

// ListRequests supports status/category filters and email search with
// pagination.
func (ac *AdminVerificationController) ListRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		filter := services.RequestFilter{Search: c.Query("search")}
		if status := c.Query("status"); status != "" {
			parsed, err := models.ParseRequestStatus(status)
			if err != nil {
				util.HandleError(c, http.StatusUnprocessableEntity, err)
				return
			}
			filter.Status = parsed
		}
		if category := c.Query("category"); category != "" {
			parsed, err := models.ParseRequesterCategory(category)
			if err != nil {
				util.HandleError(c, http.StatusUnprocessableEntity, err)
				return
			}
			filter.Category = parsed
		}

		page := paginationArgs(c)
		requests, count, err := ac.adminService.ListRequests(ctx, filter, page)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		pagination := util.Pagination{Limit: page.Limit, Skip: page.Skip, Count: count}
		util.HandleSuccessMeta(c, http.StatusOK, "successful", requests, pagination)
	}
}

func (ac *AdminVerificationController) GetRequestDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		detail, err := ac.adminService.GetRequestDetail(ctx, requestId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", detail)
	}
}

func (ac *AdminVerificationController) Approve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		if err := ac.adminService.Approve(ctx, requestId, myId); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "request approved", nil)
	}
}

func (ac *AdminVerificationController) Reject() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		var body models.RejectRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}
		if err := Validate.Struct(&body); err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		if err := ac.adminService.Reject(ctx, requestId, myId, body.Reason); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "request rejected", nil)
	}
}

// GetDocumentURL returns a short-lived signed download link and audits the
// access.
func (ac *AdminVerificationController) GetDocumentURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		documentId, err := objectIDParam(c, "documentid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		url, err := ac.adminService.DocumentURL(ctx, documentId, myId.Hex())
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", gin.H{"url": url})
	}
}

func (ac *AdminVerificationController) ProviderAnalytics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		stats, err := ac.adminService.ProviderAnalytics(ctx)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", stats)
	}
}

func (ac *AdminVerificationController) DeleteRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		deleted, err := ac.adminService.DeleteRequest(ctx, requestId, myId.Hex())
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "request deleted", gin.H{"deletedDocuments": deleted})
	}
}
