package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/services"
	"rentora-api-io/api/pkg/util"
)

// OwnerVerificationController exposes the property-owner review surface.
// Every operation is scoped to tenants linked to the authenticated owner.
type OwnerVerificationController struct {
	ownerService services.OwnerReviewService
}

func InitOwnerVerificationController(os services.OwnerReviewService) *OwnerVerificationController {
	return &OwnerVerificationController{ownerService: os}
}

func (oc *OwnerVerificationController) ListTenantRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		filter := services.RequestFilter{Search: c.Query("search")}
		if status := c.Query("status"); status != "" {
			parsed, err := models.ParseRequestStatus(status)
			if err != nil {
				util.HandleError(c, http.StatusUnprocessableEntity, err)
				return
			}
			filter.Status = parsed
		}

		page := paginationArgs(c)
		requests, count, err := oc.ownerService.ListTenantRequests(ctx, myId, filter, page)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		pagination := util.Pagination{Limit: page.Limit, Skip: page.Skip, Count: count}
		util.HandleSuccessMeta(c, http.StatusOK, "successful", requests, pagination)
	}
}

func (oc *OwnerVerificationController) GetTenantDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		tenantId, err := objectIDParam(c, "tenantid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		detail, err := oc.ownerService.TenantDetail(ctx, myId, tenantId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", detail)
	}
}

func (oc *OwnerVerificationController) Analytics() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		analytics, err := oc.ownerService.Analytics(ctx, myId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", analytics)
	}
}

func (oc *OwnerVerificationController) Approve() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		tenantId, err := objectIDParam(c, "tenantid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		if err := oc.ownerService.Approve(ctx, myId, tenantId); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "tenant approved", nil)
	}
}

func (oc *OwnerVerificationController) Reject() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		tenantId, err := objectIDParam(c, "tenantid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
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

		if err := oc.ownerService.Reject(ctx, myId, tenantId, body.Reason); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "tenant rejected", nil)
	}
}

// RequestResubmission reopens a tenant's request so documents can be uploaded
// again.
func (oc *OwnerVerificationController) RequestResubmission() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		tenantId, err := objectIDParam(c, "tenantid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		if err := oc.ownerService.RequestResubmission(ctx, myId, tenantId); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "resubmission requested", nil)
	}
}

func (oc *OwnerVerificationController) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		tenantId, err := objectIDParam(c, "tenantid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		if err := oc.ownerService.Delete(ctx, myId, tenantId); err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "tenant verification deleted", nil)
	}
}
