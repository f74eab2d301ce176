package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/services"
	"rentora-api-io/api/pkg/util"
)

// VerificationController exposes the customer-facing verification surface.
type VerificationController struct {
	verificationService services.VerificationService
}

func InitVerificationController(vs services.VerificationService) *VerificationController {
	return &VerificationController{verificationService: vs}
}

// CreateRequest opens (or returns the already-open) verification request for
// the authenticated user.
func (vc *VerificationController) CreateRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		req, err := vc.verificationService.CreateRequest(ctx, myId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", req)
	}
}

// UploadDocument accepts a multipart document submission. The response only
// vouches for durable storage of the file and the pending document row;
// verification outcome is observed by polling status or history.
func (vc *VerificationController) UploadDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		var form models.UploadDocumentForm
		if err := c.ShouldBind(&form); err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}
		if err := Validate.Struct(&form); err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		documentType, err := models.ParseDocumentType(form.DocumentType)
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, services.ErrInvalidDocumentType)
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, errors.Wrap(err, "a document file is required"))
			return
		}
		if fileHeader.Size > MaxDocumentBytes {
			util.HandleError(c, http.StatusRequestEntityTooLarge, errors.New("document file is too large"))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			util.HandleError(c, http.StatusInternalServerError, err)
			return
		}
		defer file.Close()

		doc, err := vc.verificationService.UploadDocument(ctx, requestId, services.UploadDocumentInput{
			Type:     documentType,
			FileName: fileHeader.Filename,
			MimeType: fileHeader.Header.Get("Content-Type"),
			FileSize: fileHeader.Size,
			File:     file,
			Number:   form.DocumentNumber,
			Metadata: models.DocumentMetadata{
				FirstName: form.FirstName,
				LastName:  form.LastName,
				DOB:       form.DOB,
				Country:   form.Country,
			},
		})
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusAccepted, "document received", doc)
	}
}

func (vc *VerificationController) GetStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		status, err := vc.verificationService.GetStatus(ctx, requestId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", status)
	}
}

func (vc *VerificationController) GetHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		requestId, err := objectIDParam(c, "requestid")
		if err != nil {
			util.HandleError(c, http.StatusUnprocessableEntity, err)
			return
		}

		history, err := vc.verificationService.GetHistory(ctx, requestId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", history)
	}
}

// GetMyLatestRequest returns the caller's most recent verification request.
func (vc *VerificationController) GetMyLatestRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), REQ_TIMEOUT_SECS)
		defer cancel()

		myId, err := currentUserID(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			return
		}

		req, err := vc.verificationService.GetLatestByRequester(ctx, myId)
		if err != nil {
			util.HandleError(c, services.HTTPStatus(err), err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "successful", req)
	}
}
