package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/internal/auth"
	"rentora-api-io/api/pkg/util"
)

var Validate = validator.New()

const (
	REQ_TIMEOUT_SECS = 50 * time.Second

	// Upload payloads are small scans or photos; anything larger is a bad
	// request, not a legitimate document.
	MaxDocumentBytes = 15 << 20
)

// objectIDParam parses an ObjectID path parameter.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "invalid %s", name)
	}
	return id, nil
}

// currentUserID extracts the authenticated caller's id from their claims.
func currentUserID(c *gin.Context) (primitive.ObjectID, error) {
	claims, err := auth.ClaimsFrom(c)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, err := primitive.ObjectIDFromHex(claims.Id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "invalid user id in token")
	}
	return id, nil
}

// paginationArgs reads limit/skip query params with sane defaults.
func paginationArgs(c *gin.Context) util.PaginationArgs {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	return util.PaginationArgs{Limit: limit, Skip: skip, Sort: c.DefaultQuery("sort", "-created_at")}
}
