package controllers

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/collegeerp/internal/middleware"
	"github.com/yigit/collegeerp/internal/pkg/filestorage"
)

// StorageController serves public object URLs
type StorageController struct {
	storage filestorage.ObjectStorage
}

// NewStorageController creates a new StorageController
func NewStorageController(storage filestorage.ObjectStorage) *StorageController {
	return &StorageController{storage: storage}
}

// Serve streams a stored object
// @Summary Download a stored object
// @Tags storage
// @Produce octet-stream
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid path"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Object not found"
// @Router /storage/{bucket}/{path} [get]
func (c *StorageController) Serve(ctx *gin.Context) {
	bucket := ctx.Param("bucket")
	objectPath := strings.TrimPrefix(ctx.Param("path"), "/")

	rc, err := c.storage.Open(bucket, objectPath)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
