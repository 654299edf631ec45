package api

import (
	"io"
	"net/http"
	"strconv"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type replaceProductsRequest struct {
	Products []models.Product `json:"products"`
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) adminListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products":       h.catalog.Products(),
		"categories":     h.catalog.Categories(),
		"using_fallback": h.catalog.UsingFallback(),
	})
}

// replaceProducts makes the stored catalog match the submitted list exactly
func (h *Handler) replaceProducts(c *gin.Context) {
	var req replaceProductsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	saved, err := h.catalog.ReplaceAll(c.Request.Context(), req.Products)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": saved})
}

func (h *Handler) createProduct(c *gin.Context) {
	var p models.Product
	if !h.bindJSON(c, &p) {
		return
	}

	created, err := h.catalog.CreateProduct(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) updateProduct(c *gin.Context) {
	patch, err := catalog.DecodePatch(c.Request.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	name, err := h.catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name})
}

// deleteCategory removes a category; ?cascade=true also deletes its products
func (h *Handler) deleteCategory(c *gin.Context) {
	cascade, err := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
	if err != nil {
		h.respondError(c, apperr.Validation("cascade must be true or false"))
		return
	}

	deleted, err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("name"), cascade)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products_deleted": deleted})
}

// uploadImage stores the multipart "image" file under the "category" folder
func (h *Handler) uploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		util.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		h.respondError(c, apperr.Validation("no file received"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		util.ImageUploadsTotal.WithLabelValues("failed").Inc()
		h.respondError(c, err)
		return
	}
	defer f.Close()

	// one byte past the limit is enough for the store to reject it
	data, err := io.ReadAll(io.LimitReader(f, h.images.MaxBytes()+1))
	if err != nil {
		util.ImageUploadsTotal.WithLabelValues("failed").Inc()
		h.respondError(c, err)
		return
	}

	res, err := h.images.Upload(c.Request.Context(), fh.Filename, data, fh.Header.Get("Content-Type"), c.PostForm("category"))
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			util.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		} else {
			util.ImageUploadsTotal.WithLabelValues("failed").Inc()
		}
		h.logger.Warn("Image upload failed", zap.String("file", fh.Filename), zap.Error(err))
		h.respondError(c, err)
		return
	}

	util.ImageUploadsTotal.WithLabelValues("stored").Inc()
	c.JSON(http.StatusOK, res)
}
