package api

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type quantityRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// listProducts returns the catalog, optionally filtered by ?category=
func (h *Handler) listProducts(c *gin.Context) {
	category := c.DefaultQuery("category", models.AllCategories)
	c.JSON(http.StatusOK, gin.H{
		"products": h.catalog.Filter(category),
	})
}

func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.catalog.Categories(),
	})
}

func (h *Handler) createSession(c *gin.Context) {
	session, err := h.ordering.CreateSession(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID})
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.ordering.GetCart(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// addItem appends a customized product to the cart
func (h *Handler) addItem(c *gin.Context) {
	var req service.AddItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, itemID, err := h.ordering.AddItem(c.Request.Context(), c.Param("sid"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"cart_item_id": itemID,
		"cart":         view,
	})
}

func (h *Handler) updateQuantity(c *gin.Context) {
	var req quantityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.ordering.UpdateQuantity(c.Request.Context(), c.Param("sid"), c.Param("itemId"), req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateItem(c *gin.Context) {
	var req service.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.ordering.UpdateItem(c.Request.Context(), c.Param("sid"), c.Param("itemId"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeItem(c *gin.Context) {
	view, err := h.ordering.RemoveItem(c.Request.Context(), c.Param("sid"), c.Param("itemId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) getCheckout(c *gin.Context) {
	view, err := h.ordering.GetCheckout(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) setCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.ordering.SetCustomer(c.Request.Context(), c.Param("sid"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) nextStep(c *gin.Context) {
	view, err := h.ordering.NextStep(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) prevStep(c *gin.Context) {
	view, err := h.ordering.PrevStep(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// send hands the order off and returns the chat link to open
func (h *Handler) send(c *gin.Context) {
	res, err := h.ordering.Send(c.Request.Context(), c.Param("sid"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
