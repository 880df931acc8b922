package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/server/http/dto"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// AdminHandler serves the staff dashboard.
type AdminHandler struct {
	facade AdminFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade AdminFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Orders handles GET /api/admin/orders?status=.
func (h *AdminHandler) Orders(c *gin.Context) {
	listing := h.facade.DashboardOrders(c.Request.Context(), model.OrderStatus(c.Query("status")))
	c.JSON(http.StatusOK, convertListing(listing, toOrderResponse))
}

// Clients handles GET /api/admin/clients.
func (h *AdminHandler) Clients(c *gin.Context) {
	listing := h.facade.DashboardClients(c.Request.Context())
	c.JSON(http.StatusOK, convertListing(listing, profileValue))
}

// Writers handles GET /api/admin/writers.
func (h *AdminHandler) Writers(c *gin.Context) {
	listing := h.facade.DashboardWriters(c.Request.Context())
	c.JSON(http.StatusOK, convertListing(listing, profileValue))
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	listing := h.facade.DashboardStats(c.Request.Context())
	resp := dto.StatsResponse{Available: listing.Available, Reason: listing.Reason, ByStatus: []dto.StatusCountResponse{}}
	for _, row := range listing.Items {
		resp.Total += row.Count
		resp.ByStatus = append(resp.ByStatus, dto.StatusCountResponse{Status: string(row.Status), Count: row.Count})
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeStatus handles PATCH /api/admin/orders/:id/status.
func (h *AdminHandler) ChangeStatus(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "status is required"})
		return
	}
	order, err := h.facade.ChangeOrderStatus(c.Request.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// AssignWriter handles PUT /api/admin/orders/:id/writer.
func (h *AdminHandler) AssignWriter(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignWriterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "writer_id must be a uuid"})
		return
	}
	order, err := h.facade.AssignWriter(c.Request.Context(), orderID, uuid.MustParse(req.WriterID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

func profileValue(p model.Profile) dto.ProfileResponse {
	return toProfileResponse(&p)
}

func convertListing[T, R any](in usecase.Listing[T], convert func(T) R) dto.Listing[R] {
	out := dto.Listing[R]{Available: in.Available, Reason: in.Reason, Items: make([]R, 0, len(in.Items))}
	for _, item := range in.Items {
		out.Items = append(out.Items, convert(item))
	}
	return out
}
