package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/polkiloo/paperdesk/internal/adapter/paypal"
	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/server/http/dto"
)

const maxCheckoutAttachments = 10

// CheckoutHandler starts checkouts and receives the buyer's return from the
// payment gateway.
type CheckoutHandler struct {
	facade         CheckoutFacade
	frontendURL    string
	maxUploadBytes int64
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade, frontendURL string, maxUploadBytes int64) *CheckoutHandler {
	return &CheckoutHandler{facade: facade, frontendURL: strings.TrimRight(frontendURL, "/"), maxUploadBytes: maxUploadBytes}
}

// Start handles POST /api/checkout. The body is either the JSON order form
// or a multipart form with the same fields plus "attachments" files.
func (h *CheckoutHandler) Start(c *gin.Context) {
	var (
		req     dto.DraftRequest
		uploads []checkout.Upload
	)

	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order form"})
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order form"})
			return
		}
		files := form.File["attachments"]
		if len(files) > maxCheckoutAttachments {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "too many attachments"})
			return
		}
		for _, fh := range files {
			up, err := readUpload(fh, h.maxUploadBytes)
			if err != nil {
				respondUploadError(c, err)
				return
			}
			uploads = append(uploads, up)
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order form"})
		return
	}

	session, err := h.facade.StartCheckout(c.Request.Context(), checkout.Request{
		UserID:      CurrentUserID(c),
		Draft:       toDraft(req),
		Attachments: uploads,
	})
	if err != nil {
		var apiErr *paypal.APIError
		if errors.As(err, &apiErr) {
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "payment provider unavailable"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.CheckoutStartedResponse{
		CheckoutID: session.ID,
		OrderID:    session.OrderID.String(),
		ApproveURL: session.ApproveURL,
		Price:      session.Price,
		Currency:   model.Currency,
	})
}

// Return handles GET /api/checkout/return, where the gateway sends the buyer
// after approving.
func (h *CheckoutHandler) Return(c *gin.Context) {
	h.resolve(c, model.DecisionApproved)
}

// Cancel handles GET /api/checkout/cancel.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	h.resolve(c, model.DecisionCancelled)
}

func (h *CheckoutHandler) resolve(c *gin.Context, decision model.ApprovalDecision) {
	checkoutID := strings.TrimSpace(c.Query("token"))
	if checkoutID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
		return
	}
	if err := h.facade.ResolveApproval(c.Request.Context(), checkoutID, decision); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, h.frontendURL+"/checkout/"+checkoutID)
}

// Status handles GET /api/checkout/:id.
func (h *CheckoutHandler) Status(c *gin.Context) {
	snapshot, err := h.facade.CheckoutStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if snapshot.UserID != CurrentUserID(c) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutStatusResponse{
		CheckoutID: snapshot.ID,
		OrderID:    snapshot.OrderID.String(),
		Status:     string(snapshot.Status),
		Step:       snapshot.Step,
		Error:      snapshot.Error,
		ApproveURL: snapshot.ApproveURL,
		Redirect:   snapshot.Redirect,
		Price:      snapshot.Price,
		UpdatedAt:  snapshot.UpdatedAt,
	})
}
