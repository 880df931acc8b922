package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/paperdesk/internal/checkout"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/server/http/dto"
)

var errUploadTooLarge = errors.New("attachment too large")

// OrderHandler manages the order form and order dashboards.
type OrderHandler struct {
	facade         OrderFacade
	maxUploadBytes int64
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade, maxUploadBytes int64) *OrderHandler {
	return &OrderHandler{facade: facade, maxUploadBytes: maxUploadBytes}
}

// Catalog handles GET /api/catalog.
func (h *OrderHandler) Catalog(c *gin.Context) {
	resp := dto.CatalogResponse{MinWordCount: model.MinWordCount}
	for _, p := range model.PaperTypes() {
		resp.PaperTypes = append(resp.PaperTypes, dto.CatalogOption{Value: string(p), Label: p.Label()})
	}
	for _, l := range model.AcademicLevels() {
		resp.AcademicLevels = append(resp.AcademicLevels, dto.CatalogOption{Value: string(l), Label: l.Label()})
	}
	for _, u := range model.Urgencies() {
		resp.Urgencies = append(resp.Urgencies, dto.UrgencyOption{Value: string(u), Label: u.Label(), Days: u.Days(), Urgent: u.Urgent()})
	}
	c.JSON(http.StatusOK, resp)
}

// Quote handles POST /api/quote. Incomplete forms still get a price so the
// form can update as the client types.
func (h *OrderHandler) Quote(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}

	draft := toDraft(req)
	breakdown, problems := h.facade.Quote(draft)
	resp := dto.QuoteResponse{
		Price:             breakdown.Total,
		Currency:          model.Currency,
		BaseRate:          breakdown.BaseRate,
		UrgencyMultiplier: breakdown.UrgencyMultiplier,
		PaperMultiplier:   breakdown.PaperMultiplier,
		SourceFactor:      breakdown.SourceFactor,
		Valid:             len(problems) == 0,
	}
	if resp.Valid {
		resp.Description = model.Describe(draft.PaperType, draft.AcademicLevel, draft.WordCount, draft.Urgency)
	} else {
		resp.Errors = make(map[string]string, len(problems))
		for f, reason := range problems {
			resp.Errors[string(f)] = reason
		}
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// WriterList handles GET /api/writer/orders.
func (h *OrderHandler) WriterList(c *gin.Context) {
	orders, err := h.facade.WriterOrders(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentUserID(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// AddAttachment handles POST /api/orders/:id/attachments with a multipart
// "file" field.
func (h *OrderHandler) AddAttachment(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file is required"})
		return
	}
	up, err := readUpload(fh, h.maxUploadBytes)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	attachment, err := h.facade.AddAttachment(c.Request.Context(), CurrentUserID(c), orderID, up)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAttachmentResponse(*attachment))
}

// DownloadAttachment handles GET /api/attachments/:id.
func (h *OrderHandler) DownloadAttachment(c *gin.Context) {
	attachmentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	attachment, body, err := h.facade.OpenAttachment(c.Request.Context(), CurrentUserID(c), attachmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer body.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, attachment.SizeBytes, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s", strconv.Quote(attachment.FileName)),
	})
}

// readUpload buffers the file. Multipart temp files are removed when the
// request ends, and checkout uploads run after that.
func readUpload(fh *multipart.FileHeader, maxBytes int64) (checkout.Upload, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return checkout.Upload{}, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return checkout.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return checkout.Upload{}, err
	}
	return checkout.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func respondUploadError(c *gin.Context, err error) {
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unreadable attachment"})
}
