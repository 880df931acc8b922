package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	"github.com/polkiloo/paperdesk/internal/orderform"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/server/http/dto"
	"github.com/polkiloo/paperdesk/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) uuid.UUID {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return uuid.Nil
	}
	id, _ := val.(uuid.UUID)
	return id
}

// CurrentClaims returns the verified session claims.
func CurrentClaims(c *gin.Context) (pkgAuth.Claims, bool) {
	val, ok := c.Get(middleware.ClaimsContextKey)
	if !ok {
		return pkgAuth.Claims{}, false
	}
	claims, ok := val.(pkgAuth.Claims)
	return claims, ok
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var formErrs orderform.Errors
	switch {
	case errors.As(err, &formErrs):
		fields := make(map[string]string, len(formErrs))
		for f, reason := range formErrs {
			fields[string(f)] = reason
		}
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid order", Fields: fields})
	case errors.Is(err, domainErrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found"})
	case errors.Is(err, domainErrors.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, domainErrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, pkgAuth.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrResetTokenInvalid):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "already exists"})
	case errors.Is(err, domainErrors.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrStatusConflict),
		errors.Is(err, domainErrors.ErrWriterUnavailable):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domainErrors.ErrInvalidOrder):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func toProfileResponse(p *model.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:              p.ID.String(),
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		FullName:        p.FullName(),
		IsWriter:        p.IsWriter,
		IsAdmin:         p.IsAdmin,
		Rating:          p.Rating.StringFixed(2),
		CompletedOrders: p.CompletedOrders,
		CreatedAt:       p.CreatedAt,
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            order.ID.String(),
		UserID:        order.UserID.String(),
		PaperType:     string(order.PaperType),
		AcademicLevel: string(order.AcademicLevel),
		Subject:       order.Subject,
		Topic:         order.Topic,
		Instructions:  order.Instructions,
		WordCount:     order.WordCount,
		SourceCount:   order.SourceCount,
		Urgency:       string(order.Urgency),
		Urgent:        order.Urgent,
		Price:         order.Price,
		Currency:      order.Currency,
		Deadline:      order.Deadline,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.WriterID != nil {
		resp.WriterID = order.WriterID.String()
	}
	for _, a := range order.Attachments {
		resp.Attachments = append(resp.Attachments, toAttachmentResponse(a))
	}
	return resp
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	return response
}

func toAttachmentResponse(a model.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:          a.ID.String(),
		OwnerID:     a.OwnerID.String(),
		FileName:    a.FileName,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
	}
}

func toDraft(req dto.DraftRequest) orderform.Draft {
	return orderform.Draft{
		PaperType:     model.PaperType(req.PaperType),
		AcademicLevel: model.AcademicLevel(req.AcademicLevel),
		Subject:       req.Subject,
		Urgency:       model.Urgency(req.Urgency),
		Topic:         req.Topic,
		Description:   req.Description,
		WordCount:     req.WordCount,
		SourceCount:   req.SourceCount,
	}
}
