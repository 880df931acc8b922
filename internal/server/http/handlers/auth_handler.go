package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/paperdesk/internal/server/http/dto"
	"github.com/polkiloo/paperdesk/internal/server/http/middleware"
	"github.com/polkiloo/paperdesk/internal/usecase"
)

// AuthHandler processes sign-up, sign-in and profile endpoints.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
		return
	}

	session, err := h.facade.Register(c.Request.Context(), usecase.SignUp{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondSession(c, http.StatusCreated, session)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email and password are required"})
		return
	}

	session, err := h.facade.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.respondSession(c, http.StatusOK, session)
}

func (h *AuthHandler) respondSession(c *gin.Context, status int, session *usecase.Session) {
	middleware.SetAuthCookie(c, session.Token, session.Claims.ExpiresAt)
	c.JSON(status, dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.Claims.ExpiresAt,
		Profile:   toProfileResponse(session.Profile),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := CurrentClaims(c)
	if !ok {
		c.Status(http.StatusUnauthorized)
		return
	}
	if err := h.facade.Logout(c.Request.Context(), claims); err != nil {
		writeError(c, err)
		return
	}
	middleware.ClearAuthCookie(c)
	c.Status(http.StatusNoContent)
}

// RequestPasswordReset handles POST /api/auth/password/forgot. The response
// does not reveal whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "email is required"})
		return
	}
	if err := h.facade.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// ResetPassword handles POST /api/auth/password/reset.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token and password are required"})
		return
	}
	if err := h.facade.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Profile handles GET /api/profile.
func (h *AuthHandler) Profile(c *gin.Context) {
	profile, err := h.facade.Profile(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	caps, err := h.facade.Capabilities(c.Request.Context(), profile.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := toProfileResponse(profile)
	resp.IsAdmin = caps.Admin
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile handles PATCH /api/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid payload"})
		return
	}
	profile, err := h.facade.UpdateProfile(c.Request.Context(), CurrentUserID(c), req.FirstName, req.LastName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(profile))
}
