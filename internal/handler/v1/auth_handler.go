package v1

import (
	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

type createUserRequest struct {
	Email     string      `json:"email" binding:"required"`
	Password  string      `json:"password" binding:"required"`
	FirstName string      `json:"first_name" binding:"required"`
	LastName  string      `json:"last_name" binding:"required"`
	Role      domain.Role `json:"role" binding:"required"`
}

type userResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Role        domain.Role        `json:"role"`
	Permissions domain.Permissions `json:"permissions"`
	IsActive    bool               `json:"is_active"`
}

func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authSvc.CreateUser(
		c.Request.Context(),
		req.Email, req.Password, req.FirstName, req.LastName, req.Role,
		claimsFrom(c), c.ClientIP(),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, userResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.Role,
		Permissions: user.Permissions,
		IsActive:    user.IsActive,
	})
}

type updatePermissionsRequest struct {
	Permissions domain.Permissions `json:"permissions" binding:"required"`
}

func (h *AuthHandler) UpdatePermissions(c *gin.Context) {
	userID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.UpdatePermissions(c.Request.Context(), userID, req.Permissions, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": true})
}
