package controllers

import (
	"net/http"

	"github.com/atelier-jewels/atelier-api/middleware"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// UserController signs roster users in and out of sessions and serves their profile
type UserController struct {
	sessions *services.SessionService
}

// NewUserController creates a UserController
func NewUserController(sessions *services.SessionService) *UserController {
	return &UserController{sessions: sessions}
}

// Login handles POST /api/v1/auth/login - signs a roster user into the current session
// When Auth0 is enabled the bearer token's verified email must match the requested one.
func (uc *UserController) Login(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	req.SessionID = session
	req.AccessToken = middleware.GetAccessToken(c)

	user, err := uc.sessions.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to sign in")
		return
	}
	respondData(c, http.StatusOK, user)
}

// Logout handles POST /api/v1/auth/logout
func (uc *UserController) Logout(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	if err := uc.sessions.Logout(c.Request.Context(), session); err != nil {
		respondServiceError(c, err, "Failed to sign out")
		return
	}
	respondData(c, http.StatusOK, gin.H{"logged_out": true})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func (uc *UserController) GetMyProfile(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	user, err := uc.sessions.Profile(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to load profile")
		return
	}
	respondData(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func (uc *UserController) UpdateMyProfile(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := uc.sessions.UpdateProfile(c.Request.Context(), session, patch)
	if err != nil {
		respondServiceError(c, err, "Failed to update user profile")
		return
	}
	respondData(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users - the roster, admins only
func (uc *UserController) ListUsers(c *gin.Context) {
	session, ok := sessionID(c)
	if !ok {
		return
	}

	users, err := uc.sessions.ListUsers(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve users")
		return
	}
	respondData(c, http.StatusOK, users)
}
