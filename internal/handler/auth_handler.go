package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/middleware"
	"github.com/billbuzz/billbuzz/shared/models"
)

// SessionCommander defines the write-side session operations used by AuthHandler.
type SessionCommander interface {
	Login(context.Context, cqrs.LoginCommand) (*models.User, error)
	Signup(context.Context, cqrs.SignupCommand) (*models.User, error)
	Logout(context.Context)
}

// SessionQuerier defines the read-side session operations used by AuthHandler.
type SessionQuerier interface {
	CurrentUser(cqrs.CurrentUserQuery) (*models.User, error)
}

type TokenIssuer interface {
	Issue(*models.User) (string, error)
}

// AuthHandler opens and closes the single local session. Credentials are
// not verified.
type AuthHandler struct {
	commands SessionCommander
	queries  SessionQuerier
	tokens   TokenIssuer
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Address         string `json:"address"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewAuthHandler(commands SessionCommander, queries SessionQuerier, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{commands: commands, queries: queries, tokens: tokens}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if middleware.RespondWithCommandError(c, err) {
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	user, err := h.commands.Signup(c.Request.Context(), cqrs.SignupCommand{
		Name:     req.Name,
		Email:    req.Email,
		Address:  req.Address,
		Password: req.Password,
	})
	if err != nil {
		if middleware.RespondWithCommandError(c, err) {
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to sign up")
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.commands.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.queries.CurrentUser(cqrs.CurrentUserQuery{})
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not signed in")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Refresh reissues a token for the signed-in user.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, err := h.queries.CurrentUser(cqrs.CurrentUserQuery{})
	if err != nil {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Not signed in")
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}
