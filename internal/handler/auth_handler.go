package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"phone_auth/internal/metrics"
	"phone_auth/internal/middleware"
	"phone_auth/internal/reqctx"
	"phone_auth/internal/service"
	"phone_auth/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service       service.AuthService
	metrics       *metrics.Metrics
	logger        *slog.Logger
	exposeDetails bool
}

// NewAuthHandler creates a new AuthHandler. exposeDetails adds the underlying
// error to 500 responses and must only be set in development.
func NewAuthHandler(s service.AuthService, m *metrics.Metrics, logger *slog.Logger, exposeDetails bool) *AuthHandler {
	return &AuthHandler{service: s, metrics: m, logger: logger, exposeDetails: exposeDetails}
}

type registerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}

	user, token, err := h.service.Register(c.Request.Context(), req.Name, req.Phone, req.Password)
	if err != nil {
		h.fail(c, "register", "Error registering user", err)
		return
	}

	h.record("register", metrics.OutcomeSuccess)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user.Registered(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		h.fail(c, "login", "Error logging in", err)
		return
	}

	h.record("login", metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.Public(),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.fail(c, "logout", "Error logging out", err)
		return
	}

	h.record("logout", metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the user the bearer token belongs to. Requires JWTAuthMiddleware.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "me", "Error loading user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, jwtAuthMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", jwtAuthMW, h.Me)
	}
}

// bind decodes the JSON body into dst. An empty body decodes to the zero value,
// so missing fields are reported by the service, not as a parse error.
func (h *AuthHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// fail maps a service error to its status. Client errors carry their own message;
// anything else is logged and answered with internalMsg.
func (h *AuthHandler) fail(c *gin.Context, op, internalMsg string, err error) {
	var status int
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		status = http.StatusBadRequest
	case service.KindAuthentication:
		status = http.StatusUnauthorized
	case service.KindNotFound:
		status = http.StatusNotFound
	default:
		utils.LogError(reqctx.Logger(c.Request.Context(), h.logger), op+" failed", err)
		h.record(op, metrics.OutcomeError)
		body := gin.H{"error": internalMsg}
		if h.exposeDetails {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	h.record(op, metrics.OutcomeRejected)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *AuthHandler) record(op, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuth(op, outcome)
	}
}
