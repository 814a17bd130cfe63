package handlers

import (
	"net/http"
	"strings"

	"athletehub-api/internal/adapters/storage"
	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/auth"
	"athletehub-api/pkg/lambda"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocalFileHandler accepts uploads to, and serves files from, local
// storage. It completes the presigned URL flow when S3 is not available.
type LocalFileHandler struct {
	files  *storage.LocalFileStorage
	logger *logrus.Logger
}

// NewLocalFileHandler creates a new local file handler
func NewLocalFileHandler(files *storage.LocalFileStorage, logger *logrus.Logger) *LocalFileHandler {
	return &LocalFileHandler{files: files, logger: logger}
}

// Register mounts the handler under group with a *key wildcard
func (h *LocalFileHandler) Register(group gin.IRoutes) {
	group.PUT("/*key", h.Upload)
	group.GET("/*key", h.Download)
}

// Upload stores the request body under the key of an unexpired upload URL
func (h *LocalFileHandler) Upload(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if h.files.Expired(c.Query("expires")) {
		c.JSON(http.StatusForbidden, lambda.ErrorBody{Error: "Forbidden", Message: "upload URL has expired"})
		return
	}

	if err := h.files.Store(c.Request.Context(), key, c.Request.Body); err != nil {
		h.writeError(c, "Store", err)
		return
	}

	h.logger.WithField("key", key).Info("Stored local upload")
	c.Status(http.StatusOK)
}

// Download serves a stored file
func (h *LocalFileHandler) Download(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	path, err := h.files.Path(key)
	if err != nil {
		h.writeError(c, "Path", err)
		return
	}
	c.File(path)
}

func (h *LocalFileHandler) writeError(c *gin.Context, op string, err error) {
	appErr := storage.ToAppError(op, err)
	status := apperrors.StatusCode(appErr)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("op", op).Error("Local storage failure")
	}
	c.JSON(status, lambda.ErrorBody{Error: apperrors.Title(appErr), Message: appErr.Error()})
}

// DevTokenHandler issues bearer tokens for local development
type DevTokenHandler struct {
	tokens *auth.TokenService
}

// NewDevTokenHandler creates a new dev token handler
func NewDevTokenHandler(tokens *auth.TokenService) *DevTokenHandler {
	return &DevTokenHandler{tokens: tokens}
}

type devTokenRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	Email      string   `json:"email" validate:"omitempty,email"`
	Groups     []string `json:"groups"`
	CustomRole string   `json:"customRole" validate:"omitempty,oneof=coach athlete"`
}

// Issue signs a token for the requested identity
func (h *DevTokenHandler) Issue(c *gin.Context) {
	var body devTokenRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, lambda.ErrorBody{Error: "Malformed payload", Message: "request body is not valid JSON"})
		return
	}
	if err := validateStruct(&body); err != nil {
		c.JSON(http.StatusBadRequest, lambda.ErrorBody{Error: apperrors.Title(err), Message: err.Error()})
		return
	}

	token, err := h.tokens.GenerateToken(body.UserID, body.Email, body.Groups, body.CustomRole)
	if err != nil {
		c.JSON(http.StatusInternalServerError, lambda.ErrorBody{Error: "Internal server error", Message: "failed to sign token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "tokenType": "Bearer"})
}
