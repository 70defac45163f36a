package server

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mheran/vegclass/config"
	"github.com/mheran/vegclass/service"
)

// Predictor is the slice of the classifier the transport needs,
// injected so handlers are testable without a loaded model.
type Predictor interface {
	Ready() bool
	Classify(raw []byte) (*service.Prediction, error)
}

type Handler struct {
	predictor Predictor
}

func New(p Predictor) *Handler {
	return &Handler{predictor: p}
}

var errUnauthorized = errors.New("unauthorized")

func authenticate(c *gin.Context) error {
	auth := c.GetHeader("Authorization")

	expectedToken := config.C().Token
	if expectedToken == "" {
		return nil
	}
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
		return errUnauthorized
	}

	return nil
}

func isAllowedType(contentType string) bool {
	for _, t := range config.C().AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func (h *Handler) Predict(c *gin.Context) {
	if err := authenticate(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if !h.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not available"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	if fileHeader.Size > config.C().MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file size exceeds limit"})
		return
	}

	if contentType := fileHeader.Header.Get("Content-Type"); !isAllowedType(contentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image format. Allowed: JPEG, PNG, WebP"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	pred, err := h.predictor.Classify(raw)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrModelUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not available"})
		case errors.Is(err, service.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Prediction failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, pred)
}

func (h *Handler) Health(c *gin.Context) {
	status := "healthy"
	if !h.predictor.Ready() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"model_loaded": h.predictor.Ready(),
	})
}
