package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/snapcheck/internal/usecase"
)

// MaxUploadSize bounds an uploaded photo. The booth compresses captures
// well below this; anything larger is not a booth client.
const MaxUploadSize = 10 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.ProcessUseCase, photosDir string) {
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	})

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "Only POST method is allowed"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.OPTIONS("/process", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Methods", "POST")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Max-Age", "3600")
		c.Status(http.StatusNoContent)
	})

	router.POST("/process", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

		file, err := c.FormFile("photo")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "Photo too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No photo file provided"})
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		mimeType, ok := allowedExtensions[ext]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid file type. Only JPG, JPEG, and PNG are allowed"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No photo file provided"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error: " + err.Error()})
			return
		}

		result, err := uc.Process(c.Request.Context(), data, mimeType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"requestId":      result.RequestID,
			"imageUrl":       result.ImageURL,
			"frameStyle":     result.FrameStyle,
			"analysisResult": result.AnalysisResult,
			"message":        result.Message,
		})
	})

	router.GET("/photos", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a number"})
			return
		}

		records, err := uc.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error: " + err.Error()})
			return
		}

		photos := make([]gin.H, 0, len(records))
		for _, record := range records {
			photos = append(photos, gin.H{
				"requestId":  record.RequestID,
				"verdict":    record.Verdict,
				"frameStyle": record.FrameStyle,
				"imageUrl":   record.ImageURL,
				"createdAt":  record.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "photos": photos})
	})

	router.GET("/metrics", func(c *gin.Context) {
		summary, err := uc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	if photosDir != "" {
		router.Static("/photos/files", photosDir)
	}
}
