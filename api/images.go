package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	internalS3 "silentbid/adapters/s3"
	"silentbid/models"
)

// Upload an auction item image
// (POST /admin/images)
func (impl *ServerImpl) PostAdminImage(c *gin.Context) {
	const op = "PostAdminImage"
	claims, ok := impl.requireAdmin(c)
	if !ok {
		return
	}
	adminID, err := uuid.Parse(claims.Subject)
	if err != nil {
		slog.Error("Invalid subject in JWT", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	// 檢查是否達到上傳限制
	var uploadedCount int64
	if result := impl.db.Model(&models.Image{UploaderID: adminID}).Where("created_at > ?", time.Now().Add(-1*time.Hour)).Count(&uploadedCount); result.Error != nil {
		slog.Error("Fail to count uploaded images", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if impl.config.S3.RateLimitPerHour > 0 && uploadedCount >= impl.config.S3.RateLimitPerHour {
		c.Status(http.StatusTooManyRequests)
		return
	}
	// 限制圖片
	// 	1. 小於5MB
	// 	2. MIME類型為不包含腳本的圖片檔案
	body := internalS3.NewMaxSizeReader(c.Request.Body, 5<<20)
	file, err := io.ReadAll(body)
	if errors.As(err, &internalS3.ErrReachLimitType) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Fail to read image", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	mimeType := http.DetectContentType(file)
	secure, ext := internalS3.CheckSecureImageAndGetExtension(mimeType)
	if !secure {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image type: " + mimeType})
		return
	}
	// 透過S3 API儲存圖片
	url, err := impl.s3Operator.UploadFileToS3(c.Request.Context(), uuid.New().String()+"."+ext, mimeType, file)
	if err != nil {
		slog.Error("Fail to upload image", slog.String("op", op), slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	// 在DB紀錄圖片的上傳紀錄
	image := models.Image{
		UploaderID: adminID,
		Url:        url,
	}
	if result := impl.db.Create(&image); result.Error != nil {
		slog.Error("Fail to create image", slog.String("op", op), slog.Any("error", result.Error))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Location", url)
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
