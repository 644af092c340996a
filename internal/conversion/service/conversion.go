package service

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/conversion/biz"
	"github.com/digitora/marketplace-backend/internal/pkg/response"
)

type ConversionService struct {
	converter *biz.Converter
	usage     *biz.UsageUseCase
	logger    *zap.Logger
}

func NewConversionService(converter *biz.Converter, usage *biz.UsageUseCase, logger *zap.Logger) *ConversionService {
	return &ConversionService{
		converter: converter,
		usage:     usage,
		logger:    logger,
	}
}

// ConvertRequest 转换请求体
type ConvertRequest struct {
	TargetKind string `json:"target_kind" binding:"required"`
	TargetLang string `json:"target_language" binding:"required"`
}

// Convert 转换商品到目标格式和语言
func (s *ConversionService) Convert(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("id")

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid parameters")
		return
	}

	s.logger.Info("conversion requested",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.String("target_kind", req.TargetKind),
		zap.String("target_language", req.TargetLang))

	result, err := s.converter.Resolve(c.Request.Context(), &biz.ConvertRequest{
		UserID:     userID,
		ProductID:  productID,
		TargetKind: req.TargetKind,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		s.logger.Error("conversion failed",
			zap.String("product_id", productID),
			zap.String("target_kind", req.TargetKind),
			zap.String("target_language", req.TargetLang),
			zap.Error(err))
		response.HandleError(c, err)
		return
	}

	version := result.Version
	payload := gin.H{
		"version_id":    version.ID,
		"data_kind":     version.DataKind,
		"language_code": version.LanguageCode,
		"cache_hit":     result.CacheHit,
	}
	if version.IsText() {
		payload["content"] = version.TextContent
	}

	response.Success(c, payload)
}

// ListUsage 查询 AI 调用记录
func (s *ConversionService) ListUsage(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := s.usage.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	items := make([]gin.H, len(records))
	for i, r := range records {
		items[i] = gin.H{
			"product_id":      r.ProductID,
			"target_kind":     r.TargetKind,
			"target_language": r.TargetLanguage,
			"cache_hit":       r.CacheHit,
			"created_at":      r.CreatedAt,
		}
	}

	response.Success(c, items)
}
