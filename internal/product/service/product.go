package service

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/pkg/response"
	"github.com/digitora/marketplace-backend/internal/product/biz"
)

type ProductService struct {
	useCase *biz.ProductUseCase
	logger  *zap.Logger
}

func NewProductService(useCase *biz.ProductUseCase, logger *zap.Logger) *ProductService {
	return &ProductService{
		useCase: useCase,
		logger:  logger,
	}
}

// ProductResponse 商品响应
type ProductResponse struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OriginalKind     string    `json:"original_kind"`
	OriginalLanguage string    `json:"original_language"`
	Filename         string    `json:"filename"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	Featured         bool      `json:"featured"`
	CreatedAt        time.Time `json:"created_at"`
}

// VersionResponse 商品版本响应
type VersionResponse struct {
	ID           string    `json:"id"`
	DataKind     string    `json:"data_kind"`
	LanguageCode string    `json:"language_code"`
	IsOriginal   bool      `json:"is_original"`
	FileSize     int64     `json:"file_size,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadProduct 上传商品
func (s *ProductService) UploadProduct(c *gin.Context) {
	userID := c.GetString("user_id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid file or field name is not 'file'")
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	req := &biz.UploadProductRequest{
		Title:            c.PostForm("title"),
		Description:      c.PostForm("description"),
		OriginalKind:     c.PostForm("kind"),
		OriginalLanguage: c.PostForm("language"),
		Filename:         header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		Data:             fileData,
	}

	if thumb, thumbHeader, err := c.Request.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		thumbData, err := io.ReadAll(thumb)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "failed to read thumbnail")
			return
		}
		req.Thumbnail = thumbData
		req.ThumbnailType = thumbHeader.Header.Get("Content-Type")
	}

	if req.Title == "" {
		req.Title = header.Filename
	}

	s.logger.Info("product upload",
		zap.String("user_id", userID),
		zap.String("filename", header.Filename),
		zap.String("kind", req.OriginalKind),
		zap.Int("file_size", len(fileData)))

	product, err := s.useCase.Upload(c.Request.Context(), userID, req)
	if err != nil {
		s.logger.Error("failed to upload product", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Created(c, toProductResponse(product))
}

// ListProducts 分页查询商品
func (s *ProductService) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	products, total, err := s.useCase.List(c.Request.Context(), &biz.ListProductsRequest{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
	})
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"items": toProductResponses(products),
		"total": total,
	})
}

// ListFeatured 查询推荐商品
func (s *ProductService) ListFeatured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, err := s.useCase.ListFeatured(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list featured products", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, toProductResponses(products))
}

// ListMine 查询当前用户的商品
func (s *ProductService) ListMine(c *gin.Context) {
	userID := c.GetString("user_id")

	products, err := s.useCase.ListMine(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list own products", zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, toProductResponses(products))
}

// GetProduct 查询商品详情
func (s *ProductService) GetProduct(c *gin.Context) {
	id := c.Param("id")

	product, versions, err := s.useCase.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	versionResponses := make([]VersionResponse, len(versions))
	for i, v := range versions {
		versionResponses[i] = VersionResponse{
			ID:           v.ID,
			DataKind:     v.DataKind,
			LanguageCode: v.LanguageCode,
			IsOriginal:   v.IsOriginal,
			FileSize:     v.FileSize,
			ContentType:  v.ContentType,
			CreatedAt:    v.CreatedAt,
		}
	}

	response.Success(c, gin.H{
		"product":  toProductResponse(product),
		"versions": versionResponses,
	})
}

// DeleteProduct 删除商品
func (s *ProductService) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetString("user_id")

	if err := s.useCase.Delete(c.Request.Context(), id, userID); err != nil {
		s.logger.Error("failed to delete product", zap.String("product_id", id), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": id})
}

// StreamProduct 获取商品原始内容的临时访问地址
func (s *ProductService) StreamProduct(c *gin.Context) {
	id := c.Param("id")

	url, err := s.useCase.Stream(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, gin.H{"url": url})
}

// DownloadVersion 下载指定版本
func (s *ProductService) DownloadVersion(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("id")
	dataKind := c.Query("kind")
	languageCode := c.Query("language")

	version, url, err := s.useCase.Download(c.Request.Context(), userID, productID, dataKind, languageCode)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	if version.IsText() {
		response.Success(c, gin.H{
			"version": toVersionDetail(version),
			"content": version.TextContent,
		})
		return
	}

	response.Success(c, gin.H{
		"version": toVersionDetail(version),
		"url":     url,
	})
}

// ListDownloads 查询下载历史
func (s *ProductService) ListDownloads(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := s.useCase.ListDownloads(c.Request.Context(), userID, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	items := make([]gin.H, len(records))
	for i, r := range records {
		items[i] = gin.H{
			"product_id":    r.ProductID,
			"version_id":    r.VersionID,
			"data_kind":     r.DataKind,
			"language_code": r.LanguageCode,
			"created_at":    r.CreatedAt,
		}
	}

	response.Success(c, items)
}

func toProductResponse(p *biz.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		Title:            p.Title,
		Description:      p.Description,
		OriginalKind:     p.OriginalKind,
		OriginalLanguage: p.OriginalLanguage,
		Filename:         p.Filename,
		FileSize:         p.FileSize,
		ContentType:      p.ContentType,
		ThumbnailURL:     p.ThumbnailURL,
		Featured:         p.Featured,
		CreatedAt:        p.CreatedAt,
	}
}

func toProductResponses(products []*biz.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = toProductResponse(p)
	}
	return responses
}

func toVersionDetail(v *biz.ProductVersion) VersionResponse {
	return VersionResponse{
		ID:           v.ID,
		DataKind:     v.DataKind,
		LanguageCode: v.LanguageCode,
		IsOriginal:   v.IsOriginal,
		FileSize:     v.FileSize,
		ContentType:  v.ContentType,
		CreatedAt:    v.CreatedAt,
	}
}
