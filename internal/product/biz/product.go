package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/ai"
	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	"github.com/digitora/marketplace-backend/internal/product/models"
)

// Product 商品模型
type Product struct {
	ID      string
	OwnerID string

	Title       string
	Description string

	OriginalKind     string // video, audio, text
	OriginalLanguage string
	Filename         string
	FileSize         int64
	ContentType      string

	ObjectKey    string
	ThumbnailKey string
	ThumbnailURL string // presigned, filled on read paths

	Featured bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductVersion 商品版本模型
type ProductVersion struct {
	ID        string
	ProductID string

	DataKind     string
	LanguageCode string

	ObjectKey   string // set for video/audio versions
	TextContent string // set for text versions

	Filename    string
	FileSize    int64
	ContentType string

	IsOriginal bool

	CreatedAt time.Time
}

// IsText reports whether this version stores its payload inline.
func (v *ProductVersion) IsText() bool {
	return v.DataKind == models.DataKindText
}

// DownloadRecord 下载记录模型
type DownloadRecord struct {
	ID        string
	UserID    string
	ProductID string
	VersionID string

	DataKind     string
	LanguageCode string

	CreatedAt time.Time
}

// ProductRepo 商品仓储接口
type ProductRepo interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, req *ListProductsRequest) ([]*Product, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]*Product, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Product, error)
	Delete(ctx context.Context, id string) error
}

// VersionRepo 商品版本仓储接口
//
// Create returns models.ErrDuplicateVersion when another row already holds
// the same (product, kind, language) key. Find returns
// models.ErrVersionNotFound on a miss.
type VersionRepo interface {
	Create(ctx context.Context, version *ProductVersion) error
	Find(ctx context.Context, productID, dataKind, languageCode string) (*ProductVersion, error)
	FindOldest(ctx context.Context, productID string) (*ProductVersion, error)
	ListByProduct(ctx context.Context, productID string) ([]*ProductVersion, error)
	DeleteByProduct(ctx context.Context, productID string) error
}

// DownloadHistoryRepo 下载记录仓储接口
type DownloadHistoryRepo interface {
	Create(ctx context.Context, record *DownloadRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*DownloadRecord, error)
}

// BlobStore 对象存储服务接口（MinIO）
type BlobStore interface {
	// Upload stores data under a generated key derived from name and
	// returns that key.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	// UploadTo stores data under an exact key.
	UploadTo(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	// Presign returns a short-lived download URL. filename sets the
	// Content-Disposition attachment name when non-empty.
	Presign(ctx context.Context, key, filename string) (string, error)
	Remove(ctx context.Context, key string) error
}

// TextExtractor 文本提取接口
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// ListProductsRequest 列表请求
type ListProductsRequest struct {
	Page     int
	PageSize int
	Keyword  string
}

// UploadProductRequest 上传请求
type UploadProductRequest struct {
	Title            string
	Description      string
	OriginalKind     string
	OriginalLanguage string
	Filename         string
	ContentType      string
	Data             []byte
	Thumbnail        []byte
	ThumbnailType    string
}

// allowedContentTypes 各数据类型允许的 MIME 类型
var allowedContentTypes = map[string]map[string]bool{
	models.DataKindVideo: {"video/mp4": true, "video/mpeg": true},
	models.DataKindAudio: {"audio/mpeg": true, "audio/mp4": true, "audio/mp3": true},
	models.DataKindText:  {"application/pdf": true, "text/plain": true},
}

// ProductUseCase 商品用例
type ProductUseCase struct {
	productRepo ProductRepo
	versionRepo VersionRepo
	historyRepo DownloadHistoryRepo
	blobs       BlobStore
	extractor   TextExtractor
	maxUpload   int64
	logger      *logger.Logger
}

// NewProductUseCase 创建商品用例
func NewProductUseCase(
	productRepo ProductRepo,
	versionRepo VersionRepo,
	historyRepo DownloadHistoryRepo,
	blobs BlobStore,
	extractor TextExtractor,
	maxUpload int64,
	log *logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		versionRepo: versionRepo,
		historyRepo: historyRepo,
		blobs:       blobs,
		extractor:   extractor,
		maxUpload:   maxUpload,
		logger:      log,
	}
}

// Upload 上传商品
//
// Stores the blob, creates the product row, and seeds the version table with
// the original artifact so conversions can start from it.
func (uc *ProductUseCase) Upload(ctx context.Context, ownerID string, req *UploadProductRequest) (*Product, error) {
	if !models.ValidDataKind(req.OriginalKind) {
		return nil, apperrors.New(apperrors.ErrProductInvalidFile)
	}

	if len(req.Data) == 0 {
		return nil, apperrors.New(apperrors.ErrProductInvalidFile)
	}

	if int64(len(req.Data)) > uc.maxUpload {
		return nil, apperrors.New(apperrors.ErrProductFileTooLarge)
	}

	if !allowedContentTypes[req.OriginalKind][req.ContentType] {
		return nil, apperrors.New(apperrors.ErrProductInvalidFile)
	}

	lang := req.OriginalLanguage
	if lang == "" {
		lang = "ja"
	}

	objectKey, err := uc.blobs.Upload(ctx, req.Filename, req.Data, req.ContentType)
	if err != nil {
		uc.logger.Error("product blob upload failed", zap.String("filename", req.Filename), zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrProductStorage)
	}

	var thumbnailKey string
	if len(req.Thumbnail) > 0 {
		thumbnailKey, err = uc.blobs.Upload(ctx, "thumb_"+req.Filename, req.Thumbnail, req.ThumbnailType)
		if err != nil {
			_ = uc.blobs.Remove(ctx, objectKey)
			return nil, apperrors.Wrap(err, apperrors.ErrProductStorage)
		}
	}

	product := &Product{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		Title:            req.Title,
		Description:      req.Description,
		OriginalKind:     req.OriginalKind,
		OriginalLanguage: lang,
		Filename:         req.Filename,
		FileSize:         int64(len(req.Data)),
		ContentType:      req.ContentType,
		ObjectKey:        objectKey,
		ThumbnailKey:     thumbnailKey,
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		_ = uc.blobs.Remove(ctx, objectKey)
		if thumbnailKey != "" {
			_ = uc.blobs.Remove(ctx, thumbnailKey)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	original := &ProductVersion{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		DataKind:     req.OriginalKind,
		LanguageCode: lang,
		Filename:     req.Filename,
		FileSize:     int64(len(req.Data)),
		ContentType:  req.ContentType,
		IsOriginal:   true,
	}

	if req.OriginalKind == models.DataKindText {
		text, err := uc.extractor.ExtractText(ctx, req.Data, req.ContentType)
		if err != nil {
			uc.logger.Error("text extraction failed", zap.String("product_id", product.ID), zap.Error(err))
			return nil, apperrors.Wrap(err, apperrors.ErrProductInvalidFile)
		}
		// Text artifacts are stored paragraph-wrapped, same as the ones
		// the conversion stages produce.
		original.TextContent = ai.FormatParagraphs(text)
	} else {
		original.ObjectKey = objectKey
	}

	if err := uc.versionRepo.Create(ctx, original); err != nil {
		return nil, fmt.Errorf("failed to create original version: %w", err)
	}

	uc.logger.Info("product uploaded",
		zap.String("product_id", product.ID),
		zap.String("owner_id", ownerID),
		zap.String("kind", req.OriginalKind),
		zap.String("language", lang))

	return product, nil
}

// List 分页查询商品
func (uc *ProductUseCase) List(ctx context.Context, req *ListProductsRequest) ([]*Product, int64, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	products, total, err := uc.productRepo.List(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	uc.fillThumbnails(ctx, products)

	return products, total, nil
}

// ListFeatured 查询推荐商品
func (uc *ProductUseCase) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	products, err := uc.productRepo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}

	uc.fillThumbnails(ctx, products)

	return products, nil
}

// ListMine 查询当前用户的商品
func (uc *ProductUseCase) ListMine(ctx context.Context, ownerID string) ([]*Product, error) {
	products, err := uc.productRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own products: %w", err)
	}

	uc.fillThumbnails(ctx, products)

	return products, nil
}

// Get 查询商品详情
func (uc *ProductUseCase) Get(ctx context.Context, id string) (*Product, []*ProductVersion, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	versions, err := uc.versionRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list versions: %w", err)
	}

	uc.fillThumbnails(ctx, []*Product{product})

	return product, versions, nil
}

// Delete 删除商品及其所有版本和存储对象
func (uc *ProductUseCase) Delete(ctx context.Context, id, requesterID string) error {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.OwnerID != requesterID {
		return apperrors.New(apperrors.ErrProductUnauthorized)
	}

	versions, err := uc.versionRepo.ListByProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	for _, v := range versions {
		if v.ObjectKey != "" && v.ObjectKey != product.ObjectKey {
			if err := uc.blobs.Remove(ctx, v.ObjectKey); err != nil {
				uc.logger.Warn("failed to remove version object",
					zap.String("object_key", v.ObjectKey), zap.Error(err))
			}
		}
	}

	if err := uc.versionRepo.DeleteByProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}

	if err := uc.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := uc.blobs.Remove(ctx, product.ObjectKey); err != nil {
		uc.logger.Warn("failed to remove product object",
			zap.String("object_key", product.ObjectKey), zap.Error(err))
	}
	if product.ThumbnailKey != "" {
		_ = uc.blobs.Remove(ctx, product.ThumbnailKey)
	}

	uc.logger.Info("product deleted", zap.String("product_id", id), zap.String("owner_id", requesterID))

	return nil
}

// Stream 获取商品原始内容的临时访问地址
func (uc *ProductUseCase) Stream(ctx context.Context, id string) (string, error) {
	product, err := uc.productRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := uc.blobs.Presign(ctx, product.ObjectKey, "")
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrProductStorage)
	}

	return url, nil
}

// Download 获取指定版本的下载地址并记录下载历史
//
// Text versions have no object to presign; the caller serves TextContent
// directly and Download returns an empty URL for them.
func (uc *ProductUseCase) Download(ctx context.Context, userID, productID, dataKind, languageCode string) (*ProductVersion, string, error) {
	version, err := uc.versionRepo.Find(ctx, productID, dataKind, languageCode)
	if err != nil {
		if errors.Is(err, models.ErrVersionNotFound) {
			return nil, "", apperrors.New(apperrors.ErrVersionNotFound)
		}
		return nil, "", err
	}

	var url string
	if !version.IsText() {
		url, err = uc.blobs.Presign(ctx, version.ObjectKey, version.Filename)
		if err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrProductStorage)
		}
	}

	record := &DownloadRecord{
		ID:           uuid.New().String(),
		UserID:       userID,
		ProductID:    productID,
		VersionID:    version.ID,
		DataKind:     version.DataKind,
		LanguageCode: version.LanguageCode,
	}

	if err := uc.historyRepo.Create(ctx, record); err != nil {
		uc.logger.Warn("failed to record download", zap.String("product_id", productID), zap.Error(err))
	}

	return version, url, nil
}

// ListDownloads 查询用户的下载历史
func (uc *ProductUseCase) ListDownloads(ctx context.Context, userID string, limit int) ([]*DownloadRecord, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	records, err := uc.historyRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}

	return records, nil
}

func (uc *ProductUseCase) fillThumbnails(ctx context.Context, products []*Product) {
	for _, p := range products {
		if p.ThumbnailKey == "" {
			continue
		}
		url, err := uc.blobs.Presign(ctx, p.ThumbnailKey, "")
		if err != nil {
			uc.logger.Warn("failed to presign thumbnail",
				zap.String("product_id", p.ID), zap.Error(err))
			continue
		}
		p.ThumbnailURL = url
	}
}
