package biz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/digitora/marketplace-backend/internal/ai"
	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	prodbiz "github.com/digitora/marketplace-backend/internal/product/biz"
	prodmodels "github.com/digitora/marketplace-backend/internal/product/models"
)

// ConvertedBlobStore 转换产物存储接口
type ConvertedBlobStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	UploadConverted(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ConvertRequest 转换请求
type ConvertRequest struct {
	UserID     string
	ProductID  string
	TargetKind string
	TargetLang string
}

// ConvertResult 转换结果
type ConvertResult struct {
	Version  *prodbiz.ProductVersion
	CacheHit bool
}

// Converter 转换用例
//
// Resolves a (product, kind, language) request to a stored version, running
// the speech-to-text, translation and synthesis stages on demand. Every
// intermediate result is persisted as soon as it exists, so a retry after a
// late-stage failure only reruns the stages that never finished. In-process
// duplicate requests for the same key collapse into one flight; across
// processes the unique index on the version table picks a single winner.
type Converter struct {
	productRepo prodbiz.ProductRepo
	versionRepo prodbiz.VersionRepo
	usageRepo   UsageRepo
	blobs       ConvertedBlobStore
	stt         ai.SpeechToText
	translator  ai.Translator
	synth       ai.Synthesizer
	flights     singleflight.Group
	logger      *logger.Logger
}

// NewConverter 创建转换用例
func NewConverter(
	productRepo prodbiz.ProductRepo,
	versionRepo prodbiz.VersionRepo,
	usageRepo UsageRepo,
	blobs ConvertedBlobStore,
	stt ai.SpeechToText,
	translator ai.Translator,
	synth ai.Synthesizer,
	log *logger.Logger,
) *Converter {
	return &Converter{
		productRepo: productRepo,
		versionRepo: versionRepo,
		usageRepo:   usageRepo,
		blobs:       blobs,
		stt:         stt,
		translator:  translator,
		synth:       synth,
		logger:      log,
	}
}

// Resolve 解析转换请求
func (c *Converter) Resolve(ctx context.Context, req *ConvertRequest) (*ConvertResult, error) {
	switch req.TargetKind {
	case prodmodels.DataKindAudio, prodmodels.DataKindText:
	default:
		return nil, apperrors.New(apperrors.ErrConversionUnsupported)
	}
	if req.TargetLang == "" {
		return nil, apperrors.New(apperrors.ErrConversionBadTarget)
	}

	product, err := c.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	result, err := c.resolve(ctx, product, req.TargetKind, req.TargetLang)

	c.recordUsage(ctx, req, result)

	return result, err
}

func (c *Converter) resolve(ctx context.Context, product *prodbiz.Product, targetKind, targetLang string) (*ConvertResult, error) {
	// Fast path: already converted.
	if v, err := c.versionRepo.Find(ctx, product.ID, targetKind, targetLang); err == nil {
		return &ConvertResult{Version: v, CacheHit: true}, nil
	} else if !errors.Is(err, prodmodels.ErrVersionNotFound) {
		return nil, err
	}

	key := flightKey(product.ID, targetKind, targetLang)
	v, err, _ := c.flights.Do(key, func() (interface{}, error) {
		// The first flight may have finished while we queued.
		if v, err := c.versionRepo.Find(ctx, product.ID, targetKind, targetLang); err == nil {
			return &flightOutcome{version: v}, nil
		} else if !errors.Is(err, prodmodels.ErrVersionNotFound) {
			return nil, err
		}

		version, err := c.convert(ctx, product, targetKind, targetLang)
		if err != nil {
			return nil, err
		}
		return &flightOutcome{version: version, converted: true}, nil
	})
	if err != nil {
		return nil, err
	}

	// Every caller sharing a flight that ran stages is charged as a miss;
	// a hit means the artifact already existed before the flight.
	outcome := v.(*flightOutcome)
	return &ConvertResult{Version: outcome.version, CacheHit: !outcome.converted}, nil
}

// flightOutcome carries whether the flight actually ran stage calls, which
// is what the usage ledger distinguishes.
type flightOutcome struct {
	version   *prodbiz.ProductVersion
	converted bool
}

// convert runs the stage chain up to the requested target.
func (c *Converter) convert(ctx context.Context, product *prodbiz.Product, targetKind, targetLang string) (*prodbiz.ProductVersion, error) {
	textVersion, err := c.ensureText(ctx, product, targetLang)
	if err != nil {
		return nil, err
	}

	if targetKind == prodmodels.DataKindText {
		return textVersion, nil
	}

	return c.synthesize(ctx, product, textVersion, targetLang)
}

// ensureText produces the text version of the product in lang, transcribing
// and translating as needed.
func (c *Converter) ensureText(ctx context.Context, product *prodbiz.Product, lang string) (*prodbiz.ProductVersion, error) {
	if v, err := c.versionRepo.Find(ctx, product.ID, prodmodels.DataKindText, lang); err == nil {
		return v, nil
	} else if !errors.Is(err, prodmodels.ErrVersionNotFound) {
		return nil, err
	}

	source, err := c.ensureSourceText(ctx, product)
	if err != nil {
		return nil, err
	}

	if source.LanguageCode == lang {
		return source, nil
	}

	// The translator gets plain text and its reply goes back through the
	// formatter; stored text artifacts are always paragraph-wrapped no
	// matter what the model returns.
	translated, err := c.translator.Translate(ctx, ai.PlainText(source.TextContent), source.LanguageCode, lang)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConversionFailed)
	}

	version := &prodbiz.ProductVersion{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		DataKind:     prodmodels.DataKindText,
		LanguageCode: lang,
		TextContent:  ai.FormatParagraphs(translated),
	}

	return c.persist(ctx, version)
}

// ensureSourceText produces the text version in the product's original
// language, transcribing the original media when it does not exist yet.
func (c *Converter) ensureSourceText(ctx context.Context, product *prodbiz.Product) (*prodbiz.ProductVersion, error) {
	srcLang := product.OriginalLanguage

	if v, err := c.versionRepo.Find(ctx, product.ID, prodmodels.DataKindText, srcLang); err == nil {
		return v, nil
	} else if !errors.Is(err, prodmodels.ErrVersionNotFound) {
		return nil, err
	}

	original, err := c.findOriginal(ctx, product)
	if err != nil {
		return nil, err
	}

	if original.IsText() {
		// The original is text but under a different language row; treat
		// its content as the source.
		return original, nil
	}

	media, err := c.blobs.Download(ctx, original.ObjectKey)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConversionNoSource)
	}

	transcript, err := c.stt.Transcribe(ctx, media, original.Filename)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConversionFailed)
	}

	version := &prodbiz.ProductVersion{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		DataKind:     prodmodels.DataKindText,
		LanguageCode: srcLang,
		TextContent:  ai.FormatParagraphs(transcript),
	}

	return c.persist(ctx, version)
}

// synthesize renders spoken audio from a text version and stores it.
func (c *Converter) synthesize(ctx context.Context, product *prodbiz.Product, textVersion *prodbiz.ProductVersion, lang string) (*prodbiz.ProductVersion, error) {
	audio, err := c.synth.Synthesize(ctx, ai.PlainText(textVersion.TextContent), lang)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConversionFailed)
	}

	name := fmt.Sprintf("%s_%s.mp3", product.ID, lang)
	objectKey, err := c.blobs.UploadConverted(ctx, name, audio, "audio/mpeg")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConversionFailed)
	}

	version := &prodbiz.ProductVersion{
		ID:           uuid.New().String(),
		ProductID:    product.ID,
		DataKind:     prodmodels.DataKindAudio,
		LanguageCode: lang,
		ObjectKey:    objectKey,
		Filename:     name,
		FileSize:     int64(len(audio)),
		ContentType:  "audio/mpeg",
	}

	return c.persist(ctx, version)
}

// persist stores a version; a duplicate key means another writer won the
// race and its row is authoritative, so refetch and return that one.
func (c *Converter) persist(ctx context.Context, version *prodbiz.ProductVersion) (*prodbiz.ProductVersion, error) {
	err := c.versionRepo.Create(ctx, version)
	if err == nil {
		c.logger.Info("conversion artifact stored",
			zap.String("product_id", version.ProductID),
			zap.String("kind", version.DataKind),
			zap.String("language", version.LanguageCode))
		return version, nil
	}

	if errors.Is(err, prodmodels.ErrDuplicateVersion) {
		return c.versionRepo.Find(ctx, version.ProductID, version.DataKind, version.LanguageCode)
	}

	return nil, err
}

// findOriginal locates the artifact the conversion chain starts from. The
// upload-time original is preferred; the oldest surviving version is the
// deterministic fallback.
func (c *Converter) findOriginal(ctx context.Context, product *prodbiz.Product) (*prodbiz.ProductVersion, error) {
	v, err := c.versionRepo.Find(ctx, product.ID, product.OriginalKind, product.OriginalLanguage)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, prodmodels.ErrVersionNotFound) {
		return nil, err
	}

	v, err = c.versionRepo.FindOldest(ctx, product.ID)
	if err != nil {
		if errors.Is(err, prodmodels.ErrVersionNotFound) {
			return nil, apperrors.New(apperrors.ErrConversionNoSource)
		}
		return nil, err
	}

	return v, nil
}

func (c *Converter) recordUsage(ctx context.Context, req *ConvertRequest, result *ConvertResult) {
	record := &UsageRecord{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		ProductID:      req.ProductID,
		TargetKind:     req.TargetKind,
		TargetLanguage: req.TargetLang,
		CacheHit:       result != nil && result.CacheHit,
	}

	if err := c.usageRepo.Create(ctx, record); err != nil {
		c.logger.Warn("failed to record ai usage",
			zap.String("user_id", req.UserID),
			zap.String("product_id", req.ProductID),
			zap.Error(err))
	}
}

func flightKey(productID, kind, lang string) string {
	return productID + ":" + kind + ":" + lang
}
