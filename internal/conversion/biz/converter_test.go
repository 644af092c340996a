package biz

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/digitora/marketplace-backend/internal/ai"
	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	prodbiz "github.com/digitora/marketplace-backend/internal/product/biz"
	prodmodels "github.com/digitora/marketplace-backend/internal/product/models"
)

const (
	testProductID = "11111111-1111-1111-1111-111111111111"
	testUserID    = "22222222-2222-2222-2222-222222222222"
	testObjectKey = "uploads/1_source.mp4"
)

type fakeProductRepo struct {
	products map[string]*prodbiz.Product
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*prodbiz.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, apperrors.New(apperrors.ErrProductNotFound)
}

func (r *fakeProductRepo) Create(ctx context.Context, p *prodbiz.Product) error { return nil }
func (r *fakeProductRepo) List(ctx context.Context, req *prodbiz.ListProductsRequest) ([]*prodbiz.Product, int64, error) {
	return nil, 0, nil
}
func (r *fakeProductRepo) ListFeatured(ctx context.Context, limit int) ([]*prodbiz.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]*prodbiz.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeVersionRepo struct {
	mu          sync.Mutex
	versions    map[string]*prodbiz.ProductVersion
	createCalls int
	// createHook runs before each insert; returning an error aborts it.
	createHook func(v *prodbiz.ProductVersion) error
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: make(map[string]*prodbiz.ProductVersion)}
}

func versionKey(productID, kind, lang string) string {
	return productID + "/" + kind + "/" + lang
}

func (r *fakeVersionRepo) put(v *prodbiz.ProductVersion) {
	r.versions[versionKey(v.ProductID, v.DataKind, v.LanguageCode)] = v
}

func (r *fakeVersionRepo) Create(ctx context.Context, v *prodbiz.ProductVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.createCalls++

	if r.createHook != nil {
		if err := r.createHook(v); err != nil {
			return err
		}
	}

	key := versionKey(v.ProductID, v.DataKind, v.LanguageCode)
	if _, exists := r.versions[key]; exists {
		return prodmodels.ErrDuplicateVersion
	}

	v.CreatedAt = time.Now()
	r.versions[key] = v
	return nil
}

func (r *fakeVersionRepo) Find(ctx context.Context, productID, kind, lang string) (*prodbiz.ProductVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.versions[versionKey(productID, kind, lang)]; ok {
		return v, nil
	}
	return nil, prodmodels.ErrVersionNotFound
}

func (r *fakeVersionRepo) FindOldest(ctx context.Context, productID string) (*prodbiz.ProductVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *prodbiz.ProductVersion
	for _, v := range r.versions {
		if v.ProductID != productID {
			continue
		}
		if oldest == nil || v.CreatedAt.Before(oldest.CreatedAt) {
			oldest = v
		}
	}
	if oldest == nil {
		return nil, prodmodels.ErrVersionNotFound
	}
	return oldest, nil
}

func (r *fakeVersionRepo) ListByProduct(ctx context.Context, productID string) ([]*prodbiz.ProductVersion, error) {
	return nil, nil
}

func (r *fakeVersionRepo) DeleteByProduct(ctx context.Context, productID string) error {
	return nil
}

type fakeUsageRepo struct {
	mu      sync.Mutex
	records []*UsageRecord
}

func (r *fakeUsageRepo) Create(ctx context.Context, rec *UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeUsageRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*UsageRecord, error) {
	return r.records, nil
}

func (r *fakeUsageRepo) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return int64(len(r.records)), nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Download(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, ok := b.objects[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object %s not found", key)
}

func (b *fakeBlobs) UploadConverted(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	key := "converted/" + name
	b.objects[key] = data
	return key, nil
}

type fakeStages struct {
	mu         sync.Mutex
	sttCalls   int
	transCalls int
	synthCalls int
	transInput string
	sttDelay   time.Duration
	synthErr   error
	transErr   error
}

func (s *fakeStages) Transcribe(ctx context.Context, data []byte, filename string) (string, error) {
	s.mu.Lock()
	s.sttCalls++
	s.mu.Unlock()
	if s.sttDelay > 0 {
		time.Sleep(s.sttDelay)
	}
	return "konnichiwa\nsekai", nil
}

// Translate replies with bare newlines, the way a model that ignores
// formatting instructions would.
func (s *fakeStages) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	s.mu.Lock()
	s.transCalls++
	s.transInput = text
	s.mu.Unlock()
	if s.transErr != nil {
		return "", s.transErr
	}
	return "hello\nworld", nil
}

func (s *fakeStages) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	s.mu.Lock()
	s.synthCalls++
	s.mu.Unlock()
	if s.synthErr != nil {
		return nil, s.synthErr
	}
	return []byte("audio:" + text), nil
}

func (s *fakeStages) calls() (stt, trans, synth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sttCalls, s.transCalls, s.synthCalls
}

// newTestConverter wires a converter over in-memory fakes with a video
// product in Japanese whose original media blob is in the store.
func newTestConverter() (*Converter, *fakeVersionRepo, *fakeBlobs, *fakeStages, *fakeUsageRepo) {
	product := &prodbiz.Product{
		ID:               testProductID,
		OwnerID:          testUserID,
		Title:            "lecture",
		OriginalKind:     prodmodels.DataKindVideo,
		OriginalLanguage: "ja",
		Filename:         "source.mp4",
		ObjectKey:        testObjectKey,
	}

	productRepo := &fakeProductRepo{products: map[string]*prodbiz.Product{product.ID: product}}
	versionRepo := newFakeVersionRepo()
	versionRepo.put(&prodbiz.ProductVersion{
		ID:           "original",
		ProductID:    product.ID,
		DataKind:     prodmodels.DataKindVideo,
		LanguageCode: "ja",
		ObjectKey:    testObjectKey,
		Filename:     "source.mp4",
		IsOriginal:   true,
		CreatedAt:    time.Now().Add(-time.Hour),
	})

	blobs := newFakeBlobs()
	blobs.objects[testObjectKey] = []byte("raw video bytes")

	stages := &fakeStages{}
	usage := &fakeUsageRepo{}

	converter := NewConverter(productRepo, versionRepo, usage, blobs, stages, stages, stages, logger.L())
	return converter, versionRepo, blobs, stages, usage
}

func convertReq(kind, lang string) *ConvertRequest {
	return &ConvertRequest{
		UserID:     testUserID,
		ProductID:  testProductID,
		TargetKind: kind,
		TargetLang: lang,
	}
}

func TestResolveFullChain(t *testing.T) {
	converter, versions, blobs, stages, usage := newTestConverter()

	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "en"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.CacheHit {
		t.Error("expected cache miss on first conversion")
	}
	if result.Version.DataKind != prodmodels.DataKindAudio || result.Version.LanguageCode != "en" {
		t.Errorf("got version %s/%s, want audio/en", result.Version.DataKind, result.Version.LanguageCode)
	}

	stt, trans, synth := stages.calls()
	if stt != 1 || trans != 1 || synth != 1 {
		t.Errorf("stage calls = (%d, %d, %d), want (1, 1, 1)", stt, trans, synth)
	}

	// Every intermediate persisted.
	srcText, err := versions.Find(context.Background(), testProductID, prodmodels.DataKindText, "ja")
	if err != nil {
		t.Fatal("source text version not persisted")
	}
	if srcText.TextContent != "<p>konnichiwa</p><p>sekai</p>" {
		t.Errorf("source text = %q, not formatted transcript", srcText.TextContent)
	}
	if srcText.IsOriginal {
		t.Error("derived text version must not be marked original")
	}

	translated, err := versions.Find(context.Background(), testProductID, prodmodels.DataKindText, "en")
	if err != nil {
		t.Fatal("translated text version not persisted")
	}
	if translated.TextContent != "<p>hello</p><p>world</p>" {
		t.Errorf("translated text = %q, not paragraph-formatted", translated.TextContent)
	}

	// The translator sees plain text, never the stored markup.
	if stages.transInput != "konnichiwa\nsekai" {
		t.Errorf("translator input = %q, want plain source text", stages.transInput)
	}

	// The original row is untouched.
	original, _ := versions.Find(context.Background(), testProductID, prodmodels.DataKindVideo, "ja")
	if !original.IsOriginal || original.ID != "original" {
		t.Error("original version was modified")
	}

	// Audio landed in the converted prefix.
	if _, err := blobs.Download(context.Background(), result.Version.ObjectKey); err != nil {
		t.Errorf("converted audio blob missing: %v", err)
	}

	if len(usage.records) != 1 || usage.records[0].CacheHit {
		t.Errorf("usage records = %+v, want one miss record", usage.records)
	}
}

func TestResolveCacheHit(t *testing.T) {
	converter, versions, _, stages, usage := newTestConverter()

	versions.put(&prodbiz.ProductVersion{
		ID:           "cached",
		ProductID:    testProductID,
		DataKind:     prodmodels.DataKindAudio,
		LanguageCode: "en",
		ObjectKey:    "converted/cached.mp3",
	})

	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "en"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !result.CacheHit {
		t.Error("expected cache hit")
	}
	if result.Version.ID != "cached" {
		t.Errorf("got version %s, want cached", result.Version.ID)
	}

	stt, trans, synth := stages.calls()
	if stt+trans+synth != 0 {
		t.Errorf("stage calls = (%d, %d, %d), want none on cache hit", stt, trans, synth)
	}

	if len(usage.records) != 1 || !usage.records[0].CacheHit {
		t.Errorf("usage records = %+v, want one hit record", usage.records)
	}
}

func TestResolveTextTargetStopsAfterTranslation(t *testing.T) {
	converter, versions, blobs, stages, _ := newTestConverter()

	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindText, "en"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.Version.TextContent != "<p>hello</p><p>world</p>" {
		t.Errorf("text content = %q", result.Version.TextContent)
	}

	_, _, synth := stages.calls()
	if synth != 0 {
		t.Errorf("synthesis ran %d times for a text target", synth)
	}
	if blobs.uploads != 0 {
		t.Errorf("blob uploads = %d, want 0 for a text target", blobs.uploads)
	}

	if _, err := versions.Find(context.Background(), testProductID, prodmodels.DataKindAudio, "en"); err == nil {
		t.Error("audio version created for a text target")
	}
}

func TestResolveSourceLanguageSkipsTranslation(t *testing.T) {
	converter, _, _, stages, _ := newTestConverter()

	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindText, "ja"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.Version.LanguageCode != "ja" {
		t.Errorf("language = %s, want ja", result.Version.LanguageCode)
	}

	stt, trans, _ := stages.calls()
	if stt != 1 {
		t.Errorf("stt calls = %d, want 1", stt)
	}
	if trans != 0 {
		t.Errorf("translate calls = %d, want 0 for source language target", trans)
	}
}

func TestResolveTextOriginalSkipsTranscription(t *testing.T) {
	converter, versions, _, stages, _ := newTestConverter()

	// Replace the original with a text artifact.
	versions.mu.Lock()
	versions.versions = map[string]*prodbiz.ProductVersion{}
	versions.mu.Unlock()
	versions.put(&prodbiz.ProductVersion{
		ID:           "original-text",
		ProductID:    testProductID,
		DataKind:     prodmodels.DataKindText,
		LanguageCode: "ja",
		TextContent:  "<p>konnichiwa</p>",
		IsOriginal:   true,
		CreatedAt:    time.Now().Add(-time.Hour),
	})

	_, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "ja"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	stt, trans, synth := stages.calls()
	if stt != 0 || trans != 0 || synth != 1 {
		t.Errorf("stage calls = (%d, %d, %d), want (0, 0, 1)", stt, trans, synth)
	}
}

func TestResolveFailureIsolation(t *testing.T) {
	converter, versions, _, stages, _ := newTestConverter()

	stages.synthErr = ai.ErrSynthesis

	_, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "en"))
	if err == nil {
		t.Fatal("expected synthesis failure")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrConversionFailed {
		t.Errorf("error code = %d, want ErrConversionFailed", apperrors.ExtractCode(err))
	}

	// Text stages completed and persisted before the failure.
	if _, err := versions.Find(context.Background(), testProductID, prodmodels.DataKindText, "ja"); err != nil {
		t.Fatal("source text lost after synthesis failure")
	}
	if _, err := versions.Find(context.Background(), testProductID, prodmodels.DataKindText, "en"); err != nil {
		t.Fatal("translated text lost after synthesis failure")
	}

	// Retry reruns only the broken stage.
	stages.synthErr = nil
	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "en"))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result.Version.DataKind != prodmodels.DataKindAudio {
		t.Errorf("retry returned %s version", result.Version.DataKind)
	}

	stt, trans, synth := stages.calls()
	if stt != 1 || trans != 1 {
		t.Errorf("earlier stages reran: stt=%d translate=%d, want 1 each", stt, trans)
	}
	if synth != 2 {
		t.Errorf("synth calls = %d, want 2 (failure plus retry)", synth)
	}
}

func TestResolveDuplicateInsertRefetches(t *testing.T) {
	converter, versions, _, _, _ := newTestConverter()

	winner := &prodbiz.ProductVersion{
		ID:           "winner",
		ProductID:    testProductID,
		DataKind:     prodmodels.DataKindText,
		LanguageCode: "en",
		TextContent:  "<p>theirs</p>",
	}

	// Simulate a concurrent writer landing its row between our cache check
	// and insert.
	versions.createHook = func(v *prodbiz.ProductVersion) error {
		if v.DataKind == prodmodels.DataKindText && v.LanguageCode == "en" {
			versions.versions[versionKey(winner.ProductID, winner.DataKind, winner.LanguageCode)] = winner
			versions.createHook = nil
			return prodmodels.ErrDuplicateVersion
		}
		return nil
	}

	result, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindText, "en"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.Version.ID != "winner" {
		t.Errorf("got version %s, want the concurrent winner's row", result.Version.ID)
	}
}

func TestResolveUnsupportedTarget(t *testing.T) {
	converter, _, _, _, _ := newTestConverter()

	_, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindVideo, "en"))
	if err == nil {
		t.Fatal("expected error for video target")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrConversionUnsupported {
		t.Errorf("error code = %d, want ErrConversionUnsupported", apperrors.ExtractCode(err))
	}

	_, err = converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, ""))
	if err == nil {
		t.Fatal("expected error for empty target language")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrConversionBadTarget {
		t.Errorf("error code = %d, want ErrConversionBadTarget", apperrors.ExtractCode(err))
	}
}

func TestResolveNoSource(t *testing.T) {
	converter, versions, _, _, _ := newTestConverter()

	versions.mu.Lock()
	versions.versions = map[string]*prodbiz.ProductVersion{}
	versions.mu.Unlock()

	_, err := converter.Resolve(context.Background(), convertReq(prodmodels.DataKindText, "en"))
	if err == nil {
		t.Fatal("expected error with no source artifact")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrConversionNoSource {
		t.Errorf("error code = %d, want ErrConversionNoSource", apperrors.ExtractCode(err))
	}
}

func TestResolveConcurrentRequestsCollapse(t *testing.T) {
	converter, _, _, stages, _ := newTestConverter()
	stages.sttDelay = 50 * time.Millisecond

	const n = 8
	var wg sync.WaitGroup
	results := make([]*ConvertResult, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = converter.Resolve(context.Background(), convertReq(prodmodels.DataKindAudio, "en"))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	stt, trans, synth := stages.calls()
	if stt != 1 || trans != 1 || synth != 1 {
		t.Errorf("stage calls = (%d, %d, %d), want one flight for %d concurrent requests", stt, trans, synth, n)
	}

	// The shared flight ran the stages, so every caller is a miss.
	for i, r := range results {
		if r.CacheHit {
			t.Errorf("request %d recorded a cache hit for a flight that ran stages", i)
		}
	}
}

func TestResolveUnknownProduct(t *testing.T) {
	converter, _, _, _, _ := newTestConverter()

	req := convertReq(prodmodels.DataKindText, "en")
	req.ProductID = "33333333-3333-3333-3333-333333333333"

	_, err := converter.Resolve(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for unknown product")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrProductNotFound {
		t.Errorf("error code = %d, want ErrProductNotFound", apperrors.ExtractCode(err))
	}
}
