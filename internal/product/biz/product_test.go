package biz

import (
	"context"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/digitora/marketplace-backend/internal/pkg/errors"
	"github.com/digitora/marketplace-backend/internal/pkg/logger"
	"github.com/digitora/marketplace-backend/internal/product/models"
)

const testOwnerID = "22222222-2222-2222-2222-222222222222"

type memProductRepo struct {
	products map[string]*Product
}

func (r *memProductRepo) Create(ctx context.Context, p *Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, apperrors.New(apperrors.ErrProductNotFound)
}

func (r *memProductRepo) List(ctx context.Context, req *ListProductsRequest) ([]*Product, int64, error) {
	var out []*Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *memProductRepo) ListFeatured(ctx context.Context, limit int) ([]*Product, error) {
	return nil, nil
}

func (r *memProductRepo) ListByOwner(ctx context.Context, ownerID string) ([]*Product, error) {
	var out []*Product
	for _, p := range r.products {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Delete(ctx context.Context, id string) error {
	delete(r.products, id)
	return nil
}

type memVersionRepo struct {
	versions map[string]*ProductVersion
}

func vkey(productID, kind, lang string) string { return productID + "/" + kind + "/" + lang }

func (r *memVersionRepo) Create(ctx context.Context, v *ProductVersion) error {
	key := vkey(v.ProductID, v.DataKind, v.LanguageCode)
	if _, ok := r.versions[key]; ok {
		return models.ErrDuplicateVersion
	}
	r.versions[key] = v
	return nil
}

func (r *memVersionRepo) Find(ctx context.Context, productID, kind, lang string) (*ProductVersion, error) {
	if v, ok := r.versions[vkey(productID, kind, lang)]; ok {
		return v, nil
	}
	return nil, models.ErrVersionNotFound
}

func (r *memVersionRepo) FindOldest(ctx context.Context, productID string) (*ProductVersion, error) {
	for _, v := range r.versions {
		if v.ProductID == productID {
			return v, nil
		}
	}
	return nil, models.ErrVersionNotFound
}

func (r *memVersionRepo) ListByProduct(ctx context.Context, productID string) ([]*ProductVersion, error) {
	var out []*ProductVersion
	for _, v := range r.versions {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memVersionRepo) DeleteByProduct(ctx context.Context, productID string) error {
	for k, v := range r.versions {
		if v.ProductID == productID {
			delete(r.versions, k)
		}
	}
	return nil
}

type memHistoryRepo struct {
	records []*DownloadRecord
}

func (r *memHistoryRepo) Create(ctx context.Context, rec *DownloadRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *memHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*DownloadRecord, error) {
	return r.records, nil
}

type memBlobStore struct {
	objects map[string][]byte
	removed []string
}

func (b *memBlobStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := "uploads/" + name
	b.objects[key] = data
	return key, nil
}

func (b *memBlobStore) UploadTo(ctx context.Context, key string, data []byte, contentType string) error {
	b.objects[key] = data
	return nil
}

func (b *memBlobStore) Download(ctx context.Context, key string) ([]byte, error) {
	if data, ok := b.objects[key]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object %s not found", key)
}

func (b *memBlobStore) Presign(ctx context.Context, key, filename string) (string, error) {
	return "https://storage.test/" + key, nil
}

func (b *memBlobStore) Remove(ctx context.Context, key string) error {
	delete(b.objects, key)
	b.removed = append(b.removed, key)
	return nil
}

type passthroughExtractor struct{}

func (passthroughExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	return string(data), nil
}

func newTestUseCase() (*ProductUseCase, *memProductRepo, *memVersionRepo, *memBlobStore) {
	productRepo := &memProductRepo{products: make(map[string]*Product)}
	versionRepo := &memVersionRepo{versions: make(map[string]*ProductVersion)}
	historyRepo := &memHistoryRepo{}
	blobs := &memBlobStore{objects: make(map[string][]byte)}

	uc := NewProductUseCase(productRepo, versionRepo, historyRepo, blobs, passthroughExtractor{}, 1<<20, logger.L())
	return uc, productRepo, versionRepo, blobs
}

func TestUploadSeedsOriginalVersion(t *testing.T) {
	uc, _, versions, blobs := newTestUseCase()

	product, err := uc.Upload(context.Background(), testOwnerID, &UploadProductRequest{
		Title:        "audiobook",
		OriginalKind: models.DataKindAudio,
		Filename:     "book.mp3",
		ContentType:  "audio/mpeg",
		Data:         []byte("mp3 bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// Language defaults when the uploader omits it.
	if product.OriginalLanguage != "ja" {
		t.Errorf("original language = %s, want default ja", product.OriginalLanguage)
	}

	original, err := versions.Find(context.Background(), product.ID, models.DataKindAudio, "ja")
	if err != nil {
		t.Fatal("original version not seeded")
	}
	if !original.IsOriginal {
		t.Error("seeded version not marked original")
	}
	if original.ObjectKey != product.ObjectKey {
		t.Errorf("original object key = %s, want %s", original.ObjectKey, product.ObjectKey)
	}

	if _, err := blobs.Download(context.Background(), product.ObjectKey); err != nil {
		t.Errorf("uploaded blob missing: %v", err)
	}
}

func TestUploadTextExtractsContent(t *testing.T) {
	uc, _, versions, _ := newTestUseCase()

	product, err := uc.Upload(context.Background(), testOwnerID, &UploadProductRequest{
		Title:            "essay",
		OriginalKind:     models.DataKindText,
		OriginalLanguage: "en",
		Filename:         "essay.txt",
		ContentType:      "text/plain",
		Data:             []byte("first paragraph\n\nsecond paragraph"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	original, err := versions.Find(context.Background(), product.ID, models.DataKindText, "en")
	if err != nil {
		t.Fatal("original text version not seeded")
	}
	// Extracted text is stored paragraph-wrapped, never raw.
	if original.TextContent != "<p>first paragraph</p><p>second paragraph</p>" {
		t.Errorf("text content = %q, not paragraph-formatted", original.TextContent)
	}
}

func TestUploadRejectsBadInput(t *testing.T) {
	uc, _, _, _ := newTestUseCase()

	tests := []struct {
		name     string
		req      *UploadProductRequest
		wantCode int
	}{
		{
			"unknown kind",
			&UploadProductRequest{OriginalKind: "hologram", Filename: "x", Data: []byte("x")},
			apperrors.ErrProductInvalidFile,
		},
		{
			"empty file",
			&UploadProductRequest{OriginalKind: models.DataKindText, Filename: "x"},
			apperrors.ErrProductInvalidFile,
		},
		{
			"oversized file",
			&UploadProductRequest{OriginalKind: models.DataKindText, Filename: "x", Data: []byte(strings.Repeat("a", 2<<20))},
			apperrors.ErrProductFileTooLarge,
		},
		{
			"content type not allowed for kind",
			&UploadProductRequest{OriginalKind: models.DataKindAudio, Filename: "x.zip", ContentType: "application/zip", Data: []byte("x")},
			apperrors.ErrProductInvalidFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Upload(context.Background(), testOwnerID, tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if apperrors.ExtractCode(err) != tt.wantCode {
				t.Errorf("error code = %d, want %d", apperrors.ExtractCode(err), tt.wantCode)
			}
		})
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	uc, _, _, _ := newTestUseCase()

	product, err := uc.Upload(context.Background(), testOwnerID, &UploadProductRequest{
		Title:        "mine",
		OriginalKind: models.DataKindText,
		Filename:     "mine.txt",
		ContentType:  "text/plain",
		Data:         []byte("content"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	err = uc.Delete(context.Background(), product.ID, "33333333-3333-3333-3333-333333333333")
	if err == nil {
		t.Fatal("expected error deleting another user's product")
	}
	if apperrors.ExtractCode(err) != apperrors.ErrProductUnauthorized {
		t.Errorf("error code = %d, want ErrProductUnauthorized", apperrors.ExtractCode(err))
	}
}

func TestDeleteRemovesVersionsAndBlobs(t *testing.T) {
	uc, products, versions, blobs := newTestUseCase()

	product, err := uc.Upload(context.Background(), testOwnerID, &UploadProductRequest{
		Title:        "to delete",
		OriginalKind: models.DataKindAudio,
		Filename:     "gone.mp3",
		ContentType:  "audio/mpeg",
		Data:         []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// A converted version with its own blob.
	convertedKey := "converted/1_gone_en.mp3"
	blobs.objects[convertedKey] = []byte("audio")
	versions.versions[vkey(product.ID, models.DataKindAudio, "en")] = &ProductVersion{
		ID:           "converted",
		ProductID:    product.ID,
		DataKind:     models.DataKindAudio,
		LanguageCode: "en",
		ObjectKey:    convertedKey,
	}

	if err := uc.Delete(context.Background(), product.ID, testOwnerID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, ok := products.products[product.ID]; ok {
		t.Error("product row survived delete")
	}
	if got, _ := versions.ListByProduct(context.Background(), product.ID); len(got) != 0 {
		t.Errorf("%d version rows survived delete", len(got))
	}
	if len(blobs.objects) != 0 {
		t.Errorf("%d blobs survived delete", len(blobs.objects))
	}
}

func TestDownloadRecordsHistory(t *testing.T) {
	uc, _, versions, _ := newTestUseCase()

	product, err := uc.Upload(context.Background(), testOwnerID, &UploadProductRequest{
		Title:        "album",
		OriginalKind: models.DataKindAudio,
		Filename:     "album.mp3",
		ContentType:  "audio/mpeg",
		Data:         []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	version, url, err := uc.Download(context.Background(), testOwnerID, product.ID, models.DataKindAudio, "ja")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if url == "" {
		t.Error("expected presigned URL for a media version")
	}
	if !version.IsOriginal {
		t.Error("expected the original version")
	}

	records, err := uc.ListDownloads(context.Background(), testOwnerID, 10)
	if err != nil {
		t.Fatalf("ListDownloads() error = %v", err)
	}
	if len(records) != 1 || records[0].VersionID != version.ID {
		t.Errorf("download history = %+v, want one record for %s", records, version.ID)
	}

	// Text versions are served inline, without a URL.
	versions.versions[vkey(product.ID, models.DataKindText, "en")] = &ProductVersion{
		ID:           "textv",
		ProductID:    product.ID,
		DataKind:     models.DataKindText,
		LanguageCode: "en",
		TextContent:  "<p>words</p>",
	}
	_, url, err = uc.Download(context.Background(), testOwnerID, product.ID, models.DataKindText, "en")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty for a text version", url)
	}
}
