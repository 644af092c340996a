package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVersion 商品版本模型
//
// One row per (product, kind, language) combination. The original upload is
// stored with IsOriginal=true; every conversion output becomes another row.
// Text versions carry their content inline, media versions reference a MinIO
// object. The composite unique index backs the conversion cache: a second
// writer racing on the same key gets a duplicate error and refetches.
type ProductVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_version_key,priority:1"`

	DataKind     string `gorm:"type:varchar(50);not null;uniqueIndex:idx_version_key,priority:2"`
	LanguageCode string `gorm:"type:varchar(16);not null;uniqueIndex:idx_version_key,priority:3"`

	// Exactly one of ObjectKey and TextContent is set, depending on DataKind.
	ObjectKey   string `gorm:"type:varchar(500)"`
	TextContent string `gorm:"type:text"`

	Filename    string `gorm:"type:varchar(255)"`
	FileSize    int64
	ContentType string `gorm:"type:varchar(100)"`

	IsOriginal bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProductVersion) TableName() string {
	return "product_versions"
}

// Validate 验证商品版本
func (v *ProductVersion) Validate() error {
	if v.ProductID == uuid.Nil {
		return ErrInvalidProductID
	}

	if !ValidDataKind(v.DataKind) {
		return ErrInvalidDataKind
	}

	if v.LanguageCode == "" {
		return ErrInvalidLanguage
	}

	if v.DataKind == DataKindText {
		if v.TextContent == "" {
			return ErrEmptyTextContent
		}
	} else {
		if v.ObjectKey == "" {
			return ErrInvalidObjectKey
		}
	}

	return nil
}

// IsText reports whether this version stores its payload inline.
func (v *ProductVersion) IsText() bool {
	return v.DataKind == DataKindText
}
