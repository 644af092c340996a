package models

import (
	"time"

	"github.com/google/uuid"
)

// Data kinds a product or one of its versions can hold.
const (
	DataKindVideo = "video"
	DataKindAudio = "audio"
	DataKindText  = "text"
)

// ValidDataKind reports whether kind is one of the supported media kinds.
func ValidDataKind(kind string) bool {
	switch kind {
	case DataKindVideo, DataKindAudio, DataKindText:
		return true
	}
	return false
}

// Product 商品模型
type Product struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Original upload info
	OriginalKind     string `gorm:"type:varchar(50);not null"` // video, audio, text
	OriginalLanguage string `gorm:"type:varchar(16);not null"` // BCP 47 primary subtag
	Filename         string `gorm:"type:varchar(255);not null"`
	FileSize         int64  `gorm:"not null"`
	ContentType      string `gorm:"type:varchar(100)"`

	// MinIO object keys
	ObjectKey    string `gorm:"type:varchar(500);not null"`
	ThumbnailKey string `gorm:"type:varchar(500)"`

	Featured bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Versions []ProductVersion `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string {
	return "products"
}

// Validate 验证商品
func (p *Product) Validate() error {
	if p.OwnerID == uuid.Nil {
		return ErrInvalidOwnerID
	}

	if p.Title == "" {
		return ErrInvalidTitle
	}

	if !ValidDataKind(p.OriginalKind) {
		return ErrInvalidDataKind
	}

	if p.OriginalLanguage == "" {
		return ErrInvalidLanguage
	}

	if p.Filename == "" {
		return ErrInvalidFilename
	}

	if p.FileSize <= 0 {
		return ErrInvalidFileSize
	}

	if p.ObjectKey == "" {
		return ErrInvalidObjectKey
	}

	return nil
}
