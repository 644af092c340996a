package models

import "errors"

// Product 错误
var (
	ErrInvalidOwnerID   = errors.New("invalid owner id")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidDataKind  = errors.New("invalid data kind")
	ErrInvalidLanguage  = errors.New("invalid language code")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrInvalidFileSize  = errors.New("invalid file size")
	ErrInvalidObjectKey = errors.New("invalid object key")
)

// ProductVersion 错误
var (
	ErrInvalidProductID = errors.New("invalid product id")
	ErrEmptyTextContent = errors.New("empty text content")
	ErrDuplicateVersion = errors.New("version already exists")
	ErrVersionNotFound  = errors.New("version not found")
)

// DownloadHistory 错误
var (
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrInvalidVersionID = errors.New("invalid version id")
)
