package mediatypes

import (
	"path/filepath"
	"strings"
)

const (
	// ThumbnailMimeType is the content type of every rendered thumbnail.
	ThumbnailMimeType = "image/jpeg"
	// ThumbnailExtension is the file extension used in the thumbnail store.
	ThumbnailExtension = ".jpg"
)

// ImageExtensions maps lowercase file extensions to whether they are accepted
// as source photos.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// MimeTypes maps accepted extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Ext returns the lowercase extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsImageFile reports whether name carries an allow-listed image extension.
func IsImageFile(name string) bool {
	return ImageExtensions[Ext(name)]
}

// GetMimeType returns the MIME type for a file name based on its extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[Ext(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// NameWithoutExtension strips the last extension from a file name. Names whose
// only dot is the leading one (".hidden") are returned unchanged.
func NameWithoutExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
