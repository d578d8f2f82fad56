// Package mediatypes holds the fixed image format allow-list shared by the
// photo scanner, the thumbnail renderers and the HTTP handlers.
//
// Only JPEG, PNG and GIF sources are accepted. Extension matching is case
// insensitive:
//
//	if mediatypes.IsImageFile("IMG_0001.JPG") {
//	    // served and thumbnailed
//	}
//
// Thumbnails are always encoded as JPEG regardless of the source format, see
// [ThumbnailMimeType] and [ThumbnailExtension].
package mediatypes
