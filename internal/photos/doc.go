// Package photos reads the photo directory: it lists image files, pages
// through them newest first, and resolves photo identifiers to files.
//
// A photo identifier is the filename as it appears in the directory.
// Resolution falls back to the first file (in name order) sharing the
// identifier's basename, so "sunset" or "sunset.png" both find "sunset.jpg"
// when that is the only match. Identifiers that would leave the directory
// never resolve.
//
// *Library satisfies the source interface consumed by the thumbnail cache.
package photos
