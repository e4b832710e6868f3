package common

import (
	"mime"
	"strings"
)

// MediaFileType is the broad class of an attachment.
type MediaFileType string

const (
	MediaFileTypeImage    MediaFileType = "image"
	MediaFileTypeVideo    MediaFileType = "video"
	MediaFileTypeAudio    MediaFileType = "audio"
	MediaFileTypeDocument MediaFileType = "document"
	MediaFileTypeArchive  MediaFileType = "archive"
	MediaFileTypeOther    MediaFileType = "other"
)

// String returns the string representation
func (mft MediaFileType) String() string {
	return string(mft)
}

// knownFileTypes maps the content types a bot may answer with to the file
// extension used for the stored reply. text/plain and text/html are replies
// in their own right and are deliberately absent.
var knownFileTypes = map[string]string{
	"image/png":                "png",
	"image/jpeg":               "jpg",
	"image/gif":                "gif",
	"image/webp":               "webp",
	"image/svg+xml":            "svg",
	"audio/mpeg":               "mp3",
	"audio/ogg":                "ogg",
	"audio/wav":                "wav",
	"video/mp4":                "mp4",
	"video/webm":               "webm",
	"application/pdf":          "pdf",
	"application/zip":          "zip",
	"application/gzip":         "gz",
	"application/msword":       "doc",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"text/csv":      "csv",
	"text/calendar": "ics",
}

// NormalizeContentType strips parameters and lowercases a Content-Type header value.
func NormalizeContentType(header string) string {
	if header == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType, _, _ = strings.Cut(header, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ExtensionForContentType resolves a content type to a known file extension.
func ExtensionForContentType(contentType string) (string, bool) {
	ext, ok := knownFileTypes[NormalizeContentType(contentType)]
	return ext, ok
}

// IsTextReply reports whether a response content type carries a plain text reply.
func IsTextReply(contentType string) bool {
	switch NormalizeContentType(contentType) {
	case "text/plain", "text/html":
		return true
	}
	return false
}

func DetectFileType(mimeType string) MediaFileType {
	lowerMimeType := NormalizeContentType(mimeType)
	switch {
	case strings.HasPrefix(lowerMimeType, "image/"):
		return MediaFileTypeImage
	case strings.HasPrefix(lowerMimeType, "video/"):
		return MediaFileTypeVideo
	case strings.HasPrefix(lowerMimeType, "audio/"):
		return MediaFileTypeAudio
	}
	switch lowerMimeType {
	case "application/zip", "application/gzip", "application/x-tar", "application/x-7z-compressed", "application/vnd.rar":
		return MediaFileTypeArchive
	case "application/pdf", "application/msword", "text/csv", "text/plain":
		return MediaFileTypeDocument
	}
	if strings.HasPrefix(lowerMimeType, "application/vnd.") {
		return MediaFileTypeDocument
	}
	return MediaFileTypeOther
}
