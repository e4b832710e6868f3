package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantExt     string
		wantOK      bool
	}{
		{"image/png", "png", true},
		{"image/jpeg; charset=binary", "jpg", true},
		{"APPLICATION/PDF", "pdf", true},
		{"text/csv", "csv", true},
		{"text/plain", "", false},
		{"application/json", "", false},
		{"", "", false},
		{"not a type", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, ok := ExtensionForContentType(tt.contentType)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestIsTextReply(t *testing.T) {
	assert.True(t, IsTextReply("text/plain"))
	assert.True(t, IsTextReply("text/html; charset=utf-8"))
	assert.False(t, IsTextReply("text/csv"))
	assert.False(t, IsTextReply("application/json"))
	assert.False(t, IsTextReply(""))
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		mimeType string
		want     MediaFileType
	}{
		{"image/jpeg", MediaFileTypeImage},
		{"video/mp4", MediaFileTypeVideo},
		{"audio/mpeg", MediaFileTypeAudio},
		{"application/pdf", MediaFileTypeDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", MediaFileTypeDocument},
		{"application/zip", MediaFileTypeArchive},
		{"application/octet-stream", MediaFileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType(tt.mimeType))
		})
	}
}
