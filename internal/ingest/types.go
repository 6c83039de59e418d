package ingest

import (
	"mime"
	"path"
	"strings"
)

// MaxAttachmentSize is the largest payload accepted as an attachment.
const MaxAttachmentSize int64 = 20 << 20

// Supported MIME types for attachments.
var supportedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
	"text/plain",
	"text/markdown",
	"text/html",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"text/csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-excel",
	"application/pdf",
}

// extensionToType resolves the extensions of supported types without
// depending on the host's MIME database.
var extensionToType = map[string]string{
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".png":      "image/png",
	".gif":      "image/gif",
	".webp":     "image/webp",
	".svg":      "image/svg+xml",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":      "application/msword",
	".csv":      "text/csv",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":      "application/vnd.ms-excel",
	".pdf":      "application/pdf",
}

// typeToExtension names clipboard payloads that arrive without a file name.
var typeToExtension = map[string]string{
	"text/plain":    ".txt",
	"text/markdown": ".md",
	"text/html":     ".html",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/msword": ".doc",
	"text/csv":           ".csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
	"application/vnd.ms-excel": ".xls",
	"application/pdf":          ".pdf",
}

// imageURLExtensions mark a URL as an image reference.
var imageURLExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// SupportedTypes returns the allow-listed MIME types.
func SupportedTypes() []string {
	out := make([]string, len(supportedTypes))
	copy(out, supportedTypes)
	return out
}

// baseType strips MIME parameters and lowercases the type.
func baseType(mimeType string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func family(mimeType string) string {
	f, _, _ := strings.Cut(mimeType, "/")
	return f
}

// IsImage reports whether mimeType is an image type.
func IsImage(mimeType string) bool {
	return family(baseType(mimeType)) == "image"
}

func isListed(mimeType string) bool {
	for _, t := range supportedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// AllowedFile reports whether a file picked from disk may be attached:
// exact allow-list matches plus any image or text type. Other application
// types must match exactly.
func AllowedFile(mimeType string) bool {
	mt := baseType(mimeType)
	if mt == "" {
		return false
	}
	if isListed(mt) {
		return true
	}
	switch family(mt) {
	case "image", "text":
		return true
	}
	return false
}

// AllowedClipboard reports whether a clipboard payload may be attached:
// any image, otherwise only exact allow-list matches.
func AllowedClipboard(mimeType string) bool {
	mt := baseType(mimeType)
	return family(mt) == "image" || isListed(mt)
}

// TypeByExtension resolves the MIME type of a file name. Unknown extensions
// fall back to the system table, then to "".
func TypeByExtension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := extensionToType[ext]; ok {
		return t
	}
	return baseType(mime.TypeByExtension(ext))
}

// ExtensionFor returns the file extension used to name a clipboard payload.
func ExtensionFor(mimeType string) string {
	return typeToExtension[baseType(mimeType)]
}

func isImageURLPath(p string) bool {
	p = strings.ToLower(p)
	for _, ext := range imageURLExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
