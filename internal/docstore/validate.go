package docstore

import (
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest accepted plaintext upload (10 MiB).
const MaxFileSize int64 = 10 * 1024 * 1024

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".xlsx": {},
	".doc":  {},
	".xls":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".txt":  {},
}

// AllowedExtensions returns the accepted extensions in a stable order, for
// user-facing rejection messages.
func AllowedExtensions() []string {
	return []string{".pdf", ".docx", ".xlsx", ".doc", ".xls", ".jpg", ".jpeg", ".png", ".txt"}
}

// IsAllowedExtension reports whether fileName has one of the accepted
// extensions. The comparison is case-insensitive and only looks at the
// name, never at the content.
func IsAllowedExtension(fileName string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// IsAllowedSize reports whether 0 < size <= MaxFileSize.
func IsAllowedSize(size int64) bool {
	return size > 0 && size <= MaxFileSize
}
