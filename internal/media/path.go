package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectPath builds "<owner>/<unix millis>-<token>.<ext>".
func ObjectPath(ownerID, filename string, now time.Time, token string) string {
	return fmt.Sprintf("%s/%d-%s.%s", ownerID, now.UnixMilli(), token, extension(filename))
}

func extension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "bin"
	}
	return strings.ToLower(ext)
}

// RandomToken returns a short random token for object paths.
func RandomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
