package director

import (
	"fmt"
	"path/filepath"
	"time"
)

// GenerateDumpPath creates a timestamped timeline dump filename in dir
func GenerateDumpPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("timelines_%s.yaml", timestamp))
}

// ResolvePath makes a content path from a page file relative to the page's
// directory.
func ResolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
