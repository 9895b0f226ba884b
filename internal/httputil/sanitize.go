package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidateURL checks that a URL is well-formed and uses an HTTP scheme.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("only HTTP(S) URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// SanitizeFilename removes path traversal and dangerous characters from a
// filename. Returns just the base name, stripped of directory components.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." || name == ".." {
		return "untitled"
	}

	return name
}

// SafeDownloadPath resolves and validates a download path, ensuring it stays
// within the target directory.
func SafeDownloadPath(dir, filename string) (string, error) {
	sanitized := SanitizeFilename(filename)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	full := filepath.Join(absDir, sanitized)

	resolved, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if !strings.HasPrefix(resolved, absDir+string(filepath.Separator)) && resolved != absDir {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", resolved, absDir)
	}

	return resolved, nil
}

// PathExtension extracts the media extension from an address path, falling
// back to "mp4" when none is recognizable.
func PathExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "mp4"
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Path)), ".")
	if ext == "" || len(ext) > 5 {
		return "mp4"
	}
	return ext
}

// PathFilename extracts the last path segment of an address for use as a
// download filename, synthesizing one when the path is bare.
func PathFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "video." + PathExtension(rawURL)
	}
	base := filepath.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "video." + PathExtension(rawURL)
	}
	return SanitizeFilename(base)
}
