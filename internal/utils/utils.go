package utils

import (
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/podcast-grabber/internal/constants"
)

// maxURLExtensionLength bounds extensions taken from enclosure URLs, dot excluded.
const maxURLExtensionLength = 5

var (
	// invalidCharsPattern includes ASCII control characters (0-31) and Windows-restricted characters: < > : " / \ | ? *.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	invalidCharsPattern = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\x7F]`)

	// urlExtensionPattern matches short alphanumeric extensions such as ".mp3" or ".m4a".
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	urlExtensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,5}$`)

	// textContentTypePatterns is a slice of regular expressions that match content types
	// considered to be text-based. This includes "text/*", "application/json",
	// and XML documents such as RSS and Atom feeds.
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile("^application/json$"),
		regexp.MustCompile(`^application/([a-z0-9.-]+\+)?xml$`),
	}

	// audioExtensionsByMIMEType maps the MIME types podcast hosts commonly send to file extensions.
	//nolint:gochecknoglobals // This is an immutable map used as a constant for lookups.
	audioExtensionsByMIMEType = map[string]string{
		"audio/mpeg":     constants.ExtensionMP3,
		"audio/mp3":      constants.ExtensionMP3,
		"audio/mpeg3":    constants.ExtensionMP3,
		"audio/x-mpeg":   constants.ExtensionMP3,
		"audio/mp4":      constants.ExtensionM4A,
		"audio/x-m4a":    constants.ExtensionM4A,
		"audio/m4a":      constants.ExtensionM4A,
		"audio/aac":      constants.ExtensionAAC,
		"audio/aacp":     constants.ExtensionAAC,
		"audio/ogg":      constants.ExtensionOGG,
		"audio/opus":     constants.ExtensionOpus,
		"audio/flac":     constants.ExtensionFLAC,
		"audio/x-flac":   constants.ExtensionFLAC,
		"audio/wav":      constants.ExtensionWAV,
		"audio/x-wav":    constants.ExtensionWAV,
		"audio/vnd.wave": constants.ExtensionWAV,
		"video/mp4":      constants.ExtensionMP4,
	}

	// mediaExtensions holds every extension audioExtensionsByMIMEType yields plus a few
	// containers that are only recognizable by name.
	//nolint:gochecknoglobals // This is an immutable set used as a constant for lookups.
	mediaExtensions = map[string]struct{}{
		constants.ExtensionMP3:  {},
		constants.ExtensionM4A:  {},
		constants.ExtensionAAC:  {},
		constants.ExtensionOGG:  {},
		constants.ExtensionOpus: {},
		constants.ExtensionFLAC: {},
		constants.ExtensionWAV:  {},
		constants.ExtensionMP4:  {},
		".m4b":                  {},
		".oga":                  {},
		".m4v":                  {},
		".mov":                  {},
		".webm":                 {},
	}

	// windowsReservedNames is a map of filenames that are reserved on Windows systems.
	// These names are case-insensitive and cannot be used as filenames or folder names.
	// Examples include "CON", "PRN", "AUX", "NUL", and COM1-COM9, LPT1-LPT9.
	//nolint:gochecknoglobals // This is an immutable map used as a constant for validation purposes.
	windowsReservedNames = map[string]struct{}{
		"CON":  {},
		"PRN":  {},
		"AUX":  {},
		"NUL":  {},
		"COM1": {},
		"COM2": {},
		"COM3": {},
		"COM4": {},
		"COM5": {},
		"COM6": {},
		"COM7": {},
		"COM8": {},
		"COM9": {},
		"LPT1": {},
		"LPT2": {},
		"LPT3": {},
		"LPT4": {},
		"LPT5": {},
		"LPT6": {},
		"LPT7": {},
		"LPT8": {},
		"LPT9": {},
	}
)

// SanitizeFilename sanitizes a filename or folder name to be valid on both Windows and Unix-like systems.
// Whitespace runs (tabs and newlines included) collapse to a single space, invalid characters
// become underscores, Windows reserved names are prefixed, and the result is never empty.
func SanitizeFilename(name string) string {
	if name == "" {
		return ""
	}

	result := strings.Join(strings.Fields(name), " ")
	result = invalidCharsPattern.ReplaceAllString(result, "_")

	// Extract base filename (without extension) for comparison
	baseName := result
	if dotIndex := strings.LastIndex(result, "."); dotIndex != -1 {
		baseName = result[:dotIndex]
	}

	// If base name is a Windows reserved name, prepend an underscore.
	if _, ok := windowsReservedNames[strings.ToUpper(baseName)]; ok {
		result = "_" + result
	}

	// Remove trailing dots and spaces from the filename.
	result = strings.TrimRight(result, ". ")

	// Ensure the filename is not empty.
	if result == "" {
		result = "_"
	}

	return result
}

// TruncateRunes shortens s to at most maxRunes runes without splitting a multi-byte character.
// A non-positive limit leaves s unchanged. Trailing spaces left by the cut are removed.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)

	return strings.TrimRight(string(runes[:maxRunes]), " ")
}

// TruncateBytes shortens s to at most maxBytes bytes of UTF-8 without splitting a multi-byte character.
// A non-positive limit leaves s unchanged. Trailing spaces left by the cut are removed.
func TruncateBytes(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return strings.TrimRight(s[:cut], " ")
}

// SetFileExtension ensures the file has the specified extension.
// If the filename already has the correct extension, it is returned unchanged.
// If the filename has a different extension, the old extension is replaced with the new one.
// If the filename has no extension, the new extension is appended.
func SetFileExtension(filename, extension string, isExtensionReplaced bool) string {
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	currentExt := filepath.Ext(filename)
	if currentExt == extension {
		return filename
	}

	if isExtensionReplaced {
		// Remove existing extension if present.
		filename = strings.TrimSuffix(filename, currentExt)
	}

	return filename + extension
}

// ExtensionFromURL returns the lowercased extension of the URL path, dot included,
// or an empty string when the path has none or it does not look like a media extension.
// Query strings and fragments are ignored.
func ExtensionFromURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	ext := path.Ext(parsedURL.Path)
	if len(ext) > maxURLExtensionLength+1 || !urlExtensionPattern.MatchString(ext) {
		return ""
	}

	return strings.ToLower(ext)
}

// IsMediaExtension reports whether ext (dot included) names an audio or video container
// that podcast hosts serve, such as ".mp3" or ".m4a". The comparison is case-insensitive.
func IsMediaExtension(ext string) bool {
	_, ok := mediaExtensions[strings.ToLower(ext)]

	return ok
}

// ExtensionFromContentType maps a MIME type to a file extension, dot included.
// Parameters such as charset are ignored. Unknown types yield an empty string.
func ExtensionFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	if ext, ok := audioExtensionsByMIMEType[mediaType]; ok {
		return ext
	}

	extensions, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(extensions) == 0 {
		return ""
	}

	return strings.ToLower(extensions[0])
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// EnsureWritableDir creates the directory (and its parents) when absent
// and verifies that a file can be created inside it.
func EnsureWritableDir(dir string) error {
	err := os.MkdirAll(dir, constants.DefaultFolderPermissions)
	if err != nil {
		return err
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return err
	}

	probeName := probe.Name()

	err = probe.Close()
	if err != nil {
		return err
	}

	return os.Remove(probeName)
}

// IsTextContentType checks if the given content type represents a text-based format.
// It supports "text/*", "application/json", and XML types such as "application/rss+xml".
// It also checks that the charset, if present, is either "utf-8" or "us-ascii".
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}

// Map applies a transformation function to each element of a slice and returns a new slice with the results.
func Map[E, S any](v []E, transformFunc func(E) S) []S {
	result := make([]S, len(v))
	for i := range v {
		result[i] = transformFunc(v[i])
	}

	return result
}
