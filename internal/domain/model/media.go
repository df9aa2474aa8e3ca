package model

import (
	"path"
	"slices"
	"strings"
)

// MediaKind distinguishes the two binary objects attached to a video.
type MediaKind string

const (
	MediaKindVideo     MediaKind = "video"
	MediaKindThumbnail MediaKind = "thumbnail"
)

type mediaRules struct {
	prefix       string
	extensions   map[string]struct{}
	mimeTypes    map[string]struct{}
	fallbackType string
}

var rules = map[MediaKind]mediaRules{
	MediaKindVideo: {
		prefix:       "videos/",
		extensions:   set(".mp4", ".mkv", ".avi", ".webm", ".mov"),
		mimeTypes:    set("video/mp4", "video/x-matroska", "video/x-msvideo", "video/webm", "video/quicktime"),
		fallbackType: "application/octet-stream",
	},
	MediaKindThumbnail: {
		prefix:       "thumbnails/",
		extensions:   set(".jpg", ".jpeg", ".png", ".webp"),
		mimeTypes:    set("image/jpeg", "image/png", "image/webp"),
		fallbackType: "image/jpeg",
	},
}

var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// IsValid reports whether k is a known media kind.
func (k MediaKind) IsValid() bool {
	_, ok := rules[k]
	return ok
}

func (k MediaKind) String() string {
	return string(k)
}

// KeyPrefix is the folder objects of this kind are stored under.
func (k MediaKind) KeyPrefix() string {
	return rules[k].prefix
}

// AllowsExtension reports whether a file name has an accepted extension.
func (k MediaKind) AllowsExtension(fileName string) bool {
	_, ok := rules[k].extensions[strings.ToLower(path.Ext(fileName))]
	return ok
}

// Extensions lists the accepted file extensions without the leading dot.
func (k MediaKind) Extensions() []string {
	exts := make([]string, 0, len(rules[k].extensions))
	for ext := range rules[k].extensions {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(exts)
	return exts
}

// AllowsMIME reports whether a sniffed content type is accepted.
func (k MediaKind) AllowsMIME(mime string) bool {
	_, ok := rules[k].mimeTypes[mime]
	return ok
}

// OwnsKey reports whether key lives under this kind's prefix.
func (k MediaKind) OwnsKey(key string) bool {
	return strings.HasPrefix(key, k.KeyPrefix()) && len(key) > len(k.KeyPrefix())
}

// GuessContentType infers a content type from the key's extension.
// Used only when upstream does not declare one.
func GuessContentType(key string, kind MediaKind) string {
	if ct, ok := extensionTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	if r, ok := rules[kind]; ok {
		return r.fallbackType
	}
	return "application/octet-stream"
}
