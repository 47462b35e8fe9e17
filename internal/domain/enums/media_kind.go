package enums

import "strings"

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaKindFromContentType classifies an upload by its declared content type.
// Anything that is not video/* is treated as an image.
func MediaKindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return MediaKindVideo
	}
	return MediaKindImage
}

func (k MediaKind) Valid() bool {
	return k == MediaKindImage || k == MediaKindVideo
}
