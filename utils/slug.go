package utils

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

var slugNamespace = uuid.MustParse("6f1c2a52-3d7e-4b8a-9c0d-5e4f3a2b1c9d")

// Slugify turns a display name into a url-safe key ("Débuts en Go" → "debuts-en-go").
// Names with no sluggable characters get a short key derived from the name,
// so the same name always maps to the same key.
func Slugify(name string) string {
	name = strings.TrimSpace(name)
	if s := slug.Make(name); s != "" {
		return s
	}
	return uuid.NewSHA1(slugNamespace, []byte(name)).String()[:8]
}
