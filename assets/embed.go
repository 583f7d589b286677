package assets

import (
	"embed"
	"io/fs"
	"path/filepath"
	"strings"
)

//go:embed atlases/*.yaml
var atlasFS embed.FS

// Atlases returns the embedded atlas definitions rooted at atlases/.
func Atlases() fs.FS {
	sub, err := fs.Sub(atlasFS, "atlases")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return sub
}

func cleanAtlasPath(kind string) string {
	if kind == "" {
		return ""
	}
	s := filepath.ToSlash(kind)
	if idx := strings.LastIndex(s, "/atlases/"); idx >= 0 {
		s = s[idx+len("/atlases/"):]
	}
	s = strings.TrimPrefix(s, "atlases/")
	if !strings.HasSuffix(s, ".yaml") {
		s += ".yaml"
	}
	return s
}
