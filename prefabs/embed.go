package prefabs

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed enemies/*.yaml projectiles/*.yaml
var PrefabsFS embed.FS

var (
	rootMu   sync.RWMutex
	diskRoot = "prefabs"
)

// SetDiskRoot changes the directory checked for prefab overrides before the
// embedded copies are used. An empty root disables overrides.
func SetDiskRoot(dir string) {
	rootMu.Lock()
	defer rootMu.Unlock()
	diskRoot = dir
}

// DiskRoot returns the override directory.
func DiskRoot() string {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return diskRoot
}

func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if root := DiskRoot(); root != "" {
		if data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return ScriptsFS.ReadFile(clean)
}

func Load(name string) ([]byte, error) {
	clean := cleanPrefabPath(name)
	if root := DiskRoot(); root != "" {
		if data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return PrefabsFS.ReadFile(clean)
}

func ModTime(name string) (time.Time, bool) {
	root := DiskRoot()
	if root == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(cleanPrefabPath(name))))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func diskFS() fs.FS {
	root := DiskRoot()
	if root == "" {
		return nil
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(root)
}

func cleanPrefabPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		return after
	}
	return s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)

	if after, ok := strings.CutPrefix(s, "prefabs/scripts/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	if !isScriptFile(s) {
		s += ".tengo"
	}

	return fmt.Sprintf("scripts/%s", s)
}
