package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"
)

// spaFileSystem serves the embedded control page. Unknown page paths get
// index.html so reloads keep working; unknown /api/ paths stay 404.
type spaFileSystem struct {
	root http.FileSystem
}

func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if err == nil {
		return f, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !strings.HasPrefix(name, "/api/") {
		return s.root.Open("index.html")
	}
	return nil, err
}
