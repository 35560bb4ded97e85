package papershelf

import (
	"context"
	"path/filepath"
	"strings"
)

// WorkspaceFile represents a PDF discovered by scanning the local workspace.
type WorkspaceFile struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	RelativePath string `json:"relativePath"`
	Pages        int    `json:"pages,omitempty"`
}

// NewWorkspaceFile builds a WorkspaceFile for the PDF at path discovered
// under root, deriving its display name, title and relative path.
func NewWorkspaceFile(root, path string) *WorkspaceFile {
	name := filepath.Base(path)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	return &WorkspaceFile{
		Path:         path,
		Name:         name,
		Title:        TitleFromFilename(name),
		RelativePath: filepath.ToSlash(rel),
	}
}

// TitleFromFilename strips the PDF extension and replaces separators with spaces.
func TitleFromFilename(name string) string {
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = name[:len(name)-len(ext)]
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// WorkspaceScanner discovers PDF files in the local workspace.
type WorkspaceScanner interface {
	ScanWorkspace(ctx context.Context) ([]*WorkspaceFile, error)
}

// WorkspaceWatcher notifies when PDFs appear or disappear in the workspace.
type WorkspaceWatcher interface {
	// Watch blocks until ctx is done, calling onChange after each burst of
	// relevant filesystem events.
	Watch(ctx context.Context, onChange func()) error
}

// PageCounter reports the number of pages in a PDF.
type PageCounter interface {
	CountPages(path string) (int, error)
}
