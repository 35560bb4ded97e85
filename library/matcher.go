package library

import (
	"path/filepath"
	"strings"

	"github.com/fwojciec/papershelf"
)

// Ref is the part of a document reference used for identity matching.
type Ref struct {
	Filename string
	Title    string
}

// DocumentRef returns the identity reference of a backend document.
func DocumentRef(d *papershelf.DocumentRecord) Ref {
	return Ref{Filename: d.Filename, Title: d.Title}
}

// WorkspaceRef returns the identity reference of a workspace file.
func WorkspaceRef(f *papershelf.WorkspaceFile) Ref {
	return Ref{Filename: f.Name, Title: f.Title}
}

// UploadRef returns the identity reference of an in-flight upload.
func UploadRef(u papershelf.UploadEntry) Ref {
	name := filepath.Base(u.Path)
	return Ref{Filename: name, Title: papershelf.TitleFromFilename(name)}
}

// SameFile reports whether two references denote the same underlying file.
//
// References match when their filenames are equal or when either title
// contains the other, ignoring case. The rule is permissive because each
// source normalizes names differently: the backend keeps its own title while
// local files derive one from the filename. Empty titles never match.
func SameFile(a, b Ref) bool {
	if a.Filename != "" && a.Filename == b.Filename {
		return true
	}
	if a.Title == "" || b.Title == "" {
		return false
	}
	at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
	return strings.Contains(at, bt) || strings.Contains(bt, at)
}
