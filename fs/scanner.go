package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/papershelf"
	"golang.org/x/sync/errgroup"
)

// DefaultPageConcurrency is the number of PDFs inspected at once for page counts.
const DefaultPageConcurrency = 4

// Ensure Scanner implements papershelf.WorkspaceScanner at compile time.
var _ papershelf.WorkspaceScanner = (*Scanner)(nil)

// Scanner discovers PDF files under a workspace root.
type Scanner struct {
	root     string
	excludes *excluder

	// Pages optionally fills WorkspaceFile.Pages. Files it cannot read
	// are still listed, without a page count.
	Pages papershelf.PageCounter

	// PageConcurrency bounds concurrent page counting.
	PageConcurrency int
}

// NewScanner creates a Scanner for root that skips paths matching any of
// the exclude glob patterns. Returns EINVALID for a malformed pattern.
func NewScanner(root string, excludes []string) (*Scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ex, err := newExcluder(abs, excludes)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		root:            abs,
		excludes:        ex,
		PageConcurrency: DefaultPageConcurrency,
	}, nil
}

// Root returns the absolute workspace root.
func (s *Scanner) Root() string {
	return s.root
}

// ScanWorkspace walks the workspace and returns every PDF in lexical path order.
// Unreadable subdirectories are skipped. Returns ENOTFOUND if the root does
// not exist.
func (s *Scanner) ScanWorkspace(ctx context.Context) ([]*papershelf.WorkspaceFile, error) {
	info, err := os.Stat(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, papershelf.Errorf(papershelf.ENOTFOUND, "workspace %s does not exist", s.root)
	} else if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, papershelf.Errorf(papershelf.EINVALID, "workspace %s is not a directory", s.root)
	}

	var files []*papershelf.WorkspaceFile
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if s.excludes.match(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && isPDF(path) {
			files = append(files, papershelf.NewWorkspaceFile(s.root, path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Pages != nil {
		if err := s.countPages(ctx, files); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (s *Scanner) countPages(ctx context.Context, files []*papershelf.WorkspaceFile) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.PageConcurrency, 1))
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if n, err := s.Pages.CountPages(f.Path); err == nil {
				f.Pages = n
			}
			return nil
		})
	}
	return g.Wait()
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
