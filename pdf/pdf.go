// Package pdf reads PDF metadata with github.com/ledongthuc/pdf.
package pdf

import (
	"fmt"

	"github.com/fwojciec/papershelf"
	"github.com/ledongthuc/pdf"
)

// Ensure PageCounter implements papershelf.PageCounter at compile time.
var _ papershelf.PageCounter = (*PageCounter)(nil)

// PageCounter counts the pages of local PDF files.
type PageCounter struct{}

// NewPageCounter creates a new PageCounter.
func NewPageCounter() *PageCounter {
	return &PageCounter{}
}

// CountPages returns the number of pages of the PDF at path.
// Returns EINVALID if the file is not a readable PDF.
func (c *PageCounter) CountPages(path string) (n int, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, papershelf.Errorf(papershelf.EINVALID, "malformed PDF %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, papershelf.Errorf(papershelf.EINVALID, "open PDF %s: %v", path, err)
	}
	defer f.Close()

	n = r.NumPage()
	if n < 0 {
		return 0, fmt.Errorf("invalid page count %d in %s", n, path)
	}
	return n, nil
}
