// Package document inspects downloaded disclosure documents.
package document

import (
	"os"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/rotisserie/eris"
)

// Info describes a local document.
type Info struct {
	Path  string
	Size  int64
	Pages int // zero when the file is not a readable PDF
}

// Inspect stats the file at path and, for PDFs, counts its pages. A PDF that
// cannot be parsed is not an error; Pages is left at zero.
func Inspect(path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, eris.Wrapf(err, "document: stat %s", path)
	}
	info := Info{Path: path, Size: st.Size()}
	if !strings.EqualFold(extOf(path), ".pdf") {
		return info, nil
	}
	if n, err := PageCount(path); err == nil {
		info.Pages = n
	}
	return info, nil
}

// PageCount opens the PDF at path and returns its page count.
func PageCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrapf(err, "document: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return 0, eris.Wrapf(err, "document: stat %s", path)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, eris.Errorf("document: malformed pdf %s: %v", path, r)
		}
	}()

	r, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return 0, eris.Wrapf(err, "document: parse %s", path)
	}
	return r.NumPage(), nil
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || strings.ContainsAny(path[i:], `/\`) {
		return ""
	}
	return path[i:]
}
