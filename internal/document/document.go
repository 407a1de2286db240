// Package document defines the page model handed to the chunker and the
// source abstraction that supplies pages from a document corpus.
//
// docsift does not parse rich file formats itself. A Source is expected to
// have already extracted plain text per page (for PDFs, one entry per PDF
// page); the bundled filesystem source reads plain-text and markdown files,
// treating form feeds as page breaks.
package document

import (
	"strings"
)

// Page is one unit of extracted text: the text of a single page of a
// source document, plus provenance.
type Page struct {
	// Text is the raw page text. May be empty for blank pages.
	Text string

	// PageNumber is the 1-based page number within the source document.
	PageNumber int

	// SourceDocument identifies the originating document (the filename).
	SourceDocument string

	// Brand is the manufacturer tag derived from the document name.
	// Empty when unknown.
	Brand string
}

// BrandFromFilename derives a brand tag from a manual's filename.
// Vendor manuals in the corpus follow the "Brand_Model.ext" convention,
// so the brand is the part before the first underscore or space,
// lowercased. A name with no separator yields the whole
// extension-stripped name; a name with nothing before the separator
// (or no name at all) yields "".
func BrandFromFilename(name string) string {
	base := name
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if i := strings.IndexAny(base, "_ "); i > 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.ToLower(base)
}
