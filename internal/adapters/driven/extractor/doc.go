// Package extractor turns uploaded document bytes into per-page text.
//
// PDFs are read with github.com/ledongthuc/pdf. Plain text and markdown
// files split into pages on form feeds, and HTML pages are stripped of
// markup. Registry dispatches by extension.
package extractor
