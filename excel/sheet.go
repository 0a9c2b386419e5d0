package excel

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/ffxiv-tools/sqpack"
)

// FileSource resolves a virtual archive path to raw file bytes. *sqpack.Pack
// satisfies this interface, but excel depends on the narrow interface
// rather than the concrete type so it stays testable against an in-memory
// fixture.
type FileSource interface {
	GetFileContents(path string) ([]byte, error)
}

// loadTyped resolves path and decodes it with parse. When source is a real
// *sqpack.Pack this delegates to sqpack.GetTypedFile so header and page
// loads go through the same cached typed-file path as any other registered
// file kind; a bare FileSource (e.g. a test fixture) falls back to fetching
// the raw bytes and parsing them directly.
func loadTyped[T any](source FileSource, path string, parse func([]byte) (T, error)) (T, error) {
	if p, ok := source.(*sqpack.Pack); ok {
		return sqpack.GetTypedFile(p, path, parse)
	}
	data, err := source.GetFileContents(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(data)
}

// Sheet owns one parsed header and a vector of lazily loaded page slots,
// exactly sized to header.Pages. Slots form a two-state machine per index:
// empty (nil) until first access, then loaded for the sheet's remaining
// lifetime; a failed load leaves the slot empty so a retry can succeed
// later.
type Sheet struct {
	source   FileSource
	name     string
	header   *Header
	language Language

	mu    sync.RWMutex
	pages []*Page
}

// NewSheet loads name's .exh header, resolves the language to use for page
// loads (preferred, falling back to LanguageNone, failing with
// ErrLanguageNotFound otherwise), and allocates empty page slots.
func NewSheet(source FileSource, name string, preferred Language) (*Sheet, error) {
	header, err := loadTyped(source, fmt.Sprintf("exd/%s.exh", name), ParseHeader)
	if err != nil {
		return nil, err
	}

	lang := preferred
	switch {
	case header.HasLanguage(preferred):
		lang = preferred
	case header.HasLanguage(LanguageNone):
		lang = LanguageNone
	default:
		return nil, ErrLanguageNotFound
	}

	return &Sheet{
		source:   source,
		name:     name,
		header:   header,
		language: lang,
		pages:    make([]*Page, len(header.Pages)),
	}, nil
}

// Name returns the sheet's case-folded name as registered with its Module.
func (s *Sheet) Name() string { return s.name }

func (s *Sheet) pagePath(def PageDefinition) string {
	if s.language == LanguageNone {
		return fmt.Sprintf("exd/%s_%d.exd", s.name, def.StartID)
	}
	return fmt.Sprintf("exd/%s_%d_%s.exd", s.name, def.StartID, s.language.tag())
}

// loadPage returns the page at slot i, loading it on first access.
func (s *Sheet) loadPage(i int) (*Page, error) {
	s.mu.RLock()
	if p := s.pages[i]; p != nil {
		s.mu.RUnlock()
		return p, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.pages[i]; p != nil {
		return p, nil
	}

	def := s.header.Pages[i]
	page, err := loadTyped(s.source, s.pagePath(def), func(data []byte) (*Page, error) {
		return ParsePage(data, def.StartID)
	})
	if err != nil {
		return nil, err
	}
	s.pages[i] = page
	return page, nil
}

// pageIndexFor returns the index into header.Pages whose range contains
// rowID, or -1 if none does.
func (s *Sheet) pageIndexFor(rowID uint32) int {
	pages := s.header.Pages
	lo, hi := 0, len(pages)
	for lo < hi {
		mid := (lo + hi) / 2
		def := pages[mid]
		switch {
		case rowID < def.StartID:
			hi = mid
		case rowID >= def.StartID+def.RowCount:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// GetRow looks up a row by id, loading its containing page on demand.
func (s *Sheet) GetRow(rowID uint32) (Row, error) {
	idx := s.pageIndexFor(rowID)
	if idx < 0 {
		return Row{}, ErrRowNotFound
	}
	page, err := s.loadPage(idx)
	if err != nil {
		return Row{}, err
	}
	pos, ok := page.find(rowID)
	if !ok {
		return Row{}, ErrRowNotFound
	}
	subRows, bytes, err := page.rowAt(pos)
	if err != nil {
		return Row{}, err
	}
	return Row{Sheet: s, RowID: rowID, SubRowCount: subRows, Bytes: bytes}, nil
}

// GetRowAtIndex walks page_definitions, accumulating their declared row
// counts, until i falls within one, then returns that page's entry at i
// minus the row counts of the pages before it.
func (s *Sheet) GetRowAtIndex(i int) (Row, error) {
	if i < 0 {
		return Row{}, ErrRowNotFound
	}
	accumulated := 0
	for pageIdx, def := range s.header.Pages {
		count := int(def.RowCount)
		if i < accumulated+count {
			page, err := s.loadPage(pageIdx)
			if err != nil {
				return Row{}, err
			}
			local := i - accumulated
			if local >= page.rowCount() {
				return Row{}, ErrRowNotFound
			}
			entry := page.indexes[local]
			subRows, bytes, err := page.rowAt(local)
			if err != nil {
				return Row{}, err
			}
			return Row{Sheet: s, RowID: entry.RowID, SubRowCount: subRows, Bytes: bytes}, nil
		}
		accumulated += count
	}
	return Row{}, ErrRowNotFound
}

// GetRowCount sums the declared row counts across all page definitions.
func (s *Sheet) GetRowCount() int {
	total := 0
	for _, def := range s.header.Pages {
		total += int(def.RowCount)
	}
	return total
}

// RowIterator returns a stateful iterator yielding every row in
// (page_order, index_order).
type RowIterator struct {
	sheet   *Sheet
	pageIdx int
	rowIdx  int
}

// RowIterator builds an iterator positioned before the first row.
func (s *Sheet) RowIterator() *RowIterator {
	return &RowIterator{sheet: s}
}

// Next advances the iterator and returns the next row, or ok=false once
// every page has been exhausted.
func (it *RowIterator) Next() (row Row, ok bool, err error) {
	for it.pageIdx < len(it.sheet.header.Pages) {
		page, loadErr := it.sheet.loadPage(it.pageIdx)
		if loadErr != nil {
			return Row{}, false, loadErr
		}
		if it.rowIdx >= page.rowCount() {
			it.pageIdx++
			it.rowIdx = 0
			continue
		}
		entry := page.indexes[it.rowIdx]
		subRows, bytes, rowErr := page.rowAt(it.rowIdx)
		if rowErr != nil {
			return Row{}, false, rowErr
		}
		it.rowIdx++
		return Row{Sheet: it.sheet, RowID: entry.RowID, SubRowCount: subRows, Bytes: bytes}, true, nil
	}
	return Row{}, false, nil
}

// languageFromTag maps a language tag string (as listed in a Config) to its
// Language constant, defaulting to LanguageEN for an empty or unrecognised
// tag so that callers can pass Config.Language through unchanged. A decimal
// string is taken as the numeric Language value.
func languageFromTag(tag string) Language {
	if tag == "" {
		return LanguageEN
	}
	for l, t := range languageTags {
		if t == tag {
			return l
		}
	}
	if n, err := strconv.Atoi(tag); err == nil {
		return Language(n)
	}
	return LanguageEN
}
