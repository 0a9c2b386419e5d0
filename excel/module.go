package excel

import "sync"

// Module owns a case-folded-name -> *Sheet map. It is the sole allocator of
// each Sheet it returns; sheets remain valid until the Module itself is
// discarded.
type Module struct {
	source          FileSource
	defaultLanguage Language

	mu     sync.RWMutex
	sheets map[string]*Sheet
}

// NewModule constructs a Module that loads sheets through source, using
// defaultLanguageTag (e.g. "en") whenever a sheet is requested without an
// explicit language preference.
func NewModule(source FileSource, defaultLanguageTag string) *Module {
	return &Module{
		source:          source,
		defaultLanguage: languageFromTag(defaultLanguageTag),
		sheets:          make(map[string]*Sheet),
	}
}

// GetSheet returns the sheet named name (case-folded), constructing and
// caching it on first access. The returned *Sheet is valid until the Module
// is discarded.
func (m *Module) GetSheet(name string) (*Sheet, error) {
	key := foldName(name)

	m.mu.RLock()
	if s, ok := m.sheets[key]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sheets[key]; ok {
		return s, nil
	}

	s, err := NewSheet(m.source, key, m.defaultLanguage)
	if err != nil {
		return nil, err
	}
	m.sheets[key] = s
	return s, nil
}

func foldName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
