package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Loader resolves specification files by name across a list of search
// paths. A name resolves to "<name>.xml" (canonical format) or
// "<name>.json" (device-profile flavor), in that order per directory.
// Parsed results are cached; Reload bypasses the cache.
type Loader struct {
	cache       sync.Map
	xmlParser   *Parser
	jsonParser  *ProfileParser
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	jsonParser, err := NewProfileParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create profile parser: %w", err)
	}
	return &Loader{
		xmlParser:   New(),
		jsonParser:  jsonParser,
		searchPaths: searchPaths,
	}, nil
}

func (l *Loader) Load(name string) (*Result, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*Result), nil
	}
	return l.Reload(name)
}

// Reload parses the named specification from disk, replacing any cached
// result.
func (l *Loader) Reload(name string) (*Result, error) {
	path, isXML, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	var result *Result
	if isXML {
		result, err = l.xmlParser.ParseFile(path)
	} else {
		result, err = l.jsonParser.ParseFile(path)
	}
	if err != nil {
		return nil, err
	}

	l.cache.Store(name, result)
	return result, nil
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

func (l *Loader) resolve(name string) (path string, isXML bool, err error) {
	for _, searchPath := range l.searchPaths {
		xmlPath := filepath.Join(searchPath, name+".xml")
		if _, err := os.Stat(xmlPath); err == nil {
			return xmlPath, true, nil
		}
		jsonPath := filepath.Join(searchPath, name+".json")
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, false, nil
		}
	}
	return "", false, &ParseError{
		Msg: fmt.Sprintf("specification not found: %s (searched in: %v)", name, l.searchPaths),
	}
}
