package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"ufw-inspector/internal/model"
)

// DefaultApplicationsDir is where ufw keeps installed application profiles.
const DefaultApplicationsDir = "/etc/ufw/applications.d"

var iniOptions = ini.LoadOptions{
	InsensitiveKeys:     true,
	IgnoreInlineComment: true,
}

// ParseProfileText parses one INI profile document. Each section becomes one
// entry, in document order. An empty default section is ignored.
func ParseProfileText(source string, data []byte) (model.ApplicationProfile, error) {
	file, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return model.ApplicationProfile{}, fmt.Errorf("%w: %s: %s", model.ErrIO, source, err.Error())
	}

	var sections []Section
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		values := make(map[string]*string, len(sec.Keys()))
		for _, key := range sec.Keys() {
			v := key.Value()
			values[key.Name()] = &v
		}
		sections = append(sections, Section{Name: sec.Name(), Values: values})
	}
	return BuildApplicationProfile(source, sections), nil
}

// ParseProfileFile reads and parses one profile document from fsys.
func ParseProfileFile(fsys afero.Fs, path string) (model.ApplicationProfile, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ApplicationProfile{}, fmt.Errorf("%w: %s", model.ErrFileNotFound, path)
		}
		return model.ApplicationProfile{}, fmt.Errorf("%w: %s", model.ErrIO, err.Error())
	}
	return ParseProfileText(path, data)
}

// ParseProfileDir parses every regular file in dir, sorted by name. An
// unreadable directory yields a single IO error result.
func ParseProfileDir(fsys afero.Fs, dir string) []model.Result[model.ApplicationProfile] {
	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return []model.Result[model.ApplicationProfile]{
			model.Fail[model.ApplicationProfile](fmt.Errorf("%w: %s", model.ErrIO, err.Error())),
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	var results []model.Result[model.ApplicationProfile]
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		profile, err := ParseProfileFile(fsys, filepath.Join(dir, info.Name()))
		if err != nil {
			results = append(results, model.Fail[model.ApplicationProfile](err))
			continue
		}
		results = append(results, model.Ok(profile))
	}
	return results
}

// Catalog indexes profile entries by name, case-insensitively.
type Catalog struct {
	entries map[string]model.ApplicationEntry
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]model.ApplicationEntry)}
}

// Add indexes every successful entry of profile. Later additions replace
// earlier entries with the same name.
func (c *Catalog) Add(profile model.ApplicationProfile) {
	for _, e := range model.Values(profile.Entries) {
		c.entries[strings.ToLower(e.Name)] = e
	}
}

func (c *Catalog) Lookup(name string) (model.ApplicationEntry, bool) {
	if c == nil {
		return model.ApplicationEntry{}, false
	}
	e, ok := c.entries[strings.ToLower(name)]
	return e, ok
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns the indexed entry names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}
