package i18n

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when no default is configured.
const DefaultLanguage = "en"

// Options configures a Catalog.
type Options struct {
	// LibDir holds the framework's translation files.
	LibDir string

	// ModDir holds the module's translation files. Optional.
	ModDir string

	// DefaultLanguage is the fallback language. Defaults to "en".
	DefaultLanguage string

	// Language is the user's language.
	Language string

	// Fixed ignores Language and always uses DefaultLanguage.
	Fixed bool

	Logger *log.Logger
}

// Catalog holds the library and module translations.
type Catalog struct {
	mu     sync.RWMutex
	opts   Options
	lang   string
	lib    Dict
	mod    Dict
	logger *log.Logger
}

// New creates an empty catalog. Load fills it.
func New(opts Options) *Catalog {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = DefaultLanguage
	}
	opts.DefaultLanguage = strings.ToLower(opts.DefaultLanguage)
	logger := opts.Logger
	if logger == nil {
		logger = log.Default().WithPrefix("i18n")
	}
	return &Catalog{
		opts:   opts,
		lib:    Dict{},
		mod:    Dict{},
		logger: logger,
	}
}

// Load creates a catalog and reads its translation files.
func Load(ctx context.Context, opts Options) (*Catalog, error) {
	c := New(opts)
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Language returns the language the catalog was read in.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// Dirs returns the directories the catalog reads.
func (c *Catalog) Dirs() []string {
	var dirs []string
	for _, d := range []string{c.opts.LibDir, c.opts.ModDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Reload re-reads every translation file.
func (c *Catalog) Reload(ctx context.Context) error {
	lang := c.opts.DefaultLanguage
	if !c.opts.Fixed && c.opts.Language != "" {
		lang = strings.ToLower(c.opts.Language)
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidLanguage, c.opts.Language, err)
		}
	}

	lib, libLang, err := c.loadDir(ctx, c.opts.LibDir, lang)
	if err != nil {
		return err
	}
	mod, _, err := c.loadDir(ctx, c.opts.ModDir, lang)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.lang = libLang
	c.lib = lib
	c.mod = mod
	c.mu.Unlock()

	c.logger.Debug("translations loaded", "language", libLang, "lib", len(lib), "mod", len(mod))
	return nil
}

// loadDir reads lang from dir over the default language.
func (c *Catalog) loadDir(ctx context.Context, dir, lang string) (Dict, string, error) {
	if dir == "" {
		return Dict{}, lang, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	available, err := languages(dir)
	if err != nil {
		return nil, "", err
	}
	resolved := match(lang, available, c.opts.DefaultLanguage)

	base, err := readFile(dir, c.opts.DefaultLanguage)
	if err != nil {
		return nil, "", err
	}
	if resolved == c.opts.DefaultLanguage {
		return base, resolved, nil
	}
	top, err := readFile(dir, resolved)
	if err != nil {
		return nil, "", err
	}
	return overlay(base, top), resolved, nil
}

// Text returns the translation of tag: module first, then library, then
// the tag itself. Empty translations count as missing.
func (c *Catalog) Text(tag string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v := c.mod[tag]; v != "" {
		return v
	}
	if v := c.lib[tag]; v != "" {
		return v
	}
	return tag
}

// ModText returns the module translation of tag.
func (c *Catalog) ModText(tag string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.mod[tag]
	return v, v != ""
}

// LibText returns the library translation of tag.
func (c *Catalog) LibText(tag string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.lib[tag]
	return v, v != ""
}

// languages lists the languages that have a file in dir.
func languages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read translations %s: %w", dir, err)
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FileExt {
			continue
		}
		langs = append(langs, strings.ToLower(strings.TrimSuffix(e.Name(), FileExt)))
	}
	sort.Strings(langs)
	return langs, nil
}

// match picks the available language closest to want, or fallback when
// nothing is close enough.
func match(want string, available []string, fallback string) string {
	for _, a := range available {
		if a == want {
			return a
		}
	}
	wantTag, err := language.Parse(want)
	if err != nil {
		return fallback
	}

	var tags []language.Tag
	var names []string
	for _, a := range available {
		tag, err := language.Parse(a)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		names = append(names, a)
	}
	if len(tags) == 0 {
		return fallback
	}

	_, idx, conf := language.NewMatcher(tags).Match(wantTag)
	if conf < language.High {
		return fallback
	}
	return names[idx]
}

// readFile parses dir/lang.lang. A missing file is an empty Dict.
func readFile(dir, lang string) (Dict, error) {
	f, err := os.Open(filepath.Join(dir, lang+FileExt))
	if errors.Is(err, fs.ErrNotExist) {
		return Dict{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open translations: %w", err)
	}
	defer f.Close()

	dict, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name(), err)
	}
	return dict, nil
}
