package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/logging"
)

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrUnsupportedFile = errors.New("unsupported bundle format")
)

// RootLanguage names the bundle used when no language matches
const RootLanguage = "root"

// bundlePattern matches the files LoadDir reads
const bundlePattern = "**/*.{yaml,yml,toml,json}"

// Catalog holds string bundles per language
type Catalog struct {
	mu       sync.RWMutex
	bundles  map[string]map[string]string // Protected by mu
	selected string                       // Protected by mu

	logger *logging.Logger
}

// NewCatalog creates an empty catalog with lang selected
func NewCatalog(lang string, logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{
		bundles:  make(map[string]map[string]string),
		selected: lang,
		logger:   logger.Named("i18n"),
	}
}

// Add merges entries into the bundle of lang
func (c *Catalog) Add(lang string, entries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bundle, ok := c.bundles[lang]
	if !ok {
		bundle = make(map[string]string, len(entries))
		c.bundles[lang] = bundle
	}
	for key, value := range entries {
		bundle[key] = value
	}
}

// LoadDir reads every bundle below dir. The language of a bundle is its
// file name without extension, e.g. en-GB.yaml.
func (c *Catalog) LoadDir(dir string) error {
	return c.LoadFS(os.DirFS(dir))
}

// LoadFS reads every bundle of fsys
func (c *Catalog) LoadFS(fsys fs.FS) error {
	files, err := doublestar.Glob(fsys, bundlePattern)
	if err != nil {
		return fmt.Errorf("failed to list bundles: %w", err)
	}
	slices.Sort(files)

	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if err := c.LoadBundle(file, data); err != nil {
			return err
		}
	}

	c.logger.Info("Loaded bundles", zap.Int("files", len(files)), zap.Strings("languages", c.Languages()))
	return nil
}

// LoadBundle parses data according to the extension of name
func (c *Catalog) LoadBundle(name string, data []byte) error {
	ext := path.Ext(name)
	lang := strings.TrimSuffix(path.Base(name), ext)

	var parsed map[string]interface{}
	var err error
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &parsed)
	case ".toml":
		err = toml.Unmarshal(data, &parsed)
	case ".json":
		err = sonic.Unmarshal(data, &parsed)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	flat := make(map[string]string)
	flatten("", parsed, flat)
	c.Add(lang, flat)
	return nil
}

// flatten joins nested keys with dots
func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for key, value := range in {
		if prefix != "" {
			key = prefix + "." + key
		}
		switch typed := value.(type) {
		case map[string]interface{}:
			flatten(key, typed, out)
		case string:
			out[key] = typed
		case nil:
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
}

// Languages returns the known languages, root excluded
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	langs := make([]string, 0, len(c.bundles))
	for lang := range c.bundles {
		if lang != RootLanguage {
			langs = append(langs, lang)
		}
	}
	slices.Sort(langs)
	return langs
}

// Selected returns the current language
func (c *Catalog) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Select changes the current language. The language or one of its
// parents must have a bundle.
func (c *Catalog) Select(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, lang := range chain(code) {
		if lang == RootLanguage {
			break
		}
		if _, ok := c.bundles[lang]; ok {
			c.selected = code
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
}

// Lookup finds key in lang, then in each parent language, then in root
func (c *Catalog) Lookup(key, lang string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range chain(lang) {
		if value, ok := c.bundles[candidate][key]; ok {
			return value, true
		}
	}
	return "", false
}

// chain lists lang and its parents, e.g. en-GB, en, root
func chain(lang string) []string {
	var langs []string
	for lang != "" {
		langs = append(langs, lang)
		idx := strings.LastIndexAny(lang, "-_")
		if idx < 0 {
			break
		}
		lang = lang[:idx]
	}
	return append(langs, RootLanguage)
}
