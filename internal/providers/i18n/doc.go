// Package i18n loads localized string bundles and resolves keys with
// language fallback.
//
// Bundles are YAML, TOML or JSON files named after their language
// (en.yaml, en-GB.toml, root.json). Nested tables are flattened into
// dotted keys. A lookup in en-GB falls back to en and then to root.
package i18n
