// Package i18n loads the embedded message catalogs and renders bot texts.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// Catalog renders message ids in one language.
type Catalog struct {
	bundle    *goi18n.Bundle
	localizer *goi18n.Localizer
	lang      string
	available []string
}

// New loads every embedded locale and selects lang. An unknown language
// falls back to config.DefaultLanguage.
func New(lang string) (*Catalog, error) {
	bundle := goi18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var detected []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if code == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			return nil, fmt.Errorf("%s %s: %w", config.ErrLocaleLoad, name, err)
		}
		detected = append(detected, code)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code)
	}

	if !slices.Contains(detected, lang) {
		lang = config.DefaultLanguage
	}

	return &Catalog{
		bundle:    bundle,
		localizer: goi18n.NewLocalizer(bundle, lang),
		lang:      lang,
		available: detected,
	}, nil
}

// Language is the selected language code.
func (c *Catalog) Language() string {
	return c.lang
}

// Languages lists the loaded language codes.
func (c *Catalog) Languages() []string {
	return slices.Clone(c.available)
}

// Translate renders id with data. A missing message is an error.
func (c *Catalog) Translate(id string, data map[string]any) (string, error) {
	if c == nil || c.localizer == nil {
		return "", errors.New(config.ErrLocNotInit)
	}
	msg, err := c.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", config.ErrTranslate, id, err)
	}
	return msg, nil
}

// T renders id for display, returning the id itself when it cannot be translated.
func (c *Catalog) T(id string, data map[string]any) string {
	msg, err := c.Translate(id, data)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, id,
			config.LogKeyError, err)
		return id
	}
	return msg
}
