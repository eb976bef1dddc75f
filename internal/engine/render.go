package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Template data fields available to reminder messages.
const (
	FieldName = "Name"
	FieldDate = "Date"
	FieldAge  = "Age"
	FieldDays = "Days"
)

// Translator resolves a message id with template data into display text.
type Translator interface {
	Translate(id string, data map[string]any) (string, error)
}

// Renderer turns a due record into the reminder text.
type Renderer interface {
	Render(rec Record, daysUntil int, today time.Time) (string, error)
}

// MessageRenderer selects a template from the reminder table and fills it
// through a Translator.
type MessageRenderer struct {
	Translator Translator
}

// NewMessageRenderer builds a MessageRenderer.
func NewMessageRenderer(t Translator) *MessageRenderer {
	return &MessageRenderer{Translator: t}
}

// Render builds the reminder for rec due in daysUntil days.
// Birthdays with a known year mention the age the subject turns.
func (m *MessageRenderer) Render(rec Record, daysUntil int, today time.Time) (string, error) {
	if m.Translator == nil {
		return "", fmt.Errorf("%s: %s", config.ErrRender, config.ErrLocNotInit)
	}

	data := map[string]any{
		FieldDate: rec.Date.Display(),
		FieldDays: daysUntil,
	}

	withAge := false
	switch rec.Category {
	case CategoryBirthday:
		data[FieldName] = rec.DisplayName()
		if age := CurrentAge(today, rec.Date); age >= 0 {
			data[FieldAge] = age + 1
			withAge = true
		}
	default:
		data[FieldName] = rec.Title()
	}

	id, err := TemplateFor(rec.Category, daysUntil, withAge)
	if err != nil {
		return "", err
	}

	text, err := m.Translator.Translate(id, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrRender, err)
	}
	return text, nil
}
