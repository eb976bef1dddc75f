package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

func TestImportVCards_DateFormats(t *testing.T) {
	// Comprehensive test for various date formats encountered in the wild.
	tests := []struct {
		name      string
		bdayValue string
		want      *engine.CalendarDate
	}{
		{"ISO8601 Standard", "1990-10-25", &engine.CalendarDate{Year: 1990, Month: time.October, Day: 25}},
		{"Basic Format", "19901025", &engine.CalendarDate{Year: 1990, Month: time.October, Day: 25}},
		{"RFC3339", "1990-10-25T00:00:00Z", &engine.CalendarDate{Year: 1990, Month: time.October, Day: 25}},
		{"Truncated (Month-Day)", "--10-25", &engine.CalendarDate{Year: config.SentinelYear, Month: time.October, Day: 25}},
		{"Truncated Basic", "--1025", &engine.CalendarDate{Year: config.SentinelYear, Month: time.October, Day: 25}},
		{"Truncated Leap Day", "--02-29", &engine.CalendarDate{Year: config.SentinelYear, Month: time.February, Day: 29}},
		{"Garbage Data", "not-a-date", nil},
		{"Empty Date", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := "BEGIN:VCARD\nVERSION:3.0\nFN:Test\nBDAY:" + tt.bdayValue + "\nEND:VCARD\n"

			records, err := engine.ImportVCards(context.Background(), strings.NewReader(content), 42)
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, records, "Invalid date should be skipped silently")
				return
			}
			require.Len(t, records, 1)
			assert.Equal(t, *tt.want, records[0].Date)
			assert.Equal(t, int64(42), records[0].OwnerID)
			assert.Equal(t, engine.CategoryBirthday, records[0].Category)
		})
	}
}

func TestImportVCards_Names(t *testing.T) {
	content := `BEGIN:VCARD
VERSION:3.0
FN:Formatted Name
N:Family;Given;;;
BDAY:1990-01-01
END:VCARD
BEGIN:VCARD
VERSION:3.0
N:Petrov;Ivan;;;
BDAY:1991-02-02
END:VCARD
BEGIN:VCARD
VERSION:3.0
BDAY:1992-03-03
END:VCARD
BEGIN:VCARD
VERSION:3.0
FN:No Birthday
END:VCARD
`
	records, err := engine.ImportVCards(context.Background(), strings.NewReader(content), 1)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Formatted Name", records[0].SubjectName)
	assert.Equal(t, "Ivan Petrov", records[1].SubjectName)
	assert.Equal(t, config.FallbackName, records[2].SubjectName)
}

func TestImportVCards_MalformedCardIsSkipped(t *testing.T) {
	content := `BEGIN:VCARD
VERSION:3.0
FN:Good One
BDAY:1990-01-01
END:VCARD
this line is not a property
BEGIN:VCARD
VERSION:3.0
FN:Good Two
BDAY:1990-02-02
END:VCARD
`
	records, err := engine.ImportVCards(context.Background(), strings.NewReader(content), 1)
	require.NoError(t, err)

	var names []string
	for _, r := range records {
		names = append(names, r.SubjectName)
	}
	assert.Contains(t, names, "Good One")
}

func TestImportVCards_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ImportVCards(ctx, strings.NewReader("BEGIN:VCARD\nVERSION:3.0\nFN:X\nEND:VCARD\n"), 1)
	assert.ErrorIs(t, err, context.Canceled)
}
