package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/store"
)

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	err := app.RunContext(context.Background(), append([]string{config.AppCommand}, args...))
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	out, err := runApp(t, "", "--"+config.FlagConfig, path, config.CmdInit)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())

	// A second run must not clobber an edited file.
	_, err = runApp(t, "", "--"+config.FlagConfig, path, config.CmdInit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSettingsExists)
}

func TestImportCommand(t *testing.T) {
	t.Setenv(config.EnvDBDriver, config.DriverSQLite)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "birthdays.db")
	t.Setenv(config.EnvDBURL, dbPath)

	vcf := filepath.Join(dir, "contacts.vcf")
	cards := "BEGIN:VCARD\nVERSION:3.0\nFN:Анна Петрова\nBDAY:1990-03-10\nEND:VCARD\n" +
		"BEGIN:VCARD\nVERSION:3.0\nFN:No Birthday\nEND:VCARD\n" +
		"BEGIN:VCARD\nVERSION:3.0\nFN:Leap\nBDAY:--02-29\nEND:VCARD\n"
	require.NoError(t, os.WriteFile(vcf, []byte(cards), 0o600))

	out, err := runApp(t, "",
		"--"+config.FlagConfig, filepath.Join(dir, "missing.yaml"),
		config.CmdImport,
		"--"+config.FlagOwner, "42",
		"--"+config.FlagFile, vcf,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 record(s)")

	st, err := store.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	records, err := st.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Leap", records[0].SubjectName)
	assert.Equal(t, "Анна Петрова", records[1].SubjectName)
}

func TestImportCommand_Validation(t *testing.T) {
	t.Run("Owner required", func(t *testing.T) {
		_, err := runApp(t, "", config.CmdImport, "--"+config.FlagFile, "x.vcf")
		require.Error(t, err)
		assert.Equal(t, config.ErrOwnerRequired, err.Error())
	})

	t.Run("Source required", func(t *testing.T) {
		t.Setenv(config.EnvDBURL, filepath.Join(t.TempDir(), "b.db"))
		_, err := runApp(t, "",
			"--"+config.FlagConfig, filepath.Join(t.TempDir(), "missing.yaml"),
			config.CmdImport, "--"+config.FlagOwner, "7")
		require.Error(t, err)
		assert.Equal(t, config.ErrSourceRequired, err.Error())
	})
}

func TestTokenCommand_RejectsEmptyInput(t *testing.T) {
	out, err := runApp(t, "   \n", config.CmdToken)
	require.Error(t, err)
	assert.Equal(t, config.ErrTokenEmpty, err.Error())
	assert.Contains(t, out, config.MsgTokenPrompt)
}
