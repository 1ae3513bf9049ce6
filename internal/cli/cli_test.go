package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "migrate", "seed", "worker", "export"} {
		assert.True(t, names[want], want)
	}

	cmd, _, err := root.Find([]string{"migrate", "version"})
	require.NoError(t, err)
	assert.Equal(t, "version", cmd.Name())

	cmd, _, err = root.Find([]string{"export", "stock"})
	require.NoError(t, err)
	assert.Equal(t, "estoque.xlsx", cmd.Flags().Lookup("out").DefValue)
}

func TestPeriodFlags(t *testing.T) {
	cmd := newExportCmd()
	finance, _, err := cmd.Find([]string{"finance"})
	require.NoError(t, err)

	require.NoError(t, finance.Flags().Set("from", "2024-03-01"))
	require.NoError(t, finance.Flags().Set("to", "2024-03-31"))
	from, to, err := periodFlags(finance)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), to)

	require.NoError(t, finance.Flags().Set("to", "2024-02-01"))
	_, _, err = periodFlags(finance)
	assert.Error(t, err)

	require.NoError(t, finance.Flags().Set("from", "01/03/2024"))
	_, _, err = periodFlags(finance)
	assert.ErrorContains(t, err, "--from")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer

	path := filepath.Join(dir, "reports", "estoque.xlsx")
	err := writeFile(&stdout, path, func(w io.Writer) error {
		_, err := w.Write([]byte("xlsx"))
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(data))
	assert.Contains(t, stdout.String(), "wrote "+path)

	failed := filepath.Join(dir, "broken.xlsx")
	err = writeFile(&stdout, failed, func(io.Writer) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	_, statErr := os.Stat(failed)
	assert.True(t, os.IsNotExist(statErr))
}
