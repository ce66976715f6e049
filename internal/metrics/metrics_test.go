package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	reg := NewRegistry()
	ImportRowsTotal.WithLabelValues("rate", "inserted").Inc()

	path := filepath.Join(t.TempDir(), "ratebook.prom")
	require.NoError(t, WriteTextfile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `ratebook_import_rows_total{kind="rate",outcome="inserted"}`)
}

func TestWriteTextfileDisabled(t *testing.T) {
	assert.NoError(t, WriteTextfile("", NewRegistry()))
}
