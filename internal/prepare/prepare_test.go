package prepare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sogmodel/sogcmd/internal/infile"
	"github.com/sogmodel/sogcmd/internal/model"
)

var baseInfilePath = filepath.Join("..", "schema", "testdata", "infile.yaml")

func writeEdit(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInfileMaterializesFlatFile(t *testing.T) {
	edit := writeEdit(t, "grid:\n  model_depth:\n    value: 35.0\n")
	dest := filepath.Join(t.TempDir(), "SOG.infile")

	require.NoError(t, Infile(baseInfilePath, []string{edit}, dest))

	entries, err := infile.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "3.500000d+01", entries["maxdepth"].Value)
	require.Equal(t, "m", entries["maxdepth"].Units)
	// Unedited values come through from the base document.
	require.Equal(t, "80", entries["gridsize"].Value)
}

func TestInfileLastEditWins(t *testing.T) {
	e1 := writeEdit(t, "grid:\n  model_depth:\n    value: 35.0\n")
	e2 := writeEdit(t, "grid:\n  model_depth:\n    value: 30.0\n")
	dest := filepath.Join(t.TempDir(), "SOG.infile")

	require.NoError(t, Infile(baseInfilePath, []string{e1, e2}, dest))

	entries, err := infile.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "3.000000d+01", entries["maxdepth"].Value)
}

func TestInfileFailureLeavesNoPartialFile(t *testing.T) {
	edit := writeEdit(t, "grid:\n  bogus:\n    value: 1\n")
	dest := filepath.Join(t.TempDir(), "SOG.infile")

	err := Infile(baseInfilePath, []string{edit}, dest)
	var pathErr *model.PathError
	require.ErrorAs(t, err, &pathErr)
	require.NoFileExists(t, dest)
}

func TestTempInfile(t *testing.T) {
	path, err := TempInfile(baseInfilePath, nil)
	require.NoError(t, err)
	defer os.Remove(path)

	entries, err := infile.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "4.000000d+01", entries["maxdepth"].Value)
}
