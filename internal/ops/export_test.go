package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
)

// exportCollection returns a memory-backed collection allowed to write into dir.
func exportCollection(t *testing.T, dir string) *Collection {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	c, _ := newMemoryCollection(t, cfg)
	return c
}

func seedLunch(t *testing.T, c *Collection) string {
	t.Helper()
	ctx := context.Background()
	s, err := c.CreateSpinner(ctx, "Lunch", "🍕")
	require.NoError(t, err)
	for _, name := range []string{"Pizza", "Sushi", "Tacos"} {
		_, err := c.AddOption(ctx, s.ID, name)
		require.NoError(t, err)
	}
	return s.ID
}

func TestExport_HappyPath(t *testing.T) {
	tmpDir := t.TempDir()
	c := exportCollection(t, tmpDir)
	lunchID := seedLunch(t, c)
	_, err := c.CreateSpinner(context.Background(), "Empty", "🫙")
	require.NoError(t, err)

	exportPath := filepath.Join(tmpDir, "export.yaml")
	out, err := c.Export(ExportInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, exportPath, out.Path)
	require.Equal(t, 2, out.Spinners)
	require.Equal(t, 3, out.Options)
	require.NotZero(t, out.ExportedAt)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)

	var doc ExportDocument
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.True(t, doc.SpinitExport)
	require.Len(t, doc.Spinners, 2)
	require.Equal(t, lunchID, doc.Spinners[0].ID)
	require.Equal(t, "Lunch", doc.Spinners[0].Title)
	require.Equal(t, 3, doc.Spinners[0].OptionsCount)
	require.Equal(t, "Sushi", doc.Spinners[0].Options[1].Name)
	require.Empty(t, doc.Spinners[1].Options)

	require.True(t, strings.Contains(string(data), "options_count: 3"))
}

func TestExport_SingleSpinnerDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, _ := newMemoryCollection(t, nil)
	lunchID := seedLunch(t, c)
	_, err := c.CreateSpinner(context.Background(), "Other", "🎲")
	require.NoError(t, err)

	out, err := c.Export(ExportInput{SpinnerID: lunchID})
	require.NoError(t, err)
	require.Equal(t, 1, out.Spinners)
	require.Equal(t, filepath.Join(home, ".spinit", "exports"), filepath.Dir(out.Path))
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "lunch-"), out.Path)
	require.Equal(t, ".yaml", filepath.Ext(out.Path))

	_, err = c.Export(ExportInput{SpinnerID: "01MISSING"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestExport_RejectsOutsideAllowedDirs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, _ := newMemoryCollection(t, nil)

	_, err := c.Export(ExportInput{Path: filepath.Join(t.TempDir(), "x.yaml")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestExport_OverwriteLeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	c := exportCollection(t, tmpDir)
	seedLunch(t, c)

	path := filepath.Join(tmpDir, "export.yaml")
	_, err := c.Export(ExportInput{Path: path})
	require.NoError(t, err)
	_, err = c.Export(ExportInput{Path: path})
	require.NoError(t, err)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
