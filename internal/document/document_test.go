package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandFromFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Gaggia_Classic_Manual.pdf", "gaggia"},
		{"DeLonghi Magnifica.txt", "delonghi"},
		{"BREVILLE_barista.md", "breville"},
		{"manual.txt", "manual"},
		{"noextension", "noextension"},
		{"", ""},
		{"_leading.txt", "_leading"},
		{".hidden", ".hidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BrandFromFilename(tc.name))
		})
	}
}

func TestFSSource_Pages(t *testing.T) {
	dir := t.TempDir()

	// Two pages split by a form feed, plus a single-page second file.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Gaggia_Classic.txt"),
		[]byte("page one text\fpage two text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Jura_E8.md"),
		[]byte("only page"), 0o644))
	// Ignored: wrong extension and hidden directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".docsift"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docsift", "stray.txt"), []byte("nope"), 0o644))

	pages, err := NewFSSource(dir).Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "Gaggia_Classic.txt", pages[0].SourceDocument)
	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Equal(t, "page one text", pages[0].Text)
	assert.Equal(t, "gaggia", pages[0].Brand)

	assert.Equal(t, 2, pages[1].PageNumber)
	assert.Equal(t, "page two text", pages[1].Text)

	assert.Equal(t, "Jura_E8.md", pages[2].SourceDocument)
	assert.Equal(t, 1, pages[2].PageNumber)
	assert.Equal(t, "jura", pages[2].Brand)
}

func TestFSSource_MissingDirectory(t *testing.T) {
	_, err := NewFSSource("/nonexistent/docs").Pages(context.Background())
	require.Error(t, err)
}

func TestFSSource_EmptyDirectory(t *testing.T) {
	pages, err := NewFSSource(t.TempDir()).Pages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pages)
}
