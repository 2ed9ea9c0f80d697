package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	data := "categories:\n  - name: Services\n    icon: briefcase\n  - name: ' Real estate '\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	got, err := LoadCategories(path)
	require.NoError(t, err)
	require.Equal(t, []Category{{Name: "Services", Icon: "briefcase"}, {Name: "Real estate"}}, got)
}

func TestParseCategoriesRejectsUnnamed(t *testing.T) {
	_, err := ParseCategories([]byte("categories:\n  - icon: box\n"))
	require.Error(t, err)
}

func TestParseCategoriesBadYAML(t *testing.T) {
	_, err := ParseCategories([]byte("categories: [\n"))
	require.Error(t, err)
}

func TestLoadCategoriesMissingFile(t *testing.T) {
	_, err := LoadCategories(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
