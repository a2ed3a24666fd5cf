package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-prograde/internal/domain"
)

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCSVSource_Load(t *testing.T) {
	path := writeRoster(t, "Name,login,email\nAmy,amy,amy@uni.edu\nBob,bob,bob@uni.edu\nNobody,,\nCat,cat,cat@uni.edu\n")

	r, err := NewCSVSource(path, "login", []string{"bob"}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "login", "email"}, r.Columns())
	assert.Equal(t, []string{"amy", "cat"}, r.IDs())

	row, ok := r.Row("cat")
	require.True(t, ok)
	assert.Equal(t, "cat@uni.edu", row.Get("email").String())
}

func TestCSVSource_Errors(t *testing.T) {
	t.Run("unknown id column", func(t *testing.T) {
		path := writeRoster(t, "Name,login\nAmy,amy\n")
		_, err := NewCSVSource(path, "uid", nil).Load(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("duplicate student", func(t *testing.T) {
		path := writeRoster(t, "login\namy\namy\n")
		_, err := NewCSVSource(path, "login", nil).Load(context.Background())
		assert.True(t, errors.Is(err, domain.ErrDuplicateStudent))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVSource(filepath.Join(t.TempDir(), "none.csv"), "login", nil).Load(context.Background())
		assert.Error(t, err)
	})
}
