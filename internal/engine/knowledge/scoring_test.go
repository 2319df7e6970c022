package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScoring(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file gives defaults", func(t *testing.T) {
		s, err := LoadScoring(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultScoring(), s)

		s, err = LoadScoring("")
		require.NoError(t, err)
		assert.Equal(t, DefaultScoring(), s)
	})

	t.Run("partial override", func(t *testing.T) {
		path := filepath.Join(dir, "scoring.yaml")
		require.NoError(t, os.WriteFile(path, []byte("threshold: 0.4\nmax_nodes: 6\njd_skill: 0.25\n"), 0o644))

		s, err := LoadScoring(path)
		require.NoError(t, err)
		want := DefaultScoring()
		want.Threshold = 0.4
		want.MaxNodes = 6
		want.JDSkill = 0.25
		assert.Equal(t, want, s)
	})

	t.Run("invalid", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("threshold: [oops"), 0o644))
		s, err := LoadScoring(bad)
		assert.Error(t, err)
		assert.Equal(t, DefaultScoring(), s)

		zero := filepath.Join(dir, "zero.yaml")
		require.NoError(t, os.WriteFile(zero, []byte("max_nodes: 0\n"), 0o644))
		_, err = LoadScoring(zero)
		assert.Error(t, err)
	})
}
