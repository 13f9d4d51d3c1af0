package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("valid env file", func(t *testing.T) {
		envPath := writeFile(t, tmpDir, ".env", `# local overrides
VIDEOCHECK_URL=http://localhost:3000

export VIDEOCHECK_VIDEO_ID=pOe5M0GtYZo
EMPTY_VALUE=
QUOTED_VALUE="value with spaces"
SINGLE_QUOTED='single quoted value'
WITH_EQUALS=a=b
`)

		env, err := loadEnvFile(envPath)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:3000", env["VIDEOCHECK_URL"])
		assert.Equal(t, "pOe5M0GtYZo", env["VIDEOCHECK_VIDEO_ID"])
		assert.Equal(t, "", env["EMPTY_VALUE"])
		assert.Equal(t, "value with spaces", env["QUOTED_VALUE"])
		assert.Equal(t, "single quoted value", env["SINGLE_QUOTED"])
		assert.Equal(t, "a=b", env["WITH_EQUALS"])
	})

	t.Run("invalid format", func(t *testing.T) {
		envPath := writeFile(t, tmpDir, ".env.invalid", "VALID_KEY=value\nINVALID_LINE_NO_EQUALS\n")

		_, err := loadEnvFile(envPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid line 2")
	})

	t.Run("empty key", func(t *testing.T) {
		envPath := writeFile(t, tmpDir, ".env.empty", "VALID=value\n=empty_key_value\n")

		_, err := loadEnvFile(envPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty key")
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := loadEnvFile(filepath.Join(tmpDir, "non-existent.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open env file")
	})
}

func TestApplyEnvFile_KeepsExistingEnvironment(t *testing.T) {
	t.Setenv("VIDEOCHECK_TEST_EXISTING", "from-shell")
	t.Setenv("VIDEOCHECK_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("VIDEOCHECK_TEST_NEW"))

	path := writeFile(t, t.TempDir(), ".env", "VIDEOCHECK_TEST_EXISTING=from-file\nVIDEOCHECK_TEST_NEW=new\n")

	env, err := applyEnvFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", env["VIDEOCHECK_TEST_EXISTING"])
	assert.Equal(t, "from-shell", os.Getenv("VIDEOCHECK_TEST_EXISTING"))
	assert.Equal(t, "new", os.Getenv("VIDEOCHECK_TEST_NEW"))
}

func TestApplyEnvFile_EmptyPath(t *testing.T) {
	env, err := applyEnvFile("")
	require.NoError(t, err)
	assert.Nil(t, env)
}
