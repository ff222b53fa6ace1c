package media

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoRecord_DisplayName(t *testing.T) {
	v := VideoRecord{Filename: "holiday-a1b2c3d4.mp4"}
	assert.Equal(t, "holiday", v.DisplayName())

	short := VideoRecord{Filename: "a.mp4"}
	assert.Equal(t, "a.mp4", short.DisplayName())
}

func TestVideoRecord_SizeMB(t *testing.T) {
	assert.Equal(t, 8.0, VideoRecord{Size: 8_000_000}.SizeMB())
	assert.Equal(t, 12.35, VideoRecord{Size: 12_345_678}.SizeMB())
	assert.Equal(t, 0.0, VideoRecord{}.SizeMB())
}

func TestCandidate_String(t *testing.T) {
	c := Candidate{Name: "a.mp4", MediaType: "video/mp4", Size: 2048}
	assert.Equal(t, "a.mp4 (video/mp4, 2048 bytes)", c.String())
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.000", FormatTimestamp(0))
	assert.Equal(t, "00:01:40.000", FormatTimestamp(100))
	assert.Equal(t, "01:02:03.500", FormatTimestamp(3723.5))
	assert.Equal(t, "00:00:00.000", FormatTimestamp(-4))
}

func TestCandidateFromPath_ByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Clip.MOV")
	require.NoError(t, os.WriteFile(path, []byte("not really a movie"), 0o644))

	c, err := CandidateFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "Clip.MOV", c.Name)
	assert.Equal(t, "video/quicktime", c.MediaType)
	assert.Equal(t, int64(18), c.Size)

	rc, err := c.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "not really a movie", string(data))
}

func TestCandidateFromPath_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes\n"), 0o644))

	c, err := CandidateFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", c.MediaType)
}

func TestCandidateFromPath_Missing(t *testing.T) {
	_, err := CandidateFromPath(filepath.Join(t.TempDir(), "nope.mp4"))
	assert.Error(t, err)
}

func TestCandidateFromPath_Directory(t *testing.T) {
	_, err := CandidateFromPath(t.TempDir())
	assert.Error(t, err)
}
