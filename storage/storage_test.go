package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDispatch(t *testing.T) {
	s, err := Open("some/dir/picture.png")
	require.NoError(t, err)
	assert.Equal(t, "some/dir/picture", s.Name())

	s3, err := Open("s3://bucket/key/picture.png")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/key/picture", s3.Name())
}

func TestOpenBadS3Path(t *testing.T) {
	_, err := Open("s3://bucketonly")
	assert.Error(t, err)
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "img")
	require.NoError(t, os.WriteFile(base+".png", []byte("png-bytes"), 0o644))

	s, err := Open(base + ".png")
	require.NoError(t, err)

	ctx := context.Background()
	buf, err := s.ReadImage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), buf)

	require.NoError(t, s.WriteMarkup(ctx, "<svg/>"))
	out, err := os.ReadFile(base + ".svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(out))
}

func TestLocalReadMissing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	_, err = s.ReadImage(context.Background())
	assert.Error(t, err)
}
