package filestorage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutOpenDelete(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	info, err := ls.Put(context.Background(), "od_documents", "student-1/1700000000000.pdf", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "http://localhost:8080/storage/od_documents/student-1/1700000000000.pdf", info.PublicURL)

	rc, err := ls.Open("od_documents", "student-1/1700000000000.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, ls.Delete("od_documents", "student-1/1700000000000.pdf"))
	_, err = ls.Open("od_documents", "student-1/1700000000000.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, ls.Delete("od_documents", "student-1/1700000000000.pdf"))
}

func TestLocalStorage_RejectsEscapes(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	_, err = ls.Put(context.Background(), "../etc", "passwd", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidObjectPath)

	_, err = ls.Open("od_documents", "")
	assert.ErrorIs(t, err, ErrInvalidObjectPath)

	// traversal segments are cleaned relative to the bucket root
	info, err := ls.Put(context.Background(), "od_documents", "../../x.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "x.txt", info.Path)
}
