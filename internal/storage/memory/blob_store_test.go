package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectStoresAndReturnsURI(t *testing.T) {
	t.Parallel()

	s := NewBlobStore()
	uri, err := s.PutObject(context.Background(), "pages/run/page-0000.json", "application/json",
		bytes.NewReader([]byte(`{"items":[]}`)))
	require.NoError(t, err)
	require.Equal(t, "memory://pages/run/page-0000.json", uri)

	content, ok := s.Object("pages/run/page-0000.json")
	require.True(t, ok)
	require.JSONEq(t, `{"items":[]}`, string(content))
	require.Equal(t, 1, s.Len())
}

func TestPutObjectOverwrites(t *testing.T) {
	t.Parallel()

	s := NewBlobStore()
	_, err := s.PutObject(context.Background(), "p", "", bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	_, err = s.PutObject(context.Background(), "p", "", bytes.NewReader([]byte("two")))
	require.NoError(t, err)

	content, ok := s.Object("p")
	require.True(t, ok)
	require.Equal(t, "two", string(content))
	require.Equal(t, 1, s.Len())
}
