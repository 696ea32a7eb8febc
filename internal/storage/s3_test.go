package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Sink_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewS3Sink(S3Config{Bucket: "b"})
	assert.Error(t, err)

	_, err = NewS3Sink(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestS3Sink_URLFor(t *testing.T) {
	sink, err := NewS3Sink(S3Config{Endpoint: "localhost:9000", Bucket: "pages"})
	require.NoError(t, err)

	url, err := sink.URLFor(context.Background(), "p1", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/pages/p1/index.html", url)

	public, err := NewS3Sink(S3Config{Endpoint: "s3.example.com", Bucket: "pages", UseSSL: true, PublicBaseURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	url, err = public.URLFor(context.Background(), "p1", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/pages/p1/index.html", url)
}

func TestS3Sink_RejectsPathNamesBeforeNetwork(t *testing.T) {
	sink, err := NewS3Sink(S3Config{Endpoint: "localhost:1", Bucket: "pages"})
	require.NoError(t, err)

	err = sink.WriteFile(context.Background(), "p1", "a/b.html", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fileName")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html; charset=utf-8", contentType("index.html"))
	assert.Equal(t, "text/css; charset=utf-8", contentType("site.css"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}
