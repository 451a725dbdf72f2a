package netupload

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPUploaderPostsMultipartFile(t *testing.T) {
	var gotFilename string
	var gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		part, err := mr.NextPart()
		require.NoError(t, err)
		gotFilename = part.FileName()
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		gotBody = string(body)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL)
	err := u.Upload(context.Background(), "session.tar", 11, strings.NewReader("hello world"))
	require.NoError(t, err)
	require.Equal(t, "session.tar", gotFilename)
	require.Equal(t, "hello world", gotBody)
}

func TestHTTPUploaderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL)
	err := u.Upload(context.Background(), "session.tar", 5, strings.NewReader("hello"))
	require.Error(t, err)
}
