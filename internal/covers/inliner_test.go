package covers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestInliner_Inline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpegdata"))
		case "/sniffed":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngHeader)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/big":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	inliner := NewInliner(5 * time.Second)
	ctx := context.Background()

	got := inliner.Inline(ctx, server.URL+"/cover.jpg")
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpegdata")), got)

	got = inliner.Inline(ctx, server.URL+"/sniffed")
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"), got)

	for _, path := range []string{"/page", "/missing"} {
		url := server.URL + path
		assert.Equal(t, url, inliner.Inline(ctx, url))
	}

	inliner.maxBytes = 16
	url := server.URL + "/big"
	assert.Equal(t, url, inliner.Inline(ctx, url))
}

func TestInliner_LeavesNonRemoteValuesAlone(t *testing.T) {
	inliner := NewInliner(0)
	for _, v := range []string{"", "data:image/png;base64,AAAA", "/local/cover.jpg"} {
		assert.Equal(t, v, inliner.Inline(context.Background(), v))
	}
}
