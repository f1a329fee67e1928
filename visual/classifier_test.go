package visual

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/sentinel/category"
)

func TestMapLabels(t *testing.T) {
	assert := assert.New(t)

	cats := MapLabels([]Label{
		{Class: "nsfw", Score: 0.95},
		{Class: "porn", Score: 0.92},
		{Class: "landscape", Score: 0.99},
	})
	assert.Equal([]category.Category{category.AdultContent}, cats)

	// below threshold
	assert.Empty(MapLabels([]Label{{Class: "nsfw", Score: 0.5}}))
	assert.Empty(MapLabels(nil))

	// high-severity classes map at lower confidence
	cats = MapLabels([]Label{{Class: "csam", Score: 0.45}})
	assert.Equal([]category.Category{category.ChildExploitation}, cats)
	assert.True(category.AnyHighSeverity(cats))
}

func TestHTTPClassifier(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("media")
		assert.NoError(err)
		_ = json.NewEncoder(w).Encode(classifyResp{Labels: []Label{
			{Class: "nudity", Score: 0.97},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "secret", 10)
	labels, err := c.Classify(context.Background(), []byte{0xFF, 0xD8})
	require.NoError(t, err)
	assert.Equal([]Label{{Class: "nudity", Score: 0.97}}, labels)
	assert.Equal([]category.Category{category.Nudity}, MapLabels(labels))
}

func TestHTTPClassifierErrorStatus(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, "secret", 10)
	_, err := c.Classify(context.Background(), []byte{0x00})
	assert.Error(err)
}
