package tui

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGameReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/save", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	msg := saveGame(strings.TrimPrefix(srv.URL, "http://"))()
	result, ok := msg.(saveGameResult)
	require.True(t, ok)
	assert.ErrorContains(t, result.Err, "save failed")
}

func TestSaveGameSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	msg := saveGame(strings.TrimPrefix(srv.URL, "http://"))()
	result, ok := msg.(saveGameResult)
	require.True(t, ok)
	assert.NoError(t, result.Err)
}

func TestSaveGameReportsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	msg := saveGame(host)()
	result, ok := msg.(saveGameResult)
	require.True(t, ok)
	assert.Error(t, result.Err)
}
