package db

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The debug pages gate on the peer address, so these tests go through a
// real listener: httptest connections arrive from loopback and pass.
func newAdminServer(t *testing.T) (*DB, *httptest.Server) {
	t.Helper()

	database := newTestDB(t)
	require.NoError(t, database.SaveSettings([]byte(`{"rev":1}`)))

	mux := http.NewServeMux()
	require.NoError(t, database.AttachAdminRoutes(mux))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return database, server
}

func TestAttachAdminRoutesIndex(t *testing.T) {
	_, server := newAdminServer(t)

	resp, err := http.Get(server.URL + "/debug/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "backup")
	assert.Contains(t, string(body), "tailsql")
}

func TestAdminBackupDownload(t *testing.T) {
	_, server := newAdminServer(t)

	resp, err := http.Get(server.URL + "/debug/backup")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The transport undoes the gzip encoding, leaving raw sqlite bytes.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("SQLite format 3")), "backup should be a sqlite database")
}
