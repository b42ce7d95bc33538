package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanheat/uhi-cli/internal/config"
	"github.com/urbanheat/uhi-cli/internal/store"
)

func setupServerTest(t *testing.T) *store.SQLiteStore {
	t.Helper()

	cfg = &config.Config{
		Store:   config.StoreConfig{Path: filepath.Join(t.TempDir(), "uhi.db")},
		Sample:  config.SampleConfig{Size: 1500, Seed: 42},
		Weights: config.WeightsConfig{Policy: "knn", K: 8, Scheme: "binary"},
		Server:  config.ServerConfig{Port: 8080},
	}

	st, err := store.NewSQLite(cfg.Store.Path)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(t.Context()))
	t.Cleanup(func() { st.Close() })
	return st
}

// writeWideDataset writes a 5x5 grid wide CSV covering every variable.
func writeWideDataset(t *testing.T) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("point_id,lat,lon,lst,ndvi,lulc,ntl,albedo,impervious,building_density,population,water_distance,elevation\n")
	for id := 0; id < 25; id++ {
		lat := float64(id/5) * 0.01
		lon := float64(id%5) * 0.01
		v := float64(20 + id*3)
		fmt.Fprintf(&sb, "%d,%f,%f,%f,%f,13,%f,%f,%f,%f,%f,%f,%f\n",
			id, lat, lon, v, 100-v, v, 100-v, v, v, v, 100-v, 100+float64(id))
	}

	path := filepath.Join(t.TempDir(), "city.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestServerHealth(t *testing.T) {
	st := setupServerTest(t)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerAnalyzeAndFetch(t *testing.T) {
	st := setupServerTest(t)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	data := writeWideDataset(t)
	body := fmt.Sprintf(`{"city": "Testville", "year": 2023, "data": %q}`, data)

	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run store.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "testville", run.Slug)
	require.NotNil(t, run.Report)
	assert.Len(t, run.Report.Points, 25)

	// The run is fetchable afterwards.
	getResp, err := http.Get(srv.URL + "/api/runs/" + run.ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	// And it appears in the list.
	listResp, err := http.Get(srv.URL + "/api/runs?city=Testville")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var runs []store.Run
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&runs))
	assert.Len(t, runs, 1)
}

func TestServerAnalyzeBadRequest(t *testing.T) {
	st := setupServerTest(t)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", "{", http.StatusBadRequest},
		{"missing fields", `{"city": "x"}`, http.StatusBadRequest},
		{"missing dataset", `{"city": "x", "year": 2023, "data": "/nonexistent"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServerRunNotFound(t *testing.T) {
	st := setupServerTest(t)
	srv := httptest.NewServer(newRouter(st))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
