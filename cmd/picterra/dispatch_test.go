package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDetectorID = "acc44388-91c8-4bb4-9a46-b00b52a80e19"
	testRasterID   = "42b38a15-fc42-40d6-9a9f-1d23a7b0c014"
)

func TestDispatchMissingCredential(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(srv.Close)

	// Even commands that need no arguments must hit the credential gate
	// before anything touches the network.
	for _, args := range [][]string{
		{"list-detectors"},
		{"get-raster", "--raster-id", testRasterID},
	} {
		c, out, _ := testCLI(t, srv.URL, "")
		err := c.run(args)
		exitErr := exitCode(t, err)
		assert.Equal(t, 1, exitErr.Code())
		assert.Equal(t, "Missing 'PICTERRA_API_KEY' environment variable", exitErr.Error())
		assert.Empty(t, out.String())
	}
	assert.Zero(t, requests.Load())
}

func TestDispatchMalformedUUIDBeforeRequest(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(srv.Close)

	c, _, errOut := testCLI(t, srv.URL, "xxxx")
	err := c.run([]string{"get-raster", "--raster-id", "not-a-uuid"})
	exitErr := exitCode(t, err)
	assert.Equal(t, 2, exitErr.Code())
	assert.Contains(t, errOut.String(), `invalid UUID value: "not-a-uuid"`)
	assert.Zero(t, requests.Load())
}

func TestDispatchEmptyListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rasters/", r.URL.Path)
		io.WriteString(w, `{"count": 0, "next": null, "results": []}`)
	}))
	t.Cleanup(srv.Close)

	c, out, errOut := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run([]string{"list-rasters"}))
	assert.Equal(t, "[]\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestDispatchListingRendersTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lake", r.URL.Query().Get("search"))
		io.WriteString(w, `{"count": 2, "next": null, "results": [
			{"id": "a", "name": "Lake One"},
			{"id": "b", "name": "Lake Two"}
		]}`)
	}))
	t.Cleanup(srv.Close)

	c, out, _ := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run([]string{"list-rasters", "--search-string", "lake"}))
	assert.Contains(t, out.String(), "Lake One")
	assert.Contains(t, out.String(), "Lake Two")
}

// runDetectorPayload drives one run-detector invocation against a stub
// server and returns the request body of the run call.
func runDetectorPayload(t *testing.T, args []string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/detectors/"+testDetectorID+"/run/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, jsoniter.Unmarshal(body, &payload))
		io.WriteString(w, `{"operation_id": "op-1"}`)
	})
	mux.HandleFunc("/operations/op-1/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status": "success"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, out, _ := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run(args))
	assert.Contains(t, out.String(), "success")
	return payload
}

func TestDispatchShortFlagsEquivalent(t *testing.T) {
	long := runDetectorPayload(t, []string{
		"run-detector", "--detector-id", testDetectorID, "--raster-id", testRasterID,
	})
	short := runDetectorPayload(t, []string{
		"run-detector", "-d", testDetectorID, "-r", testRasterID,
	})
	assert.Equal(t, map[string]interface{}{"raster_id": testRasterID}, long)
	assert.Equal(t, long, short)
}

func TestDispatchDefaultsReachPayload(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detectors/", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, jsoniter.Unmarshal(body, &payload))
		io.WriteString(w, `{"id": "d-1"}`)
	}))
	t.Cleanup(srv.Close)

	c, _, _ := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run([]string{"create-detector", "--name", "spam", "--tile-size", "1024"}))

	assert.Equal(t, "spam", payload["name"])
	assert.Equal(t, map[string]interface{}{
		"detection_type":          "count",
		"output_type":             "polygon",
		"training_steps":          float64(500),
		"backbone":                "resnet34",
		"tile_size":               float64(1024),
		"background_sample_ratio": 0.25,
	}, payload["configuration"])
}

func TestDispatchClientErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"detail": "not your raster"}`)
	}))
	t.Cleanup(srv.Close)

	c, out, _ := testCLI(t, srv.URL, "xxxx")
	err := c.run([]string{"delete-raster", "--raster-id", testRasterID})
	exitErr := exitCode(t, err)
	assert.Equal(t, 1, exitErr.Code())
	assert.Contains(t, exitErr.Error(), "not your raster")
	assert.Empty(t, out.String())
}

func TestDispatchNilResultPrintsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c, out, errOut := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run([]string{"delete-detector", "--detector-id", testDetectorID}))
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestDispatchVerboseLogging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"count": 0, "next": null, "results": []}`)
	}))
	t.Cleanup(srv.Close)

	c, _, errOut := testCLI(t, srv.URL, "xxxx")
	require.NoError(t, c.run([]string{"list-rasters", "-v", "-v"}))
	assert.Contains(t, errOut.String(), "executing")
}
