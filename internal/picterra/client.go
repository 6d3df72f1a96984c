// Package picterra implements a typed client for the Picterra public
// API: rasters, detectors, and the long-running operations behind them.
package picterra

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ao-picterra/pycterra-cli/internal/api"
)

// defaultPollInterval paces the operation polling loop when the server
// does not suggest its own interval.
const defaultPollInterval = 2 * time.Second

// Client exposes the Picterra API operations the CLI dispatches to.
type Client struct {
	api          api.Client
	pollInterval time.Duration
}

// NewClient creates a client on top of the low-level API transport.
func NewClient(apiClient api.Client) *Client {
	return &Client{api: apiClient, pollInterval: defaultPollInterval}
}

// ListRasters lists the rasters in the user's account, optionally
// scoped to a folder or filtered by a name search.
func (c *Client) ListRasters(ctx context.Context, folderID, searchString *string) (*ResultsPage, error) {
	params := url.Values{}
	if folderID != nil {
		params.Set("folder", *folderID)
	}
	if searchString != nil {
		params.Set("search", *searchString)
	}
	return c.listPage(ctx, withParams("rasters/", params))
}

// ListDetectors lists the detectors in the user's account.
func (c *Client) ListDetectors(ctx context.Context, searchString *string) (*ResultsPage, error) {
	params := url.Values{}
	if searchString != nil {
		params.Set("search", *searchString)
	}
	return c.listPage(ctx, withParams("detectors/", params))
}

// GetRaster returns a raster's metadata.
func (c *Client) GetRaster(ctx context.Context, rasterID string) (map[string]interface{}, error) {
	var raster map[string]interface{}
	err := c.api.NewRequest(http.MethodGet, "rasters/"+rasterID+"/", nil).Do(ctx, &raster)
	if err != nil {
		return nil, err
	}
	return raster, nil
}

// EditRaster updates a raster's name or moves it to another folder. At
// least one field must be given.
func (c *Client) EditRaster(ctx context.Context, rasterID string, name, folderID *string) error {
	body := map[string]interface{}{}
	if name != nil {
		body["name"] = *name
	}
	if folderID != nil {
		body["folder_id"] = *folderID
	}
	if len(body) == 0 {
		return &ValueError{Msg: "nothing to edit: give a name or a folder id"}
	}
	return c.api.NewRequest(http.MethodPut, "rasters/"+rasterID+"/", body).Do(ctx, nil)
}

// DeleteRaster removes a raster and its detection results.
func (c *Client) DeleteRaster(ctx context.Context, rasterID string) error {
	return c.api.NewRequest(http.MethodDelete, "rasters/"+rasterID+"/", nil).Do(ctx, nil)
}

// DeleteDetector removes a detector. Rasters associated with it are not
// deleted.
func (c *Client) DeleteDetector(ctx context.Context, detectorID string) error {
	return c.api.NewRequest(http.MethodDelete, "detectors/"+detectorID+"/", nil).Do(ctx, nil)
}

// DetectorConfig carries the training configuration of a new detector.
type DetectorConfig struct {
	Name                  *string
	DetectionType         string
	OutputType            string
	TrainingSteps         int
	Backbone              string
	TileSize              int
	BackgroundSampleRatio float64
}

// CreateDetector creates a detector and returns its representation.
func (c *Client) CreateDetector(ctx context.Context, cfg DetectorConfig) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"configuration": map[string]interface{}{
			"detection_type":          cfg.DetectionType,
			"output_type":             cfg.OutputType,
			"training_steps":          cfg.TrainingSteps,
			"backbone":                cfg.Backbone,
			"tile_size":               cfg.TileSize,
			"background_sample_ratio": cfg.BackgroundSampleRatio,
		},
	}
	if cfg.Name != nil {
		body["name"] = *cfg.Name
	}
	var detector map[string]interface{}
	if err := c.api.NewRequest(http.MethodPost, "detectors/", body).Do(ctx, &detector); err != nil {
		return nil, err
	}
	return detector, nil
}

// RunDetector runs a detector on a raster and blocks until the
// server-side operation completes, returning its terminal state.
func (c *Client) RunDetector(ctx context.Context, detectorID, rasterID string) (map[string]interface{}, error) {
	var resp struct {
		OperationID string `json:"operation_id"`
	}
	body := map[string]interface{}{"raster_id": rasterID}
	err := c.api.NewRequest(http.MethodPost, "detectors/"+detectorID+"/run/", body).Do(ctx, &resp)
	if err != nil {
		return nil, err
	}
	return c.waitOperation(ctx, resp.OperationID)
}

// UploadRaster uploads a local image file as a new raster: it requests
// an upload URL, sends the bytes, commits the raster, and waits for
// server-side processing. It returns the new raster's id.
func (c *Client) UploadRaster(ctx context.Context, filename, name string, folderID, capturedAt *string, multispectral bool) (string, error) {
	body := map[string]interface{}{
		"name":          name,
		"multispectral": multispectral,
	}
	if folderID != nil {
		body["folder_id"] = *folderID
	}
	if capturedAt != nil {
		body["captured_at"] = *capturedAt
	}

	var upload struct {
		UploadURL string `json:"upload_url"`
		RasterID  string `json:"raster_id"`
	}
	if err := c.api.NewRequest(http.MethodPost, "rasters/upload/file/", body).Do(ctx, &upload); err != nil {
		return "", err
	}

	f, err := os.Open(filename)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", filename)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "stating %s", filename)
	}
	if err := c.api.Upload(ctx, upload.UploadURL, f, info.Size()); err != nil {
		return "", err
	}

	var commit struct {
		OperationID string `json:"operation_id"`
	}
	if err := c.api.NewRequest(http.MethodPost, "rasters/"+upload.RasterID+"/commit/", nil).Do(ctx, &commit); err != nil {
		return "", err
	}
	if _, err := c.waitOperation(ctx, commit.OperationID); err != nil {
		return "", err
	}
	return upload.RasterID, nil
}

// waitOperation polls an operation until it reaches a terminal state.
// Timeout policy belongs to the caller's context.
func (c *Client) waitOperation(ctx context.Context, operationID string) (map[string]interface{}, error) {
	for {
		var op map[string]interface{}
		if err := c.api.NewRequest(http.MethodGet, "operations/"+operationID+"/", nil).Do(ctx, &op); err != nil {
			return nil, err
		}
		switch op["status"] {
		case "success":
			return op, nil
		case "failed":
			return nil, &APIError{Msg: fmt.Sprintf("operation %s failed", operationID)}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func withParams(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
