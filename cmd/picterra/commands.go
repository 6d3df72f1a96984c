package main

import (
	"context"

	"github.com/ao-picterra/pycterra-cli/internal/cmdgen"
	"github.com/ao-picterra/pycterra-cli/internal/picterra"
)

// apiMethods is the authored description of the API client's method
// surface, from which the command registry is generated. Names, types,
// defaults, and doc lines mirror the upstream API reference; keeping
// them in one table is what the upstream Python tool derived at runtime
// by reflecting over the client's signatures and docstrings.
var apiMethods = []cmdgen.MethodSpec{
	{
		Name: "list_rasters",
		Doc: `List the rasters in the user's account.
folder_id: The id of the folder whose rasters to list; all rasters when omitted
search_string: Filter rasters by name`,
		Params: []cmdgen.ParamSpec{
			{Name: "folder_id", Type: cmdgen.TypeOptString, Default: cmdgen.None},
			{Name: "search_string", Type: cmdgen.TypeOptString, Default: cmdgen.None},
		},
	},
	{
		Name: "list_detectors",
		Doc: `List the detectors in the user's account.
search_string: Filter detectors by name`,
		Params: []cmdgen.ParamSpec{
			{Name: "search_string", Type: cmdgen.TypeOptString, Default: cmdgen.None},
		},
	},
	{
		Name: "get_raster",
		Doc: `Get a raster's metadata.
raster_id: The id of the raster`,
		Params: []cmdgen.ParamSpec{
			{Name: "raster_id", Type: cmdgen.TypeString},
		},
	},
	{
		Name: "edit_raster",
		Doc: `This is an experimental feature, subject to change.
Edit a raster's name or move it to another folder.
raster_id: The id of the raster to edit
name: The new raster name
folder_id: The id of the destination folder`,
		Params: []cmdgen.ParamSpec{
			{Name: "raster_id", Type: cmdgen.TypeString},
			{Name: "name", Type: cmdgen.TypeOptString, Default: cmdgen.None},
			{Name: "folder_id", Type: cmdgen.TypeOptString, Default: cmdgen.None},
		},
	},
	{
		Name: "delete_raster",
		Doc: `Delete a raster and all detections computed on it.
raster_id: The id of the raster to delete`,
		Params: []cmdgen.ParamSpec{
			{Name: "raster_id", Type: cmdgen.TypeString},
		},
	},
	{
		Name: "create_detector",
		Doc: `Create a new detector in training state.
name: The name of the new detector
detection_type: The detector type
output_type: The detector output geometry
training_steps: Number of training steps
backbone: The neural network backbone
tile_size: Tile size in pixels
background_sample_ratio: Ratio of background samples used during training`,
		Params: []cmdgen.ParamSpec{
			{Name: "name", Type: cmdgen.TypeOptString, Default: cmdgen.None},
			{Name: "detection_type", Default: "count", Literals: []interface{}{"count", "segmentation"}},
			{Name: "output_type", Default: "polygon", Literals: []interface{}{"polygon", "bbox"}},
			{Name: "training_steps", Type: cmdgen.TypeInt, Default: 500},
			{Name: "backbone", Default: "resnet34", Literals: []interface{}{"resnet18", "resnet34", "resnet50"}},
			{Name: "tile_size", Type: cmdgen.TypeInt, Default: 256},
			{Name: "background_sample_ratio", Type: cmdgen.TypeFloat, Default: 0.25},
		},
	},
	{
		Name: "delete_detector",
		Doc: `Delete a detector. Rasters associated with it are not deleted.
detector_id: The id of the detector to delete`,
		Params: []cmdgen.ParamSpec{
			{Name: "detector_id", Type: cmdgen.TypeString},
		},
	},
	{
		Name: "run_detector",
		Doc: `Run a detector on a raster and wait for the detection to complete.
detector_id: The id of the detector to run
raster_id: The id of the raster to run the detector on`,
		Params: []cmdgen.ParamSpec{
			{Name: "detector_id", Type: cmdgen.TypeString},
			{Name: "raster_id", Type: cmdgen.TypeString},
		},
	},
	{
		Name: "upload_raster",
		Doc: `Upload a local image file as a new raster.
filename: Path of the local file to upload
name: The name of the new raster
folder_id: The id of the folder to upload into
captured_at: ISO 8601 datetime the image was captured at
multispectral: Whether the image is multispectral`,
		Params: []cmdgen.ParamSpec{
			{Name: "filename", Type: cmdgen.TypeString},
			{Name: "name", Type: cmdgen.TypeString},
			{Name: "folder_id", Type: cmdgen.TypeOptString, Default: cmdgen.None},
			{Name: "captured_at", Type: cmdgen.TypeOptString, Default: cmdgen.None},
			{Name: "multispectral", Type: cmdgen.TypeBool, Default: false},
		},
	},
}

// runners binds each table entry to the typed client call it dispatches
// to, keyed by snake_case method name.
var runners = map[string]commandRun{
	"list_rasters": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.ListRasters(ctx, args.OptString("folder_id"), args.OptString("search_string"))
	},
	"list_detectors": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.ListDetectors(ctx, args.OptString("search_string"))
	},
	"get_raster": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.GetRaster(ctx, args.String("raster_id"))
	},
	"edit_raster": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return nil, client.EditRaster(ctx, args.String("raster_id"), args.OptString("name"), args.OptString("folder_id"))
	},
	"delete_raster": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return nil, client.DeleteRaster(ctx, args.String("raster_id"))
	},
	"create_detector": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.CreateDetector(ctx, picterra.DetectorConfig{
			Name:                  args.OptString("name"),
			DetectionType:         args.String("detection_type"),
			OutputType:            args.String("output_type"),
			TrainingSteps:         args.Int("training_steps"),
			Backbone:              args.String("backbone"),
			TileSize:              args.Int("tile_size"),
			BackgroundSampleRatio: args.Float("background_sample_ratio"),
		})
	},
	"delete_detector": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return nil, client.DeleteDetector(ctx, args.String("detector_id"))
	},
	"run_detector": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.RunDetector(ctx, args.String("detector_id"), args.String("raster_id"))
	},
	"upload_raster": func(ctx context.Context, client *picterra.Client, args cmdgen.Values) (interface{}, error) {
		return client.UploadRaster(ctx,
			args.String("filename"),
			args.String("name"),
			args.OptString("folder_id"),
			args.OptString("captured_at"),
			args.Bool("multispectral"),
		)
	},
}
