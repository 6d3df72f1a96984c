package cmdgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrospectNames(t *testing.T) {
	desc := Introspect(testLogger(), MethodSpec{Name: "run_detector"})
	assert.Equal(t, "run-detector", desc.Name)
	assert.Equal(t, "run_detector", desc.Method)

	assert.Equal(t, "run_detector", MethodName(desc.Name))
}

func TestIntrospectHelp(t *testing.T) {
	t.Run("first doc line", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "get_raster",
			Doc:  "Get a raster's metadata.\nraster_id: The id of the raster",
		})
		assert.Equal(t, "Get a raster's metadata.", desc.Help)
	})

	t.Run("skips unstable markers", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "edit_raster",
			Doc:  "This is an experimental feature, subject to change.\nEdit a raster.",
		})
		assert.Equal(t, "Edit a raster.", desc.Help)

		desc = Introspect(testLogger(), MethodSpec{
			Name: "edit_raster",
			Doc:  "This method is in beta.\nEdit a raster.",
		})
		assert.Equal(t, "Edit a raster.", desc.Help)
	})

	t.Run("no usable line", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "edit_raster",
			Doc:  "This method is in beta.",
		})
		assert.Empty(t, desc.Help)
	})

	t.Run("percents are escaped", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "create_detector",
			Doc:  "Trains until 100% of steps are done.",
		})
		assert.Equal(t, "Trains until 100%% of steps are done.", desc.Help)
	})
}

func TestIntrospectParamHelp(t *testing.T) {
	desc := Introspect(testLogger(), MethodSpec{
		Name: "create_detector",
		Doc: `Create a detector.
training_steps: Number of training steps
backbone: The backbone
undocumented_param:
name missing colon`,
		Params: []ParamSpec{
			{Name: "training_steps", Type: TypeInt, Default: 500},
			{Name: "backbone", Default: "resnet34", Literals: []interface{}{"resnet18", "resnet34"}},
			{Name: "name", Type: TypeOptString, Default: None},
			{Name: "absent", Type: TypeString},
		},
	})
	require.Len(t, desc.Params, 4)

	// Primitive kinds get a bracketed type suffix.
	assert.Equal(t, "Number of training steps [int]", desc.Params[0].Help)
	// A choice set is self-describing, so no suffix.
	assert.Equal(t, "The backbone", desc.Params[1].Help)
	// A doc line without a colon-separated description yields no help.
	assert.Empty(t, desc.Params[2].Help)
	// No doc line at all yields no help.
	assert.Empty(t, desc.Params[3].Help)
}

func TestIntrospectUUIDSuffix(t *testing.T) {
	desc := Introspect(testLogger(), MethodSpec{
		Name: "get_raster",
		Doc:  "Get a raster.\nraster_id: The id of the raster",
		Params: []ParamSpec{
			{Name: "raster_id", Type: TypeString},
		},
	})
	assert.Equal(t, KindUUID, desc.Params[0].Coercion.Kind)
	assert.Equal(t, "The id of the raster [uuid]", desc.Params[0].Help)
}

func TestIntrospectRequired(t *testing.T) {
	desc := Introspect(testLogger(), MethodSpec{
		Name: "upload_raster",
		Params: []ParamSpec{
			{Name: "filename", Type: TypeString},
			{Name: "multispectral", Type: TypeBool, Default: false},
			{Name: "captured_at", Type: TypeOptString, Default: None},
		},
	})
	assert.True(t, desc.Params[0].Required)
	// A default, even an explicit "no value", makes a parameter optional.
	assert.False(t, desc.Params[1].Required)
	assert.False(t, desc.Params[2].Required)
}

func TestIntrospectShortFlags(t *testing.T) {
	t.Run("distinct initials get aliases", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "run_detector",
			Params: []ParamSpec{
				{Name: "detector_id", Type: TypeString},
				{Name: "raster_id", Type: TypeString},
			},
		})
		assert.Equal(t, "d", desc.Params[0].Short)
		assert.Equal(t, "r", desc.Params[1].Short)
	})

	t.Run("colliding initials suppress all aliases", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "upload_raster",
			Params: []ParamSpec{
				{Name: "filename", Type: TypeString},
				{Name: "folder_id", Type: TypeOptString, Default: None},
				{Name: "name", Type: TypeString},
			},
		})
		for _, p := range desc.Params {
			assert.Empty(t, p.Short)
		}
	})

	t.Run("reserved letters are never aliases", func(t *testing.T) {
		desc := Introspect(testLogger(), MethodSpec{
			Name: "edit_detector",
			Params: []ParamSpec{
				{Name: "verbose_output", Type: TypeString},
				{Name: "hints", Type: TypeOptString, Default: None},
				{Name: "name", Type: TypeOptString, Default: None},
			},
		})
		assert.Empty(t, desc.Params[0].Short)
		assert.Empty(t, desc.Params[1].Short)
		assert.Equal(t, "n", desc.Params[2].Short)
	})
}

func TestIntrospectIsPure(t *testing.T) {
	spec := MethodSpec{
		Name: "create_detector",
		Doc:  "Create a detector.\nname: The detector name",
		Params: []ParamSpec{
			{Name: "name", Type: TypeOptString, Default: None},
			{Name: "backbone", Default: "resnet34", Literals: []interface{}{"resnet18", "resnet34"}},
		},
	}
	first := Introspect(testLogger(), spec)
	second := Introspect(testLogger(), spec)
	assert.Equal(t, first, second)
}
