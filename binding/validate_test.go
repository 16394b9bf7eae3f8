package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/nativebind/errors"
)

type detectorOptions struct {
	MaxFeatures int     `json:"maxFeatures,omitempty" validate:"gt=0"`
	ScaleFactor float64 `json:"scaleFactor,omitempty" validate:"gt=1"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct("arg 0", detectorOptions{MaxFeatures: 500, ScaleFactor: 1.2}))

	err := ValidateStruct("arg 0", detectorOptions{MaxFeatures: 0, ScaleFactor: 1.2})
	e := asError(t, err)
	assert.Equal(t, errors.KindPrecondition, e.Kind)
	assert.Equal(t, "arg 0", e.Param)
	assert.Equal(t, []string{"maxFeatures"}, e.Path)
	assert.Equal(t, "failed gt=0, got 0", e.Detail)
}

func TestOptionSchemas_Check(t *testing.T) {
	s := newOptionSchemas()

	assert.NoError(t, s.check("ORB", "arg 0", &detectorOptions{}, map[string]any{"maxFeatures": 10}))

	err := s.check("ORB", "arg 0", &detectorOptions{}, map[string]any{"maxFeatures": "ten"})
	e := asError(t, err)
	assert.Equal(t, errors.KindArgument, e.Kind)
	assert.Contains(t, e.Detail, "/maxFeatures")
}
