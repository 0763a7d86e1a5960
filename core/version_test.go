package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffText(t *testing.T) {

	assert.Empty(t, DiffText("same", "same"))
	assert.NotEmpty(t, DiffText("old text", "new text"))

	// the patch must transform old into new
	var old = "# Heading\n\nFirst paragraph.\n"
	var new = "# Heading\n\nFirst paragraph, revised.\n\nSecond paragraph.\n"
	patches, err := dmp.PatchFromText(DiffText(old, new))
	require.NoError(t, err)
	result, applied := dmp.PatchApply(patches, old)
	for _, ok := range applied {
		assert.True(t, ok)
	}
	assert.Equal(t, new, result)
}
