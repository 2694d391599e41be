package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowsOption(t *testing.T) {
	sel := &Field{
		DataType:      DataTypeSelect,
		SelectOptions: []string{"Prismatic", "Pouch"},
	}
	assert.True(t, sel.AllowsOption("Pouch"))
	assert.False(t, sel.AllowsOption("pouch"))
	assert.False(t, sel.AllowsOption("Cylindrical 4680"))

	text := &Field{DataType: DataTypeText}
	assert.True(t, text.AllowsOption("anything at all"))

	// A select field with no options behaves like free text.
	open := &Field{DataType: DataTypeSelect}
	assert.True(t, open.AllowsOption("anything"))
}
