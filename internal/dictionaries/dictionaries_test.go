package dictionaries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/culturemech/culturemech/internal/dictionaries"
)

func TestLookupBiologicalProduct_CaseInsensitive(t *testing.T) {
	id, ok := dictionaries.LookupBiologicalProduct("Yeast Extract")
	assert.True(t, ok)
	assert.Equal(t, "FOODON:03315426", id)

	id, ok = dictionaries.LookupBiologicalProduct("YEAST EXTRACT")
	assert.True(t, ok)
	assert.Equal(t, "FOODON:03315426", id)
}

func TestLookupBiologicalProduct_Miss(t *testing.T) {
	_, ok := dictionaries.LookupBiologicalProduct("not a real ingredient")
	assert.False(t, ok)
}

func TestLookupFormulaName_CaseSensitive(t *testing.T) {
	name, ok := dictionaries.LookupFormulaName("Fe2(SO4)3")
	assert.True(t, ok)
	assert.Equal(t, "iron(III) sulfate", name)

	_, ok = dictionaries.LookupFormulaName("fe2(so4)3")
	assert.False(t, ok)
}

func TestLookupBufferCompound_CaseInsensitive(t *testing.T) {
	name, ok := dictionaries.LookupBufferCompound("hepes")
	assert.True(t, ok)
	assert.Equal(t, "4-(2-hydroxyethyl)-1-piperazineethanesulfonic acid", name)
}

func TestLookupBufferCompound_Miss(t *testing.T) {
	_, ok := dictionaries.LookupBufferCompound("NOTABUFFER")
	assert.False(t, ok)
}
