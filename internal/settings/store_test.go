package settings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() map[string]any {
	return map[string]any{
		"A": map[string]any{
			"a": 10,
			"b": map[string]any{
				"c": map[string]any{"d": 42},
				"e": 11,
			},
			"f": 53,
		},
		"B": map[string]any{},
	}
}

func TestStore_NestedLookup(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(sampleConfig()))

	assert.Equal(t, 10, s.GetInt("A", "a", 0))
	assert.Equal(t, 53, s.GetInt("A", "f", 0))
	assert.Equal(t, 11, s.GetInt("A", "b.e", 0))
	assert.Equal(t, 42, s.GetInt("A", "b.c.d", 0))
}

func TestStore_MissingKeysReturnDefault(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(sampleConfig()))

	assert.Nil(t, s.Get("A", "x", nil))
	assert.Equal(t, 61, s.Get("A", "x", 61))
	assert.Equal(t, 62, s.Get("A", "x.y", 62))
	assert.Equal(t, 63, s.Get("A", "b.c.e", 63))
	assert.Equal(t, 64, s.Get("A", "", 64))
	assert.Equal(t, 65, s.Get("C", "a", 65))
}

func TestStore_NotLoadedReturnsDefault(t *testing.T) {
	s := New(nil)

	assert.False(t, s.Loaded())
	assert.Equal(t, 10, s.GetInt("proso_flashcards", "practice.common.set_length", 10))
	assert.False(t, s.GetBool("proso_flashcards", "practice.common.cache_context", false))
}

func TestStore_LoadCopiesInput(t *testing.T) {
	data := sampleConfig()
	s := New(nil)
	require.NoError(t, s.Load(data))

	data["A"].(map[string]any)["a"] = 99
	assert.Equal(t, 10, s.GetInt("A", "a", 0))
}

func TestStore_LoadJSON(t *testing.T) {
	s := New(nil)
	err := s.LoadJSON(strings.NewReader(`{"proso_flashcards":{"practice":{"common":{"set_length":5,"cache_context":true}}}}`))
	require.NoError(t, err)

	assert.Equal(t, 5, s.GetInt("proso_flashcards", "practice.common.set_length", 10))
	assert.True(t, s.GetBool("proso_flashcards", "practice.common.cache_context", false))
	assert.Equal(t, 1, s.GetInt("proso_flashcards", "practice.common.fc_queue_size_max", 1))
}

func TestStore_LoadJSONInvalid(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.LoadJSON(strings.NewReader(`{not json`)))
	assert.False(t, s.Loaded())
}

func TestStore_MergeKeepsExistingKeys(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Merge(map[string]any{
		"proso_flashcards": map[string]any{
			"practice": map[string]any{
				"common": map[string]any{"set_length": 10, "fc_queue_size_max": 3},
			},
		},
	}))
	require.NoError(t, s.Merge(map[string]any{
		"proso_flashcards": map[string]any{
			"practice": map[string]any{
				"common": map[string]any{"set_length": 20},
			},
		},
	}))

	assert.Equal(t, 20, s.GetInt("proso_flashcards", "practice.common.set_length", 0))
	assert.Equal(t, 3, s.GetInt("proso_flashcards", "practice.common.fc_queue_size_max", 0))
}

func TestStore_Overrides(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(sampleConfig()))

	s.Override("A.a", "7")
	s.Override("A.flag", "true")
	assert.Equal(t, 7, s.GetInt("A", "a", 0))
	assert.True(t, s.GetBool("A", "flag", false))
	assert.Equal(t, map[string]string{"A.a": "7", "A.flag": "true"}, s.Overridden())

	s.RemoveOverridden("A.a")
	assert.Equal(t, 10, s.GetInt("A", "a", 0))

	s.ResetOverridden()
	assert.Empty(t, s.Overridden())
	assert.False(t, s.GetBool("A", "flag", false))
}

func TestStore_OverriddenReturnsCopy(t *testing.T) {
	s := New(nil)
	s.Override("A.a", "1")

	got := s.Overridden()
	got["A.a"] = "2"

	assert.Equal(t, "1", s.Overridden()["A.a"])
}

func TestStore_BadTypeFallsBackToDefault(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Load(map[string]any{"A": map[string]any{"n": "many"}}))

	assert.Equal(t, 4, s.GetInt("A", "n", 4))
}
