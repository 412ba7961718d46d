package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry(&fakeTaste{}, nil)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, tool := range registry.GetTools() {
		names = append(names, tool.Name())
		assert.NotEmpty(t, tool.Title())
		assert.NotEmpty(t, tool.Description())
		require.NotNil(t, tool.InputSchema())
		require.NotNil(t, tool.OutputSchema())
		assert.Equal(t, "object", tool.InputSchema().Type)
	}
	assert.Equal(t, []string{
		AssessBusinessFitName,
		FindTasteGapsName,
		GetCulturalSignalsName,
		GetRecommendationsName,
		SearchTasteEntitiesName,
	}, names)

	t.Run("requires a taste client", func(t *testing.T) {
		_, err := NewRegistry(nil, nil)
		assert.Error(t, err)
	})
}

func TestRegistry_GetTool(t *testing.T) {
	registry, err := NewRegistry(&fakeTaste{}, nil)
	require.NoError(t, err)

	tool, err := registry.GetTool(FindTasteGapsName)
	require.NoError(t, err)
	assert.Equal(t, FindTasteGapsName, tool.Name())

	_, err = registry.GetTool("pantry_get")
	assert.ErrorContains(t, err, `tool "pantry_get" not found`)
}

func TestRegistry_Subset(t *testing.T) {
	registry, err := NewRegistry(&fakeTaste{}, nil)
	require.NoError(t, err)

	sub, err := registry.Subset(SearchTasteEntitiesName, GetRecommendationsName)
	require.NoError(t, err)
	assert.Len(t, sub.GetTools(), 2)

	_, err = sub.GetTool(FindTasteGapsName)
	assert.Error(t, err)

	_, err = registry.Subset("unknown")
	assert.Error(t, err)
}
