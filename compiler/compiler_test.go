package compiler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/cmpby/compiler/gen"
)

const shapes = "./load/testdata/shapes"

func TestGenerate(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := Generate(context.Background(), nil, shapes)
		require.Error(t, err)
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("dry run", func(t *testing.T) {
		cfg := gen.MustNewConfig(gen.WithDryRun(true))
		g, err := Generate(context.Background(), cfg, shapes)
		require.NoError(t, err)
		require.NoError(t, g.Err())
		require.Len(t, g.Results, 1)

		r := g.Results[0]
		abs, err := filepath.Abs(filepath.Join(shapes, "shapes"+gen.DefaultSuffix))
		require.NoError(t, err)
		assert.Equal(t, abs, r.File)
		assert.False(t, r.Written)
		assert.NoFileExists(t, r.File)

		src := string(r.Source)
		assert.Contains(t, src, "func (x Version) Equal(y Version) bool {")
		assert.Contains(t, src, "x.Build.Equal(y.Build)")
		assert.Contains(t, src, "x.Build.Hash(h)")
		assert.NotContains(t, src, "func (x Version) Compare")
		assert.Contains(t, src, "func CompareShape(x, y Shape) int {")
		require.NotNil(t, g.Logic("github.com/syssam/cmpby/compiler/load/testdata/shapes", "Shape"))
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := Generate(context.Background(), &gen.Config{}, "./load/testdata/missing")
		require.Error(t, err)
		assert.True(t, gen.IsGenerationError(err))
	})
}

func TestInspect(t *testing.T) {
	ins, err := Inspect(context.Background(), &gen.Config{}, shapes)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	require.Len(t, ins[0].Types, 2)
	assert.Equal(t, "Version", ins[0].Types[0].Name)
	assert.Equal(t, []string{"eq", "hash"}, ins[0].Types[0].Capabilities)
	assert.Equal(t, "Shape", ins[0].Types[1].Name)
	assert.True(t, ins[0].Types[1].Funcs)
	assert.Empty(t, ins[0].Diagnostics)
}
