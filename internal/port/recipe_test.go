package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRecipe(t *testing.T) {
	t.Parallel()

	t.Run("embeds version and checksum", func(t *testing.T) {
		t.Parallel()
		r, err := RenderRecipe(RecipeParams{
			Repo:     "brainboxdotcc/DPP",
			Package:  "dpp",
			Version:  "10.0.29",
			Checksum: "ABCDEF0123",
		})
		require.NoError(t, err)
		assert.Contains(t, r.String(), "SHA512 ABCDEF0123")
		assert.Contains(t, r.String(), `REF "v10.0.29"`)
		assert.Contains(t, r.String(), "REPO brainboxdotcc/DPP")
		assert.Contains(t, r.String(), `"${CURRENT_PACKAGES_DIR}/debug/share/dpp"`)
		assert.Contains(t, r.String(), `DESTINATION "${CURRENT_PACKAGES_DIR}/share/${PORT}"`)
	})

	t.Run("empty checksum renders placeholder", func(t *testing.T) {
		t.Parallel()
		r, err := RenderRecipe(RecipeParams{Repo: "a/b", Package: "b", Version: "1.0.0"})
		require.NoError(t, err)
		assert.Contains(t, r.String(), "SHA512 0\n")
	})

	t.Run("identical inputs give identical text", func(t *testing.T) {
		t.Parallel()
		p := RecipeParams{Repo: "a/b", Package: "b", Version: "1.0.0", Checksum: "ff"}
		a, err := RenderRecipe(p)
		require.NoError(t, err)
		b, err := RenderRecipe(p)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
