package port

import (
	"bytes"
	"text/template"
)

// Recipe is the text of a portfile.cmake.
type Recipe string

func (r Recipe) String() string {
	return string(r)
}

// RecipeParams parameterises the portfile template.
type RecipeParams struct {
	Repo     string // owner/name on the source host
	Package  string
	Version  string // without a leading v
	Checksum Checksum
}

var recipeTemplate = template.Must(template.New("portfile.cmake").Parse(`vcpkg_from_github(
    OUT_SOURCE_PATH SOURCE_PATH
    REPO {{ .Repo }}
    REF "v{{ .Version }}"
    SHA512 {{ .Checksum }}
)

vcpkg_cmake_configure(
    SOURCE_PATH "${SOURCE_PATH}"
    DISABLE_PARALLEL_CONFIGURE
)

vcpkg_cmake_install()

vcpkg_cmake_config_fixup(NO_PREFIX_CORRECTION)

file(REMOVE_RECURSE "${CURRENT_PACKAGES_DIR}/debug/share/{{ .Package }}")
file(REMOVE_RECURSE "${CURRENT_PACKAGES_DIR}/debug/include")

if(VCPKG_LIBRARY_LINKAGE STREQUAL "static")
    file(REMOVE_RECURSE "${CURRENT_PACKAGES_DIR}/bin" "${CURRENT_PACKAGES_DIR}/debug/bin")
endif()

file(
    INSTALL "${SOURCE_PATH}/LICENSE"
    DESTINATION "${CURRENT_PACKAGES_DIR}/share/${PORT}"
    RENAME copyright
)

file(COPY "${CMAKE_CURRENT_LIST_DIR}/usage" DESTINATION "${CURRENT_PACKAGES_DIR}/share/${PORT}")
`))

// RenderRecipe renders the portfile for p. An empty checksum renders the placeholder.
func RenderRecipe(p RecipeParams) (Recipe, error) {
	if p.Checksum == "" {
		p.Checksum = PlaceholderChecksum
	}

	var buf bytes.Buffer
	if err := recipeTemplate.Execute(&buf, p); err != nil {
		return "", &RecipeRenderError{Wrapped: err}
	}
	return Recipe(buf.String()), nil
}
