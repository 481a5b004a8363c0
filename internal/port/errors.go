package port

import (
	"fmt"
)

type InvalidChecksumError struct {
	Value string
}

func (e *InvalidChecksumError) Error() string {
	return fmt.Sprintf("'%s' is not a valid checksum - must be a hex digest or 0", e.Value)
}

type InvalidManifestError struct {
	Wrapped error
}

func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("manifest is not valid: %v", e.Wrapped)
}

func (e *InvalidManifestError) Unwrap() error {
	return e.Wrapped
}

type RecipeRenderError struct {
	Wrapped error
}

func (e *RecipeRenderError) Error() string {
	return fmt.Sprintf("failed to render portfile: %v", e.Wrapped)
}

func (e *RecipeRenderError) Unwrap() error {
	return e.Wrapped
}

type InvalidIndexError struct {
	Path string
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("%s is not a valid JSON document", e.Path)
}

type BaselineNotFoundError struct {
	Package string
	Path    string
}

func (e *BaselineNotFoundError) Error() string {
	return fmt.Sprintf("no baseline for %s in %s", e.Package, e.Path)
}
