package port

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const manifestSchemaID = "https://portpub.local/vcpkg-manifest.schema.json"

//go:embed manifest_schema.json
var manifestSchemaJSON []byte

var manifestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifestSchemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err = c.AddResource(manifestSchemaID, doc); err != nil {
		return nil, err
	}
	return c.Compile(manifestSchemaID)
})

// ValidateManifest checks a vcpkg.json document against the manifest schema.
func ValidateManifest(data []byte) error {
	sch, err := manifestSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &InvalidManifestError{Wrapped: err}
	}
	if err = sch.Validate(inst); err != nil {
		return &InvalidManifestError{Wrapped: err}
	}
	return nil
}
