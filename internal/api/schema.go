package api

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/flowmeters.json
var flowMetersSchema []byte

const flowMetersSchemaURL = "https://hydrai.local/schema/flowmeters.json"

var compileFlowMetersSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(flowMetersSchema))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse flow meter schema")
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(flowMetersSchemaURL, doc); err != nil {
		return nil, errors.Wrap(err, "failed to add flow meter schema")
	}
	return c.Compile(flowMetersSchemaURL)
})

// validateFlowMeters checks a /caudalimetros response body before it is decoded
func validateFlowMeters(body []byte) error {
	schema, err := compileFlowMetersSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "response is not valid JSON")
	}

	return schema.Validate(inst)
}
