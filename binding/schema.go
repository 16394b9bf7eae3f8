package binding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	schemavalidator "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

// optionSchemas reflects option structs into JSON schemas and validates
// options records against them.
type optionSchemas struct {
	compiled map[string]*schemavalidator.Schema
	compiler *schemavalidator.Compiler
	mu       sync.Mutex
}

func newOptionSchemas() *optionSchemas {
	return &optionSchemas{
		compiled: make(map[string]*schemavalidator.Schema),
		compiler: schemavalidator.NewCompiler(),
	}
}

func reflectOptions(model any) *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true}
	return r.Reflect(model)
}

func (s *optionSchemas) get(name string, model any) (*schemavalidator.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sch, ok := s.compiled[name]; ok {
		return sch, nil
	}

	data, err := json.Marshal(reflectOptions(model))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema for %s: %w", name, err)
	}
	url := "mem://options/" + name + ".json"
	if err := s.compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource for %s: %w", name, err)
	}
	sch, err := s.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", name, err)
	}
	s.compiled[name] = sch
	return sch, nil
}

// check validates an options record. Unknown keys and wrongly typed values
// are argument errors on param.
func (s *optionSchemas) check(name, param string, model any, rec host.Record) error {
	sch, err := s.get(name, model)
	if err != nil {
		return errors.New(errors.PhaseRegister, errors.KindRegistration).Param(name).Cause(err).Build()
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.New(errors.PhaseValidate, errors.KindArgument).
			Param(param).
			NativeType("options").
			Cause(err).
			Build()
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.New(errors.PhaseValidate, errors.KindArgument).Param(param).Cause(err).Build()
	}

	if err := sch.Validate(doc); err != nil {
		b := errors.New(errors.PhaseValidate, errors.KindArgument).Param(param).NativeType("options")
		var ve *schemavalidator.ValidationError
		if errors.As(err, &ve) {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return b.Detail("%s: %s", leaf.InstanceLocation, leaf.Message).Build()
		}
		return b.Cause(err).Build()
	}
	return nil
}
