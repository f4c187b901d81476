package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/perfmodel/internal/codec"
)

//go:embed schema.cue
var schemaCUE string

// schema is the compiled #Model definition. A cue.Context is not safe for
// concurrent use, so callers serialize through Validator.mu.
type schema struct {
	ctx   *cue.Context
	model cue.Value
}

func compileSchema() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Model"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Model: %w", err)
	}
	return &schema{ctx: ctx, model: def}, nil
}

// check unifies the JSON form of view with #Model.
func (s *schema) check(view *codec.ModelView) []ValidationError {
	data, err := json.Marshal(view)
	if err != nil {
		return []ValidationError{{Field: "model", Message: err.Error(), Code: ErrSchema}}
	}
	v := s.ctx.CompileBytes(data, cue.Filename("model.json"))
	if err := v.Err(); err != nil {
		return cueValidationErrors(err)
	}
	if err := s.model.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return cueValidationErrors(err)
	}
	return nil
}

// cueValidationErrors flattens a CUE error list, one entry per path.
func cueValidationErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchema,
		})
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Field: "model", Message: err.Error(), Code: ErrSchema})
	}
	return out
}
