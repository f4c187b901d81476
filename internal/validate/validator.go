package validate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/perfmodel/internal/codec"
	"github.com/roach88/perfmodel/internal/model"
)

// Validator checks models against the CUE schema and the consistency
// rules. It is safe for concurrent use.
type Validator struct {
	mu        sync.Mutex
	schema    *schema
	rateScale int32
}

// Option configures a Validator.
type Option func(*Validator)

// WithRateScale sets the arrival-rate scale of the exported view that the
// schema checks. Default: model.DefaultRateScale.
func WithRateScale(scale int32) Option {
	return func(v *Validator) { v.rateScale = scale }
}

// New compiles the embedded schema and returns a Validator.
func New(opts ...Option) (*Validator, error) {
	s, err := compileSchema()
	if err != nil {
		return nil, err
	}
	v := &Validator{schema: s, rateScale: model.DefaultRateScale}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Check returns every violation in m. Rules run first; the schema is
// only checked when the view can be built.
func (v *Validator) Check(m *model.Model) []ValidationError {
	errs := checkRules(m)

	view, err := codec.NewModelView(m, v.rateScale)
	if err != nil {
		return append(errs, ValidationError{Field: "model", Message: err.Error(), Code: ErrSchema})
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return append(errs, v.schema.check(view)...)
}

// Validate implements the engine's validation boundary. It returns an
// *Error listing every violation, or nil.
func (v *Validator) Validate(ctx context.Context, m *model.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errs := v.Check(m)
	if len(errs) == 0 {
		return nil
	}
	slog.Warn("model failed validation",
		"errors", len(errs),
		"first", errs[0].Error(),
	)
	return &Error{Errors: errs}
}

// MustNew is New for package-level initialization; it panics on a schema
// that does not compile.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validate: %v", err))
	}
	return v
}
