package domain

// FieldViolation describes a single invalid field.
type FieldViolation struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// ValidationFailure represents rejected user input.
type ValidationFailure struct {
	Base
	Violations []FieldViolation
}

// SubtypeValidation keys validation failures in the recovery registry.
const SubtypeValidation = "validation"

// NewValidationFailure creates a validation failure from per-field
// violations. Validation failures are always low severity.
func NewValidationFailure(message string, violations []FieldViolation) *ValidationFailure {
	return &ValidationFailure{
		Base:       newBase(KindValidation, CodeInvalidInput, message, nil),
		Violations: violations,
	}
}

func (f *ValidationFailure) Subtype() string { return SubtypeValidation }

// WithContext returns a copy of the failure carrying the extra attributes.
func (f *ValidationFailure) WithContext(ctx Context) *ValidationFailure {
	out := *f
	out.Base.Context = f.Base.Context.Merge(ctx)
	return &out
}

// ToMap serializes the failure including the violation list.
func (f *ValidationFailure) ToMap() map[string]any {
	m := f.Base.ToMap()
	if len(f.Violations) > 0 {
		vs := make([]map[string]any, 0, len(f.Violations))
		for _, v := range f.Violations {
			vs = append(vs, map[string]any{
				"field":  v.Field,
				"rule":   v.Rule,
				"detail": v.Detail,
			})
		}
		m["violations"] = vs
	}
	return m
}
