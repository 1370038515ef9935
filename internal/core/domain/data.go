package domain

// DataFailure represents a storage or data-integrity failure.
type DataFailure struct {
	Base
	Table string
	Field string
}

// SubtypeData keys data failures in the recovery registry.
const SubtypeData = "data"

// NewDataFailure creates a data failure. The code should be one of the
// data Code* constants; severity derives from it (corruption is critical).
func NewDataFailure(code, message, table, field string, cause error) *DataFailure {
	return &DataFailure{
		Base:  newBase(KindData, code, message, cause),
		Table: table,
		Field: field,
	}
}

func (f *DataFailure) Subtype() string { return SubtypeData }

// WithContext returns a copy of the failure carrying the extra attributes.
func (f *DataFailure) WithContext(ctx Context) *DataFailure {
	out := *f
	out.Base.Context = f.Base.Context.Merge(ctx)
	return &out
}

// ToMap serializes the failure including table/field identifiers.
func (f *DataFailure) ToMap() map[string]any {
	m := f.Base.ToMap()
	if f.Table != "" {
		m["table"] = f.Table
	}
	if f.Field != "" {
		m["field"] = f.Field
	}
	return m
}
