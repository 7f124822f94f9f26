package filter

// Builder folds optional parameters into a predicate list. Absent parameters
// (empty strings, nil pointers, empty slices) add nothing, so an absent
// attribute is never treated as "match the absent value".
type Builder struct {
	preds []Predicate
}

// Add appends predicates unconditionally.
func (b *Builder) Add(preds ...Predicate) *Builder {
	b.preds = append(b.preds, preds...)
	return b
}

// EqString adds col = v when v is non-empty.
func (b *Builder) EqString(col, v string) *Builder {
	if v != "" {
		b.preds = append(b.preds, Eq(col, v))
	}
	return b
}

// EqBool adds col = *v when v is set.
func (b *Builder) EqBool(col string, v *bool) *Builder {
	if v != nil {
		b.preds = append(b.preds, Eq(col, *v))
	}
	return b
}

// EqInt adds col = *v when v is set.
func (b *Builder) EqInt(col string, v *int) *Builder {
	if v != nil {
		b.preds = append(b.preds, Eq(col, *v))
	}
	return b
}

// InStrings adds set membership on col when vals is non-empty.
func (b *Builder) InStrings(col string, vals []string) *Builder {
	if len(vals) == 0 {
		return b
	}
	values := make([]any, len(vals))
	for i, v := range vals {
		values[i] = v
	}
	b.preds = append(b.preds, In(col, values...))
	return b
}

// Len is the number of predicates added so far.
func (b *Builder) Len() int { return len(b.preds) }

// Build returns the accumulated conjunction.
func (b *Builder) Build() Filter {
	return New(b.preds...)
}
