// Package transformer defines the batch transform contract: a Transformer
// takes a slice of records and returns the (possibly filtered, possibly
// mutated in place) slice for the next step.
package transformer

import "silorecon/pkg/records"

// Transformer is one batch step.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Func adapts a plain function to Transformer.
type Func func([]records.Record) []records.Record

// Apply calls f(in).
func (f Func) Apply(in []records.Record) []records.Record { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer on the previous one's output, left to right.
func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
