package reconcile

import (
	"strings"

	"silorecon/internal/transformer"
	"silorecon/internal/transformer/builtin"
	"silorecon/pkg/records"
)

// Filter keeps task rows of the silo process type whose destination bin is
// a silo bin and whose product is set. It expects normalized string fields
// and is idempotent.
type Filter struct {
	ProcessTypeColumn string
	ProcessType       string
	BinColumn         string
	BinPrefixes       []string
	BinExact          []string
	ProductColumn     string
}

func (f Filter) Apply(in []records.Record) []records.Record {
	return transformer.Chain{
		transformer.Func(f.keep),
		builtin.Require{Fields: []string{f.ProductColumn}},
	}.Apply(in)
}

func (f Filter) keep(in []records.Record) []records.Record {
	out := in[:0]
	for _, r := range in {
		pt, _ := r[f.ProcessTypeColumn].(string)
		bin, _ := r[f.BinColumn].(string)
		if pt == f.ProcessType && f.siloBin(bin) {
			out = append(out, r)
		}
	}
	return out
}

func (f Filter) siloBin(bin string) bool {
	for _, p := range f.BinPrefixes {
		if strings.HasPrefix(bin, p) {
			return true
		}
	}
	for _, e := range f.BinExact {
		if bin == e {
			return true
		}
	}
	return false
}
