// Package csv parses CSV exports of the warehouse-task and bin-mapping
// tables. Malformed rows are skipped and counted rather than failing the
// whole file; a missing or unreadable header is an error.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"silorecon/internal/config"
	"silorecon/internal/parser"
	"silorecon/pkg/records"
)

// Options configures the parser. Zero values are usable.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims surrounding whitespace from each field value.
	TrimSpace bool

	// LazyQuotes relaxes quote handling, see encoding/csv.
	LazyQuotes bool

	// ExpectedFields, when > 0 and there is no header, names columns col_0..
	// and enforces the width.
	ExpectedFields int

	// HeaderMap renames source headers. Unmapped headers are kept verbatim
	// unless LowerHeaders is set.
	HeaderMap map[string]string

	// LowerHeaders lowercases unmapped headers and replaces spaces with
	// underscores.
	LowerHeaders bool

	// Encoding is a WHATWG label such as "windows-1252". Empty means UTF-8.
	Encoding string

	// Replace rewrites byte sequences before the CSV reader sees them, for
	// exports known to contain a broken quoting pattern.
	Replace map[string]string
}

// OptionsFrom reads Options from a parser options bag. Recognised keys:
// has_header (default true), comma, trim_space, lazy_quotes,
// expected_fields, header_map, lower_headers, encoding, replace.
func OptionsFrom(o config.Options) Options {
	opt := Options{
		HasHeader:      o.Bool("has_header", true),
		TrimSpace:      o.Bool("trim_space", true),
		LazyQuotes:     o.Bool("lazy_quotes", false),
		ExpectedFields: o.Int("expected_fields", 0),
		HeaderMap:      o.StringMap("header_map"),
		LowerHeaders:   o.Bool("lower_headers", false),
		Encoding:       o.String("encoding", ""),
		Replace:        o.StringMap("replace"),
	}
	if c := o.Rune("comma", 0); c != 0 {
		opt.Comma = c
	}
	return opt
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs.
type Parser struct {
	opt Options
	log *zap.Logger
}

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	return &Parser{opt: opt, log: zap.L().Named("csv")}
}

// maxSkipLogs bounds per-row warnings on badly broken files.
const maxSkipLogs = 50

// Parse reads all of r.
func (p *Parser) Parse(r io.Reader) (parser.Result, error) {
	r, err := p.decode(r)
	if err != nil {
		return parser.Result{}, err
	}
	pats := slices.Sorted(maps.Keys(p.opt.Replace))
	for _, pat := range pats {
		if pat != "" {
			r = newStreamingRewriter(r, []byte(pat), []byte(p.opt.Replace[pat]))
		}
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var headers []string
	switch {
	case p.opt.HasHeader:
		h, err := cr.Read()
		if err == io.EOF {
			return parser.Result{}, fmt.Errorf("read csv header: empty input")
		}
		if err != nil {
			return parser.Result{}, fmt.Errorf("read csv header: %w", err)
		}
		headers = p.normalizeHeaders(h)
	case p.opt.ExpectedFields > 0:
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	res := parser.Result{Columns: headers}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.skip(&res, line, err.Error())
			continue
		}
		if len(headers) > 0 && len(row) != len(headers) {
			p.skip(&res, line, fmt.Sprintf("expected %d fields, got %d", len(headers), len(row)))
			continue
		}
		if blank(row) {
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, headers)] = emptyToNil(val)
		}
		res.Rows = append(res.Rows, rec)
	}
	if len(headers) == 0 && len(res.Rows) > 0 {
		res.Columns = make([]string, len(res.Rows[0]))
		for i := range res.Columns {
			res.Columns[i] = keyFor(i, nil)
		}
	}
	return res, nil
}

func (p *Parser) skip(res *parser.Result, line int, reason string) {
	if res.Skipped < maxSkipLogs {
		p.log.Warn("skipping csv row", zap.Int("line", line), zap.String("reason", reason))
	}
	res.Skipped++
}

func (p *Parser) decode(r io.Reader) (io.Reader, error) {
	if p.opt.Encoding == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(p.opt.Encoding)
	if err != nil {
		return nil, fmt.Errorf("csv encoding %q: %w", p.opt.Encoding, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func (p *Parser) normalizeHeaders(h []string) []string {
	res := StripHeaderBOM(append([]string(nil), h...))
	for i, col := range res {
		c := strings.TrimSpace(col)
		if m, ok := p.opt.HeaderMap[c]; ok {
			res[i] = m
			continue
		}
		if p.opt.LowerHeaders {
			c = strings.ReplaceAll(strings.ToLower(c), " ", "_")
		}
		res[i] = c
	}
	return res
}

func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// streamingRewriter replaces pat with repl without buffering the whole
// stream. It withholds the last len(pat)-1 bytes of each block so matches
// spanning reads are still found.
type streamingRewriter struct {
	br    *bufio.Reader
	pat   []byte
	repl  []byte
	carry []byte
	buf   bytes.Buffer
	eof   bool
}

func newStreamingRewriter(r io.Reader, pat, repl []byte) *streamingRewriter {
	return &streamingRewriter{
		br:    bufio.NewReaderSize(r, 64*1024),
		pat:   pat,
		repl:  repl,
		carry: make([]byte, 0, len(pat)),
	}
}

func (sr *streamingRewriter) Read(p []byte) (int, error) {
	for sr.buf.Len() == 0 {
		if sr.eof {
			return 0, io.EOF
		}
		if err := sr.fill(); err != nil {
			return 0, err
		}
	}
	return sr.buf.Read(p)
}

func (sr *streamingRewriter) fill() error {
	tmp := make([]byte, 64*1024)
	n, rerr := sr.br.Read(tmp)
	block := append(sr.carry[:len(sr.carry):len(sr.carry)], tmp[:n]...)
	block = bytes.ReplaceAll(block, sr.pat, sr.repl)

	switch {
	case rerr == io.EOF:
		sr.buf.Write(block)
		sr.carry = sr.carry[:0]
		sr.eof = true
		return nil
	case rerr != nil:
		return rerr
	}

	k := len(sr.pat) - 1
	if len(block) <= k {
		sr.carry = append(sr.carry[:0], block...)
		return nil
	}
	sr.buf.Write(block[:len(block)-k])
	sr.carry = append(sr.carry[:0], block[len(block)-k:]...)
	return nil
}
