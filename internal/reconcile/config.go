package reconcile

import (
	"errors"
	"strings"

	"silorecon/internal/transformer/builtin"
)

// Config names the columns the transform reads and writes and the rules it
// applies. DefaultConfig matches the warehouse task export.
type Config struct {
	// Task extract columns.
	ProcessTypeColumn string
	ProductColumn     string
	BinColumn         string
	DateColumn        string
	TimeColumn        string

	// Mapping extract columns.
	MappingBinColumn     string
	MappingProductColumn string

	// Output columns appended to every task row.
	ExpectedProductColumn string
	UsageLabelColumn      string

	// Filter rules.
	ProcessType string
	BinPrefixes []string
	BinExact    []string

	// Layouts for the date and time columns, in Go reference-time form.
	DateLayout string
	TimeLayout string

	CorrectLabel string
	WrongLabel   string
}

// DefaultConfig returns the stock column names and rules.
func DefaultConfig() Config {
	return Config{
		ProcessTypeColumn:     "Whse Process Type",
		ProductColumn:         "Product",
		BinColumn:             "Destination Bin",
		DateColumn:            "Confirmation Date",
		TimeColumn:            "Confirmation Time",
		MappingBinColumn:      "EWM BIN",
		MappingProductColumn:  "SAP#",
		ExpectedProductColumn: "expected_product",
		UsageLabelColumn:      "usage_label",
		ProcessType:           "9999",
		BinPrefixes:           []string{"S", "DECAF"},
		BinExact:              []string{"COLDBREW"},
		DateLayout:            builtin.DefaultDateLayout,
		TimeLayout:            builtin.DefaultTimeLayout,
		CorrectLabel:          "Correct usage",
		WrongLabel:            "Wrong usage",
	}
}

// WithDefaults fills every empty field of c from DefaultConfig. Bin rules
// are defaulted only when both lists are empty.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	set := func(dst *string, def string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = def
		}
	}
	set(&c.ProcessTypeColumn, d.ProcessTypeColumn)
	set(&c.ProductColumn, d.ProductColumn)
	set(&c.BinColumn, d.BinColumn)
	set(&c.DateColumn, d.DateColumn)
	set(&c.TimeColumn, d.TimeColumn)
	set(&c.MappingBinColumn, d.MappingBinColumn)
	set(&c.MappingProductColumn, d.MappingProductColumn)
	set(&c.ExpectedProductColumn, d.ExpectedProductColumn)
	set(&c.UsageLabelColumn, d.UsageLabelColumn)
	set(&c.ProcessType, d.ProcessType)
	set(&c.DateLayout, d.DateLayout)
	set(&c.TimeLayout, d.TimeLayout)
	set(&c.CorrectLabel, d.CorrectLabel)
	set(&c.WrongLabel, d.WrongLabel)
	if len(c.BinPrefixes) == 0 && len(c.BinExact) == 0 {
		c.BinPrefixes = d.BinPrefixes
		c.BinExact = d.BinExact
	}
	return c
}

// Validate reports configuration mistakes that would make every run fail or
// silently produce wrong output.
func (c Config) Validate() error {
	var errs []error
	if c.ExpectedProductColumn == c.UsageLabelColumn {
		errs = append(errs, errors.New("expected_product_column and usage_label_column must differ"))
	}
	if c.CorrectLabel == c.WrongLabel {
		errs = append(errs, errors.New("correct_label and wrong_label must differ"))
	}
	for _, p := range c.BinPrefixes {
		if p == "" {
			errs = append(errs, errors.New("bin_prefixes must not contain an empty prefix"))
			break
		}
	}
	return errors.Join(errs...)
}

func (c Config) taskColumns() []string {
	return []string{c.ProcessTypeColumn, c.ProductColumn, c.BinColumn, c.DateColumn, c.TimeColumn}
}

func (c Config) mappingColumns() []string {
	return []string{c.MappingBinColumn, c.MappingProductColumn}
}
