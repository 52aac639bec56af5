package csv_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"silorecon/internal/config"
	pcsv "silorecon/internal/parser/csv"
)

const tasksCSV = "\uFEFFWhse Process Type,Product,Destination Bin,Confirmation Date,Confirmation Time\n" +
	"9999, COFFEE1 ,S01,01/02/2024,08:00:00 AM\n" +
	"9999,,DECAF2,01/03/2024,09:30:00 PM\n" +
	"broken,row\n" +
	",,,,\n" +
	"1000,TEA,X01,01/04/2024,10:00:00 AM\n"

func TestParse_TasksExport(t *testing.T) {
	p := pcsv.NewParser(pcsv.Options{HasHeader: true, TrimSpace: true})

	res, err := p.Parse(strings.NewReader(tasksCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Whse Process Type", "Product", "Destination Bin", "Confirmation Date", "Confirmation Time"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "COFFEE1", res.Rows[0]["Product"])
	assert.Nil(t, res.Rows[1]["Product"])
	assert.Equal(t, "X01", res.Rows[2]["Destination Bin"])
}

func TestParse_HeaderMapAndLower(t *testing.T) {
	p := pcsv.NewParser(pcsv.Options{
		HasHeader:    true,
		Comma:        ';',
		LowerHeaders: true,
		HeaderMap:    map[string]string{"EWM BIN": "EWM BIN"},
	})

	res, err := p.Parse(strings.NewReader("EWM BIN;SAP Number\nS01;COFFEE1\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"EWM BIN", "sap_number"}, res.Columns)
	assert.Equal(t, "COFFEE1", res.Rows[0]["sap_number"])
}

func TestParse_NoHeader(t *testing.T) {
	p := pcsv.NewParser(pcsv.Options{ExpectedFields: 2})

	res, err := p.Parse(strings.NewReader("S01,COFFEE1\nS02\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"col_0", "col_1"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "COFFEE1", res.Rows[0]["col_1"])
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := pcsv.NewParser(pcsv.Options{HasHeader: true}).Parse(strings.NewReader(""))
	assert.ErrorContains(t, err, "read csv header")
}

func TestParse_Encoding(t *testing.T) {
	raw, err := charmap.Windows1252.NewEncoder().String("EWM BIN,SAP#\nS01,Café\n")
	require.NoError(t, err)

	p := pcsv.NewParser(pcsv.Options{HasHeader: true, Encoding: "windows-1252"})
	res, err := p.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Café", res.Rows[0]["SAP#"])

	_, err = pcsv.NewParser(pcsv.Options{HasHeader: true, Encoding: "no-such-charset"}).Parse(strings.NewReader(raw))
	assert.Error(t, err)
}

func TestParse_ReplaceAcrossReads(t *testing.T) {
	// 13 header bytes + 4 + 4077 puts the broken sequence across the 4096
	// byte read boundary.
	var b bytes.Buffer
	b.WriteString("Product,Note\n")
	b.WriteString("P1,\"" + strings.Repeat("x", 4077) + " \"bad\"\n")

	p := pcsv.NewParser(pcsv.Options{
		HasHeader: true,
		Replace:   map[string]string{` "bad"`: ` (bad)"`},
	})
	res, err := p.Parse(&smallReads{r: &b})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Zero(t, res.Skipped)
	assert.True(t, strings.HasSuffix(res.Rows[0]["Note"].(string), " (bad)"))
}

type smallReads struct{ r io.Reader }

func (s *smallReads) Read(p []byte) (int, error) {
	if len(p) > 4096 {
		p = p[:4096]
	}
	return s.r.Read(p)
}

func TestOptionsFrom(t *testing.T) {
	opt := pcsv.OptionsFrom(config.Options{
		"comma":      ";",
		"encoding":   "utf-8",
		"header_map": map[string]any{"Bin": "EWM BIN"},
		"trim_space": false,
	})
	assert.True(t, opt.HasHeader)
	assert.False(t, opt.TrimSpace)
	assert.Equal(t, ';', opt.Comma)
	assert.Equal(t, "utf-8", opt.Encoding)
	assert.Equal(t, "EWM BIN", opt.HeaderMap["Bin"])
}

func TestStripHeaderBOM(t *testing.T) {
	got := pcsv.StripHeaderBOM([]string{"\uFEFFEWM BIN", "SAP#"})
	assert.Equal(t, []string{"EWM BIN", "SAP#"}, got)
	assert.Empty(t, pcsv.StripHeaderBOM(nil))
}
