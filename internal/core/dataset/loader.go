package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Load sniffs the payload and dispatches to the matching parser. The
// filename extension is only consulted when sniffing is inconclusive.
func Load(data []byte, filename string) (*Dataset, error) {
	mtype := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mtype.Is(mimeXLSX):
		return LoadXLSX(bytes.NewReader(data))
	case mtype.Is("text/tab-separated-values"), ext == ".tsv" && mtype.Is("text/plain"):
		return LoadTSV(bytes.NewReader(data))
	case mtype.Is("text/csv"):
		return LoadCSV(bytes.NewReader(data))
	case mtype.Is("application/zip") && ext == ".xlsx":
		return LoadXLSX(bytes.NewReader(data))
	case mtype.Is("text/plain") && (ext == ".csv" || ext == ".txt" || ext == ""):
		return LoadCSV(bytes.NewReader(data))
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
}

// LoadCSV parses comma separated text; the first record is the header
func LoadCSV(r io.Reader) (*Dataset, error) {
	return loadDelimited(r, ',')
}

// LoadTSV parses tab separated text
func LoadTSV(r io.Reader) (*Dataset, error) {
	return loadDelimited(r, '\t')
}

func loadDelimited(r io.Reader, comma rune) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// leading tabs would swallow empty TSV fields
	reader.TrimLeadingSpace = comma != '\t'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoColumns
	}

	return FromRecords(records[0], records[1:])
}

// LoadXLSX parses the first worksheet of a workbook
func LoadXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoColumns
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}

	return FromRecords(rows[0], rows[1:])
}
