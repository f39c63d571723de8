// Package importers parses per-platform export files (bank CSVs, payment-app
// CSV/JSON exports) into normalized transaction records. Importers are thin
// collaborators of the matching engine: they never match, merge, or
// categorize.
package importers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/liuming-dev/ledgerlink/internal/domain/model"
)

// Importer converts one platform's export files into normalized records.
type Importer interface {
	// Platform tags every record the importer emits.
	Platform() model.Platform

	// AccountName is the ledger account transactions post against.
	AccountName() string

	// Identify reports whether this importer can handle the given file.
	Identify(path string) bool

	// Extract parses the file into normalized records. Row-level problems
	// skip the row; only file-level problems return an error.
	Extract(path string) ([]model.Transaction, error)
}

// Identify walks the registered importers and returns the first that claims
// the file, mirroring how export files arrive without reliable names.
func Identify(importers []Importer, path string) (Importer, bool) {
	for _, imp := range importers {
		if imp.Identify(path) {
			return imp, true
		}
	}
	return nil, false
}

// readFile loads a file and decodes it to UTF-8. Chinese platform exports
// commonly ship as GB18030 or GBK; valid UTF-8 passes through untouched.
func readFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw = stripBOM(raw)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, enc := range []struct {
		name    string
		decoder interface{ Bytes([]byte) ([]byte, error) }
	}{
		{"gb18030", simplifiedchinese.GB18030.NewDecoder()},
		{"gbk", simplifiedchinese.GBK.NewDecoder()},
	} {
		decoded, err := enc.decoder.Bytes(raw)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%s: cannot decode file as UTF-8, GB18030, or GBK", filepath.Base(path))
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\uFEFF"))
}

// headLines returns the first n lines of content, for header sniffing.
func headLines(content string, n int) string {
	lines := strings.SplitN(content, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// csvRows parses CSV content starting at the line whose first cell begins
// with headerPrefix, returning one map per data row keyed by trimmed header
// names. Platforms prepend a variable number of metadata lines before the
// real header, so the header is discovered rather than assumed.
func csvRows(content, headerPrefix string) ([]map[string]string, error) {
	lines := strings.Split(content, "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), headerPrefix) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("header line starting with %q not found", headerPrefix)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[headerIdx:], "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		empty := true
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			row[header[i]] = v
			if v != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// firstOf returns the first non-empty value among the named columns.
func firstOf(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// cleanAmount strips currency symbols and thousands separators.
func cleanAmount(s string) string {
	r := strings.NewReplacer("¥", "", "￥", "", "HK$", "", ",", "")
	return strings.TrimSpace(r.Replace(s))
}
