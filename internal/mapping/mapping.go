// Package mapping loads the CSV that renames folder groups. The file needs an
// original_folder_name and a new_folder_name column; every other column is
// ignored.
package mapping

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"renamezip/internal/errors"
	"renamezip/internal/log"
	"renamezip/pkg/types"

	"github.com/gabriel-vasile/mimetype"
)

// Default column headers
const (
	OriginalColumn = "original_folder_name"
	NewColumn      = "new_folder_name"
)

// sniffLen is how much of the source is inspected for its content type.
const sniffLen = 3072

// Parser reads a mapping source with configurable column names.
type Parser struct {
	OriginalColumn string
	NewColumn      string
}

// NewParser returns a parser for the given headers; empty names fall back
// to the defaults.
func NewParser(originalColumn, newColumn string) *Parser {
	if originalColumn == "" {
		originalColumn = OriginalColumn
	}
	if newColumn == "" {
		newColumn = NewColumn
	}
	return &Parser{OriginalColumn: originalColumn, NewColumn: newColumn}
}

// Parse reads a mapping with the default column headers.
func Parse(r io.Reader) (types.Mapping, error) {
	return NewParser("", "").Parse(r)
}

// Parse reads r as CSV. Any failure is an InvalidMappingSource error.
func (p *Parser) Parse(r io.Reader) (types.Mapping, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.NewMappingError("cannot read mapping source", 0, err)
	}
	if err := checkText(head); err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewMappingError("mapping source is empty", 0, nil)
	}
	if err != nil {
		return nil, errors.NewMappingError("malformed CSV header", 1, err)
	}

	origIdx, newIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch h {
		case p.OriginalColumn:
			origIdx = i
		case p.NewColumn:
			newIdx = i
		}
	}
	if origIdx < 0 || newIdx < 0 {
		return nil, errors.NewMappingError(
			"mapping requires columns "+p.OriginalColumn+" and "+p.NewColumn, 1, nil)
	}

	m := make(types.Mapping)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMappingError("malformed CSV row", parseErrorLine(err), err)
		}
		line, _ := cr.FieldPos(0)

		if origIdx >= len(record) {
			continue
		}
		original := strings.TrimSpace(record[origIdx])
		if original == "" {
			continue
		}
		renamed := ""
		if newIdx < len(record) {
			renamed = strings.TrimSpace(record[newIdx])
		}
		if renamed == "" {
			log.Debugf("mapping line %d: empty new name for %q, keeping original", line, original)
			continue
		}
		if prev, ok := m[original]; ok && prev != renamed {
			log.LogWithFields(log.F("line", line), log.F("folder", original)).
				Warnf("duplicate mapping entry, %q replaces %q", renamed, prev)
		}
		m[original] = renamed
	}

	return m, nil
}

func parseErrorLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

// checkText rejects binary sources such as images or archives.
func checkText(head []byte) error {
	if len(bytes.TrimSpace(head)) == 0 {
		return nil
	}
	mtype := mimetype.Detect(head)
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return errors.NewMappingError("mapping source is not a CSV file", 0,
		errors.Newf("detected %s", mtype.String()))
}

// LoadFile reads the mapping at path. Only .csv files are accepted.
func (p *Parser) LoadFile(path string) (types.Mapping, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return nil, errors.NewMappingError("mapping file must have a .csv extension", 0,
			errors.NewFileError("unsupported file", path, errors.InvalidPath, nil))
	}
	f, err := os.Open(path)
	if err != nil {
		kind := errors.FileOperationFailed
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		return nil, errors.NewMappingError("cannot open mapping file", 0,
			errors.NewFileError("open failed", path, kind, err))
	}
	defer f.Close()

	return p.Parse(f)
}

// LoadFile reads a mapping file with the default column headers.
func LoadFile(path string) (types.Mapping, error) {
	return NewParser("", "").LoadFile(path)
}
