package sssom

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	mapping "github.com/culturemech/culturemech/internal/domain/mapping"
	"github.com/culturemech/culturemech/pkg/errors"
)

const headerCommentPrefix = "# "

// Load reads a mapping set from path. It tolerates the one known legacy
// shape: a TSV header missing the mapping_method column, in which case
// every row's MappingMethod is left empty.
func Load(path string) (*MappingSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "open mapping set")
	}
	defer f.Close()

	var headerLines []string
	var bodyLines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader && strings.HasPrefix(line, "#") {
			headerLines = append(headerLines, strings.TrimPrefix(strings.TrimPrefix(line, "#"), " "))
			continue
		}
		inHeader = false
		if strings.TrimSpace(line) == "" {
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "scan mapping set")
	}

	ms := &MappingSet{}
	if len(headerLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(headerLines, "\n")), &ms.Header); err != nil {
			return nil, errors.Wrap(err, errors.CodeSSSOMParseError, "parse mapping set header")
		}
	}
	if len(bodyLines) == 0 {
		return ms, nil
	}

	r := csv.NewReader(strings.NewReader(strings.Join(bodyLines, "\n")))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSSSOMParseError, "parse mapping set body")
	}
	if len(records) == 0 {
		return ms, nil
	}

	columns := records[0]
	colIndex := make(map[string]int, len(columns))
	for i, name := range columns {
		colIndex[name] = i
	}
	for _, name := range columns {
		known := false
		for _, fc := range fixedColumns {
			if fc == name {
				known = true
				break
			}
		}
		if !known {
			ms.ExtraColumns = append(ms.ExtraColumns, name)
		}
	}

	for _, rec := range records[1:] {
		row, err := parseRow(rec, colIndex, ms.ExtraColumns)
		if err != nil {
			return nil, err
		}
		ms.Rows = append(ms.Rows, row)
	}
	return ms, nil
}

func field(rec []string, colIndex map[string]int, name string) (string, bool) {
	idx, ok := colIndex[name]
	if !ok || idx >= len(rec) {
		return "", false
	}
	return rec[idx], true
}

func parseRow(rec []string, colIndex map[string]int, extraCols []string) (Row, error) {
	subjectID, _ := field(rec, colIndex, "subject_id")
	subjectLabel, _ := field(rec, colIndex, "subject_label")
	predicateID, _ := field(rec, colIndex, "predicate_id")
	objectID, _ := field(rec, colIndex, "object_id")
	objectLabel, _ := field(rec, colIndex, "object_label")
	justification, _ := field(rec, colIndex, "mapping_justification")
	confidenceRaw, _ := field(rec, colIndex, "confidence")
	tool, _ := field(rec, colIndex, "mapping_tool")
	method, hasMethod := field(rec, colIndex, "mapping_method")
	dateRaw, _ := field(rec, colIndex, "mapping_date")
	comment, _ := field(rec, colIndex, "comment")

	var confidence float64
	if strings.TrimSpace(confidenceRaw) != "" {
		var err error
		confidence, err = strconv.ParseFloat(confidenceRaw, 64)
		if err != nil {
			return Row{}, errors.Wrap(err, errors.CodeSSSOMParseError,
				fmt.Sprintf("parse confidence for subject %q", subjectID))
		}
	}

	var mappingDate time.Time
	if strings.TrimSpace(dateRaw) != "" {
		var err error
		mappingDate, err = time.Parse(time.RFC3339, dateRaw)
		if err != nil {
			return Row{}, errors.Wrap(err, errors.CodeSSSOMParseError,
				fmt.Sprintf("parse mapping_date for subject %q", subjectID))
		}
	}

	if !hasMethod {
		method = ""
	}

	m := mapping.SSSOMMapping{
		SubjectID:            subjectID,
		SubjectLabel:         subjectLabel,
		PredicateID:          mapping.Predicate(predicateID),
		ObjectID:             objectID,
		ObjectLabel:          objectLabel,
		MappingJustification: mapping.Justification(justification),
		Confidence:           confidence,
		MappingTool:          tool,
		MappingMethod:        mapping.Method(method),
		MappingDate:          mappingDate,
		Comment:              comment,
	}

	row := Row{Mapping: m}
	if len(extraCols) > 0 {
		row.Extra = make(map[string]string, len(extraCols))
		for _, col := range extraCols {
			if v, ok := field(rec, colIndex, col); ok {
				row.Extra[col] = v
			}
		}
	}
	return row, nil
}

// Save writes the mapping set atomically (temp file + rename), sorting rows
// by (mapped DESC, confidence DESC, subject_id ASC).
func (ms *MappingSet) Save(path string) error {
	sorted := make([]Row, len(ms.Rows))
	copy(sorted, ms.Rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Mapping, sorted[j].Mapping
		aMapped := a.PredicateID != mapping.PredicateUnmapped
		bMapped := b.PredicateID != mapping.PredicateUnmapped
		if aMapped != bMapped {
			return aMapped
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.SubjectID < b.SubjectID
	})

	headerYAML, err := yaml.Marshal(ms.Header)
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "marshal mapping set header")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "create mapping set directory")
	}
	tmp, err := os.CreateTemp(dir, ".sssom-*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "create temp mapping set file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	for _, line := range strings.Split(strings.TrimRight(string(headerYAML), "\n"), "\n") {
		if _, err := fmt.Fprintf(w, "%s%s\n", headerCommentPrefix, line); err != nil {
			tmp.Close()
			return errors.Wrap(err, errors.CodeStorageError, "write mapping set header")
		}
	}

	columns := append(append([]string{}, fixedColumns...), ms.ExtraColumns...)
	csvw := csv.NewWriter(w)
	csvw.Comma = '\t'
	if err := csvw.Write(columns); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeStorageError, "write mapping set column header")
	}
	for _, row := range sorted {
		record := make([]string, 0, len(columns))
		for _, col := range fixedColumns {
			if col == "confidence" {
				record = append(record, strconv.FormatFloat(row.Mapping.Confidence, 'f', -1, 64))
				continue
			}
			record = append(record, rowValue(row.Mapping, col))
		}
		for _, col := range ms.ExtraColumns {
			record = append(record, row.Extra[col])
		}
		if err := csvw.Write(record); err != nil {
			tmp.Close()
			return errors.Wrap(err, errors.CodeStorageError, "write mapping set row")
		}
	}
	csvw.Flush()
	if err := csvw.Error(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeStorageError, "flush mapping set rows")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeStorageError, "flush mapping set writer")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "close temp mapping set file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "rename mapping set into place")
	}
	return nil
}
