// Package roster imports student rosters from CSV and XLSX files.
//
// Imports are partial: rows that cannot be parsed, fail validation or duplicate an
// existing student are skipped and reported, the rest are saved in one write.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

var (
	ErrMissingName   = errors.New("missing required column: name")
	ErrEmptyFile     = errors.New("the file is empty")
	ErrNoSheets      = errors.New("the workbook does not contain any sheets")
	ErrUnknownFormat = errors.New("unsupported file type, expected .csv or .xlsx")
)

type Options struct {
	// Group is used for rows without a group. Defaults to student.DefaultGroup.
	Group string `json:"group" form:"group" query:"group"`
}

// RowError explains why a row was skipped. Row is the 1-based line in the file, header included.
type RowError struct {
	Row    int    `json:"row"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

type Result struct {
	Total    int               `json:"total"`
	Imported int               `json:"imported"`
	Skipped  int               `json:"skipped"`
	Students []student.Student `json:"students"`
	Errors   []RowError        `json:"errors"`
}

type Importer struct {
	svc      student.Service
	validate *validator.Validate
	logger   core.Logger
}

func NewImporter(svc student.Service, validate *validator.Validate, logger core.Logger) *Importer {
	return &Importer{svc: svc, validate: validate, logger: logger}
}

// ImportFile picks the parser from the file name extension.
func (imp *Importer) ImportFile(ctx context.Context, filename string, r io.Reader, opts Options) (Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return imp.ImportCSV(ctx, r, opts)
	case ".xlsx", ".xlsm":
		return imp.ImportXLSX(ctx, r, opts)
	}
	return Result{}, core.NewValidationError(ErrUnknownFormat, core.FieldError{Field: "file", Error: ErrUnknownFormat.Error()})
}

func (imp *Importer) ImportCSV(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1
	rdr.TrimLeadingSpace = true
	rdr.LazyQuotes = true

	// blank lines are dropped by the reader, so keep each record's line for error reports
	var records [][]string
	var lines []int
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, core.NewValidationError(errors.Wrap(err, "reading csv"))
		}
		line, _ := rdr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return imp.importRecords(ctx, records, lines, opts)
}

func (imp *Importer) ImportXLSX(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, core.NewValidationError(errors.Wrap(err, "opening workbook"))
	}
	defer func() {
		if err := f.Close(); err != nil {
			imp.logger.Warn("closing workbook", err)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Result{}, core.NewValidationError(ErrNoSheets)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	return imp.importRecords(ctx, rows, nil, opts)
}

// importRecords imports every row after the header. lines holds the file line of each record; nil means records are consecutive rows.
func (imp *Importer) importRecords(ctx context.Context, records [][]string, lines []int, opts Options) (Result, error) {
	if lines == nil {
		lines = make([]int, len(records))
		for i := range lines {
			lines[i] = i + 1
		}
	}
	// skip leading blank lines
	for len(records) > 0 && isBlank(records[0]) {
		records, lines = records[1:], lines[1:]
	}
	if len(records) == 0 {
		return Result{}, core.NewValidationError(ErrEmptyFile)
	}

	cols := matchHeaders(records[0])
	if !cols.hasName() {
		return Result{}, core.NewValidationError(ErrMissingName, core.FieldError{Field: "file", Error: ErrMissingName.Error()})
	}

	defaultGroup := core.CleanString(opts.Group)
	if defaultGroup == "" {
		defaultGroup = student.DefaultGroup
	}

	existing, err := imp.svc.QueryAll(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "loading roster")
	}

	res := Result{Students: []student.Student{}, Errors: []RowError{}}
	accepted := make([]student.NewStudent, 0, len(records)-1)
	skip := func(row int, name, reason string) {
		res.Errors = append(res.Errors, RowError{Row: row, Name: name, Reason: reason})
		res.Skipped++
	}

	for i, rec := range records[1:] {
		row := lines[i+1]
		if isBlank(rec) {
			continue
		}
		res.Total++

		ns, err := parseRow(rec, cols, defaultGroup)
		if err != nil {
			skip(row, ns.Name, err.Error())
			continue
		}
		if err := ns.Validate(ctx, imp.validate, nil); err != nil {
			skip(row, ns.Name, describe(err))
			continue
		}
		if isDuplicate(ns, existing, accepted) {
			skip(row, ns.Name, "duplicate of an existing student")
			continue
		}
		accepted = append(accepted, ns)
	}

	if len(accepted) > 0 {
		created, err := imp.svc.CreateMany(ctx, accepted...)
		if err != nil {
			return Result{}, errors.Wrap(err, "saving students")
		}
		res.Students = created
		res.Imported = len(created)
	}
	if res.Skipped > 0 {
		imp.logger.Info(fmt.Sprintf("roster import: %d imported, %d skipped", res.Imported, res.Skipped))
	}
	return res, nil
}

func parseRow(rec []string, cols columns, defaultGroup string) (student.NewStudent, error) {
	ns := student.NewStudent{
		Name:        cols.name(rec),
		Group:       cols.value(rec, FieldGroup),
		TargetGrade: student.DefaultTargetGrade,
	}
	if ns.Name == "" {
		return ns, errors.New("name is blank")
	}
	if ns.Group == "" {
		ns.Group = defaultGroup
	}
	if raw := cols.value(rec, FieldTarget); raw != "" {
		g, err := parseTarget(raw)
		if err != nil {
			return ns, err
		}
		ns.TargetGrade = g
	}
	ns.CandidateNumber = optionalString(cols.value(rec, FieldCandidateNumber))
	ns.Gender = optionalString(cols.value(rec, FieldGender))
	ns.SEN = optionalString(cols.value(rec, FieldSEN))
	ns.PupilPremium = parseFlag(cols.value(rec, FieldPupilPremium))
	ns.EAL = parseFlag(cols.value(rec, FieldEAL))
	return ns, nil
}

// parseTarget reads the first number in s ("6", "6+", "Grade 7").
func parseTarget(s string) (grade.Grade, error) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return grade.U, errors.Errorf("invalid target grade %q", s)
	}
	end := start
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil || grade.Grade(n) < grade.Min || grade.Grade(n) > grade.Max {
		return grade.U, errors.Errorf("invalid target grade %q", s)
	}
	return grade.Grade(n), nil
}

// normalizeName turns "Surname, Forename" into "Forename Surname".
func normalizeName(s string) string {
	s = student.CleanName(s)
	if parts := strings.SplitN(s, ",", 2); len(parts) == 2 {
		surname, forename := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if surname != "" && forename != "" {
			return forename + " " + surname
		}
	}
	return s
}

func parseFlag(s string) *bool {
	var v bool
	switch strings.ToLower(s) {
	case "y", "yes", "true", "1", "x":
		v = true
	case "n", "no", "false", "0":
		v = false
	default:
		return nil
	}
	return &v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func isDuplicate(ns student.NewStudent, existing []student.Student, accepted []student.NewStudent) bool {
	for _, s := range existing {
		if s.SameAs(ns.Name, ns.Group) {
			return true
		}
	}
	for _, a := range accepted {
		if strings.EqualFold(a.Name, ns.Name) && strings.EqualFold(a.Group, ns.Group) {
			return true
		}
	}
	return false
}

// describe flattens a validation error into one line.
func describe(err error) string {
	if vErrs, ok := err.(validator.ValidationErrors); ok && len(vErrs) > 0 {
		return fmt.Sprintf("invalid %s", vErrs[0].Field())
	}
	return err.Error()
}
