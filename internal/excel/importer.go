// Package excel reads course catalogues from .xlsx and .csv files.
package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/studybot/internal/textutil"
	"github.com/example/studybot/pkg/models"
)

// MaxFileSize is the largest catalogue accepted from a chat upload
const MaxFileSize = 5 << 20

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	CourseColumn      string
	DescriptionColumn string
	WeekColumn        string
	TopicColumn       string
	SheetName         string // Empty means the first sheet
	StartRow          int    // 1-based, rows before it are headers
}

// DefaultImportConfig returns the default import configuration:
// A=course, B=description, C=week, D=topic, one header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		CourseColumn:      "A",
		DescriptionColumn: "B",
		WeekColumn:        "C",
		TopicColumn:       "D",
		StartRow:          2,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Courses        []models.CourseSpec
	TotalProcessed int
	Skipped        int
	Errors         []string
}

// TopicCount is the number of topics across all parsed courses
func (r *ImportResult) TopicCount() int {
	n := 0
	for _, c := range r.Courses {
		n += len(c.Topics)
	}
	return n
}

// ImportCourses reads the catalogue at config.FilePath
func ImportCourses(config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ImportReader(f, filepath.Base(config.FilePath), config)
}

// ImportReader reads a catalogue from r. The format is chosen by the
// extension of name.
func ImportReader(r io.Reader, name string, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = readExcel(r, config.SheetName)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	return parseRows(rows, config), nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if bytes.Count(data, []byte(";")) > bytes.Count(data, []byte(",")) {
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

type topicRow struct {
	title string
	week  int
}

type courseAcc struct {
	spec   models.CourseSpec
	topics []topicRow
}

func parseRows(rows [][]string, config ImportConfig) *ImportResult {
	result := &ImportResult{Errors: make([]string, 0)}

	var order []string
	courses := make(map[string]*courseAcc)

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow || isBlank(row) {
			continue
		}
		result.TotalProcessed++

		course := cell(row, config.CourseColumn)
		topic := cell(row, config.TopicColumn)
		if course == "" || topic == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: course and topic are required", rowNum))
			continue
		}

		key := textutil.Fold(course)
		acc, ok := courses[key]
		if !ok {
			acc = &courseAcc{spec: models.CourseSpec{Name: course}}
			courses[key] = acc
			order = append(order, key)
		}
		if acc.spec.Description == "" {
			acc.spec.Description = cell(row, config.DescriptionColumn)
		}

		if hasTopic(acc.topics, topic) {
			result.Skipped++
			continue
		}

		week := len(acc.topics) + 1
		if raw := cell(row, config.WeekColumn); raw != "" {
			w, err := strconv.Atoi(raw)
			if err != nil || w < 1 {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid week %q", rowNum, raw))
			} else {
				week = w
			}
		}
		acc.topics = append(acc.topics, topicRow{title: topic, week: week})
	}

	for _, key := range order {
		acc := courses[key]
		sort.SliceStable(acc.topics, func(i, j int) bool {
			return acc.topics[i].week < acc.topics[j].week
		})
		for _, t := range acc.topics {
			acc.spec.Topics = append(acc.spec.Topics, t.title)
			acc.spec.Weeks = append(acc.spec.Weeks, t.week)
		}
		result.Courses = append(result.Courses, acc.spec)
	}
	return result
}

func hasTopic(topics []topicRow, title string) bool {
	for _, t := range topics {
		if textutil.EqualFold(t.title, title) {
			return true
		}
	}
	return false
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
