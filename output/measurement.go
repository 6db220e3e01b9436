package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strconv"

	"github.com/hscells/taxifare/faults"
)

// Table holds one row of measurements per run, such as the trials of a grid search, in the order they rank.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is a named run and its value for each header of the table.
type Row struct {
	Run    string
	Values []float64
}

// Add appends a row to the table.
func (t *Table) Add(run string, values ...float64) {
	t.Rows = append(t.Rows, Row{Run: run, Values: values})
}

// MeasurementFormatter outputs a table of measurements.
type MeasurementFormatter func(t Table) (string, error)

// MeasurementFormats names the measurement formatters.
var MeasurementFormats = map[string]MeasurementFormatter{
	"json": JsonMeasurementFormatter,
	"csv":  CsvMeasurementFormatter,
}

// MeasurementFormat looks up the measurement formatter for a name.
func MeasurementFormat(name string) (MeasurementFormatter, error) {
	if f, ok := MeasurementFormats[name]; ok {
		return f, nil
	}
	return nil, faults.Newf(faults.Configuration, "output", "format", "unknown output format %q", name)
}

type jsonRow struct {
	Rank   int                 `json:"rank"`
	Run    string              `json:"run"`
	Values map[string]*float64 `json:"values"`
}

// JsonMeasurementFormatter outputs the rows as a ranked JSON array. Values which are not finite, like the score of
// a failed trial, are null.
func JsonMeasurementFormatter(t Table) (string, error) {
	rows := make([]jsonRow, len(t.Rows))
	for j, row := range t.Rows {
		rows[j] = jsonRow{Rank: j + 1, Run: row.Run, Values: make(map[string]*float64, len(t.Headers))}
		for i, header := range t.Headers {
			rows[j].Values[header] = nil
			if i < len(row.Values) && !math.IsInf(row.Values[i], 0) && !math.IsNaN(row.Values[i]) {
				v := row.Values[i]
				rows[j].Values[header] = &v
			}
		}
	}

	v, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvMeasurementFormatter outputs the table in CSV format with the run as the first column.
func CsvMeasurementFormatter(t Table) (string, error) {
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	if err := w.Write(append([]string{"run"}, t.Headers...)); err != nil {
		return "", err
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Headers)+1)
		record[0] = row.Run
		for i := range t.Headers {
			if i < len(row.Values) {
				record[i+1] = strconv.FormatFloat(row.Values[i], 'f', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
