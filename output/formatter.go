// Package output formats the results of training runs: metric reports, Kaggle style submissions and feature dumps.
package output

import (
	"sort"

	"github.com/hscells/taxifare/faults"
)

// Formats names the report formatters.
var Formats = map[string]EvaluationFormatter{
	"json": JsonEvaluationFormatter,
	"csv":  CsvEvaluationFormatter,
}

// Format looks up the report formatter for a name.
func Format(name string) (EvaluationFormatter, error) {
	if f, ok := Formats[name]; ok {
		return f, nil
	}
	return nil, faults.Newf(faults.Configuration, "output", "format", "unknown output format %q", name)
}

func sortedKeys(m map[string]map[string]float64) (rows, cols []string) {
	seen := make(map[string]bool)
	for row, metrics := range m {
		rows = append(rows, row)
		for col := range metrics {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(rows)
	sort.Strings(cols)
	return
}
