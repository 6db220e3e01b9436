package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
)

// EvaluationFormatter renders the metrics of each split of a run.
type EvaluationFormatter func(map[string]map[string]float64) (string, error)

// JsonEvaluationFormatter outputs results in a JSON format.
func JsonEvaluationFormatter(results map[string]map[string]float64) (string, error) {
	v, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// CsvEvaluationFormatter outputs one row per split and one column per metric, both in sorted order. A metric a split
// does not have is left empty.
func CsvEvaluationFormatter(results map[string]map[string]float64) (string, error) {
	splits, metrics := sortedKeys(results)
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	if err := w.Write(append([]string{"split"}, metrics...)); err != nil {
		return "", err
	}
	for _, split := range splits {
		record := []string{split}
		for _, metric := range metrics {
			v, ok := results[split][metric]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
