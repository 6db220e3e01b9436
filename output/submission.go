package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hscells/taxifare/faults"
	"github.com/pkg/errors"
)

// SubmissionHeader is the header of a Kaggle submission.
var SubmissionHeader = []string{"key", "fare_amount"}

// WriteSubmission writes the predicted fare of every key as a Kaggle submission.
func WriteSubmission(w io.Writer, keys []string, fares []float64) error {
	if len(keys) != len(fares) {
		return faults.Newf(faults.DataFormat, "output", "key", "%d keys but %d predictions", len(keys), len(fares))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(SubmissionHeader); err != nil {
		return errors.Wrap(err, "writing submission header")
	}
	for i, key := range keys {
		if err := cw.Write([]string{key, strconv.FormatFloat(fares[i], 'f', -1, 64)}); err != nil {
			return errors.Wrap(err, fmt.Sprintf("writing submission row %d", i+1))
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing submission")
}
