package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hscells/taxifare/faults"
	"gonum.org/v1/gonum/mat"
)

// WriteLibSVM writes each row of X as a LIBSVM compatible line labelled with y. Feature ids start at one and zero
// features are omitted. A comment, when given for a row, is appended after a #.
func WriteLibSVM(writer io.Writer, X mat.Matrix, y []float64, comments ...string) error {
	r, c := X.Dims()
	if r != len(y) {
		return faults.Newf(faults.DataFormat, "output", "", "%d rows but %d labels", r, len(y))
	}
	w := bufio.NewWriter(writer)
	for i := 0; i < r; i++ {
		var line strings.Builder
		fmt.Fprintf(&line, "%v", y[i])
		for j := 0; j < c; j++ {
			if v := X.At(i, j); v != 0 {
				fmt.Fprintf(&line, " %d:%v", j+1, v)
			}
		}
		if i < len(comments) && len(comments[i]) > 0 {
			line.WriteString(" # " + comments[i])
		}
		line.WriteString("\n")
		if _, err := w.WriteString(line.String()); err != nil {
			return err
		}
	}
	return w.Flush()
}
