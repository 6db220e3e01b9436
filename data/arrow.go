package data

import (
	"io"
	"path"
	"strings"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/pkg/errors"
)

// ArrowExtension marks a batch stored as an Arrow IPC stream.
const ArrowExtension = ".arrow"

// IsArrow reports whether a path or URL names an Arrow IPC stream.
func IsArrow(name string) bool {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.EqualFold(path.Ext(name), ArrowExtension)
}

// ReadArrow reads at most nrows records of an Arrow IPC stream. A non-positive nrows reads every record.
func ReadArrow(r io.Reader, nrows int) (*frame.Frame, error) {
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(frame.Pool))
	if err != nil {
		return nil, faults.New(faults.DataLoad, "load", "arrow", errors.Wrap(err, "reading schema"))
	}
	defer rdr.Release()

	var batches []*frame.Frame
	n := 0
	for rdr.Next() && (nrows <= 0 || n < nrows) {
		f, err := frame.FromRecord(rdr.Record())
		if err != nil {
			return nil, err
		}
		if nrows > 0 && n+f.Len() > nrows {
			f = f.Head(nrows - n)
		}
		n += f.Len()
		batches = append(batches, f)
	}
	if err := rdr.Err(); err != nil && err != io.EOF {
		return nil, faults.New(faults.DataFormat, "load", "arrow", err)
	}
	if len(batches) == 0 {
		return frame.FromSchema(rdr.Schema())
	}
	return frame.Concat(batches...)
}

// WriteArrow writes a batch as an Arrow IPC stream of one record.
func WriteArrow(w io.Writer, f *frame.Frame) error {
	rec := f.Record(frame.Pool)
	defer rec.Release()
	wr := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(frame.Pool))
	if err := wr.Write(rec); err != nil {
		return errors.Wrap(err, "writing arrow record")
	}
	return errors.Wrap(wr.Close(), "closing arrow stream")
}
