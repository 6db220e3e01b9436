package tracking

import (
	"log"

	"github.com/google/uuid"
)

// Log writes runs to the standard logger.
type Log struct {
	logger *log.Logger
}

// NewLog creates a tracker writing to the standard logger.
func NewLog() Log {
	return Log{}
}

// NewLogTo creates a tracker writing to a logger.
func NewLogTo(l *log.Logger) Log {
	return Log{logger: l}
}

func (l Log) printf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

func (l Log) CreateRun(experiment string) (string, error) {
	id := uuid.New().String()
	l.printf("[tracking] created run %s of experiment %s\n", id, experiment)
	return id, nil
}

func (l Log) LogParam(runID, key, value string) error {
	l.printf("[tracking] %s param %s=%s\n", runID, key, value)
	return nil
}

func (l Log) LogMetric(runID, key string, value float64) error {
	l.printf("[tracking] %s metric %s=%s\n", runID, key, formatFloat(value))
	return nil
}
