package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/hscells/taxifare/config"
	"github.com/hscells/taxifare/faults"
)

// Configure reads the run configuration at path, or the defaults when path is empty, and then applies each of the
// key=value overrides in order.
func Configure(path string, overrides []string) (config.Run, error) {
	cfg := config.Defaults()
	if len(path) > 0 {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Run{}, err
		}
	}
	for _, o := range overrides {
		kv := strings.SplitN(o, "=", 2)
		if len(kv) != 2 {
			return config.Run{}, faults.Newf(faults.Configuration, "cmd", o, "%q is not key=value", o)
		}
		if err := cfg.Set(strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])); err != nil {
			return config.Run{}, err
		}
	}
	return cfg, nil
}

// Describe formats an error for a user, with its stack when debugging.
func Describe(err error, debug bool) string {
	if debug {
		return goerrors.Wrap(err, 1).ErrorStack()
	}
	if e, ok := faults.As(err); ok && len(e.Key) > 0 {
		return fmt.Sprintf("%v\n(check %s)", err, e.Key)
	}
	return err.Error()
}

// Fatal reports an error and exits.
func Fatal(err error, debug bool) {
	log.Println(Describe(err, debug))
	os.Exit(1)
}
