// Package common provides the shared logging infrastructure for the kotosiro
// services. The global Logger routes error-level output to stderr and
// everything else to stdout so containerized deployments can treat the two
// streams differently.
package common

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stderr or stdout based on
// their severity level. It works on the final formatted output, so it is
// compatible with both the text and JSON formatters.
type OutputSplitter struct{}

// Write sends error-level lines to stderr and everything else to stdout.
func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte(`level=error`)) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the global logger instance shared by all kotosiro components.
// SetupLogging reconfigures it from the runtime configuration; until then it
// logs at info level in text format.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetupLogging configures the global Logger. useJSON selects the JSON
// formatter for machine-readable output; filter is a logrus level name
// ("trace" through "fatal") naming the minimum level to emit. An empty filter
// keeps the info default.
func SetupLogging(useJSON bool, filter string) error {
	if useJSON {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if filter == "" {
		Logger.SetLevel(logrus.InfoLevel)
		return nil
	}
	level, err := logrus.ParseLevel(filter)
	if err != nil {
		return fmt.Errorf("invalid log filter %q: %w", filter, err)
	}
	Logger.SetLevel(level)
	return nil
}
