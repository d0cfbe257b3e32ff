package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Test logs are only written when running verbosely.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v=true" || arg == "-test.v" {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// DisableLogging silences the standard logger until reset is called.
func DisableLogging() (reset func()) {
	originalLogOutput := logrus.StandardLogger().Out
	logrus.StandardLogger().Out = io.Discard
	return func() {
		logrus.StandardLogger().Out = originalLogOutput
	}
}
