// Command olivecanopy evaluates the olive canopy interception and
// transpiration models for one site-day from the command line.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Debug(err)
		os.Exit(1)
	}
}
