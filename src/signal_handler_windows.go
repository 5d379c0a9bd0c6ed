//go:build windows
// +build windows

package main

import (
	"os"

	"github.com/apimgr/tripplanner/src/utils"
)

// handlePlatformSignal is a no-op on Windows; only SIGINT/SIGTERM are
// serviced there
func handlePlatformSignal(_ os.Signal, _ *utils.Logger) {
}
