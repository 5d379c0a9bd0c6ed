//go:build !windows
// +build !windows

package main

import (
	"os"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/utils"
)

// handlePlatformSignal services the Unix-only maintenance signals
func handlePlatformSignal(sig os.Signal, appLogger *utils.Logger) {
	switch sig {
	case syscall.SIGUSR1:
		appLogger.Server("Received SIGUSR1, reopening log files")
		if err := appLogger.RotateLogs(); err != nil {
			appLogger.Error("Failed to rotate logs: %v", err)
		}

	case syscall.SIGUSR2:
		if gin.Mode() == gin.DebugMode {
			gin.SetMode(gin.ReleaseMode)
			appLogger.Server("Debug mode off")
		} else {
			gin.SetMode(gin.DebugMode)
			appLogger.Server("Debug mode on")
		}
	}
}
