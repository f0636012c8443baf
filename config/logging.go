package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var debugWriter io.WriteCloser

// InitDebugLog enables DebugLog when ASSISTUI_DEBUG is set. The log file
// rotates at 10 MB and keeps three compressed backups.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")
	debugWriter = NewRotatingWriter(logPath)

	Debug = true
	DebugLog = log.New(debugWriter, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (ASSISTUI_DEBUG=%s) ===", os.Getenv("ASSISTUI_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

// CloseDebugLog flushes and closes the rotating log file, if one is open.
func CloseDebugLog() error {
	if debugWriter == nil {
		return nil
	}
	err := debugWriter.Close()
	debugWriter = nil
	Debug = false
	DebugLog = nil
	return err
}

// NewRotatingWriter returns a size-rotated file writer shared by the debug
// log and the telemetry exporters.
func NewRotatingWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// Logf writes to DebugLog when debug logging is enabled. The logged
// file:line is the caller's.
func Logf(format string, args ...any) {
	if Debug && DebugLog != nil {
		DebugLog.Output(2, fmt.Sprintf(format, args...))
	}
}
