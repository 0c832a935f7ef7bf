package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newRotatingWriter opens a lumberjack-backed writer for the file output.
func newRotatingWriter(out *FileOutput) (io.WriteCloser, error) {
	if out == nil || out.Path == "" {
		return nil, fmt.Errorf("file output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   out.Path,
		MaxSize:    out.MaxSize,
		MaxBackups: out.MaxRotatedFiles,
		MaxAge:     out.MaxAge,
		Compress:   out.Compress,
	}, nil
}

// Rotate forces the file output to start a new file. No-op without file output.
func (cl *CentralLogger) Rotate() error {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	if lj, ok := cl.fileWriter.(*lumberjack.Logger); ok {
		return lj.Rotate()
	}
	return nil
}
