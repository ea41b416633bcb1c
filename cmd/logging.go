package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// configureLogging switches logrus to JSON and, when LOG_FILE is set, tees
// output into a size-rotated file.
func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Log.Level))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if strings.TrimSpace(cfg.Log.File) == "" {
		logrus.SetOutput(os.Stdout)
		return nil
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.FileMaxSizeMB,
		MaxBackups: cfg.Log.FileMaxBackups,
		MaxAge:     cfg.Log.FileMaxAgeDays,
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, rotating))
	return nil
}
