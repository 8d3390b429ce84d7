package main

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Global logger instance
var AppLogger *logrus.Logger

// InitializeLogger initializes the global logger
func InitializeLogger(config *Config) {
	AppLogger = logrus.New()

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	AppLogger.SetLevel(level)

	var output io.Writer = os.Stdout

	// In production, log as JSON and try to write to a file
	if config.Environment == "production" {
		AppLogger.SetFormatter(&logrus.JSONFormatter{})
		if err := os.MkdirAll("logs", 0755); err == nil {
			if file, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
				output = file
			}
		}
	} else {
		AppLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	AppLogger.SetOutput(output)
}
