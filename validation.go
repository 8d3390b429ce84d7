package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// allowedUploadExtensions lists the roster file types the upload endpoint
// accepts.
var allowedUploadExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

func ValidateEmployeeCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return &ValidationError{"Employee code is required"}
	}
	if len(code) > 64 {
		return &ValidationError{"Employee code exceeds maximum length of 64 characters"}
	}
	for _, r := range code {
		if unicode.IsControl(r) {
			return &ValidationError{"Employee code contains invalid characters"}
		}
	}
	return nil
}

func ValidateUsernameInput(username string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{"Username is required"}
	}
	if len(username) > 255 {
		return &ValidationError{"Username exceeds maximum length of 255 characters"}
	}
	return nil
}

func ValidateUploadFilename(filename string) error {
	if filename == "" {
		return &ValidationError{"Filename is required"}
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return &ValidationError{fmt.Sprintf("Unsupported file type %q - expected .csv, .xls or .xlsx", ext)}
	}
	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
