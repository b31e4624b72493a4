package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NowFunc returns the current time; overridable for tests.
var NowFunc = time.Now

// CleanString trims surrounding whitespace, optionally lower-casing.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}

// Getwd returns the project's root dir. It walks up from the current
// working dir until it finds go.mod.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("core.Getwd: %v", err)
	}
	start := wd
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return start
		}
		wd = parent
	}
}
