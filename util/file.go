package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir creates the directory and its parents if missing
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// takes a save path and a variable number of strings and writes them to file separated by new lines
func WriteToFile(savePath string, content ...string) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")), 0644)
}

// AppendToFile appends each string as a separate line, creating the file if needed
func AppendToFile(savePath string, content ...string) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// TimestampedName builds <prefix>_<yyyyMMdd_HHmmss><ext>
func TimestampedName(prefix string, t time.Time, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, t.Format("20060102_150405"), ext)
}
