// Package versionfile persists a single integer version in a flat file.
package versionfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a version from path. ok is false when the file does not exist
// or its first line is empty.
func Load(path string) (version int, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false, scanner.Err()
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return 0, false, nil
	}
	version, err = strconv.Atoi(line)
	if err != nil {
		return 0, false, fmt.Errorf("version file %s: %w", path, err)
	}
	return version, true, nil
}

// Save writes a version to path, creating parent directories as needed.
func Save(path string, version int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(version)), 0644)
}

// MoveIfExists moves src to dst when src exists and dst does not.
// Returns true if the file was moved.
func MoveIfExists(src, dst string) (bool, error) {
	if _, err := os.Stat(src); err != nil {
		return false, nil
	}
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, err
	}
	if err := os.Rename(src, dst); err != nil {
		return false, err
	}
	return true, nil
}
