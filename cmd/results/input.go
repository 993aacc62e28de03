package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"
)

const xzExt = ".xz"

// reportPatterns are the file names import-dir picks up.
var reportPatterns = []string{"*.txt", "*.txt" + xzExt}

// readReportFile reads a report, decompressing it when the name ends in .xz.
// The returned source name drops the compression extension.
func readReportFile(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	source := filepath.Base(path)
	if !strings.HasSuffix(source, xzExt) {
		data, err := io.ReadAll(f)
		return data, source, err
	}

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open xz stream %s: %w", path, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return data, strings.TrimSuffix(source, xzExt), nil
}

// reportFiles lists the reports in dir in name order.
func reportFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range reportPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
