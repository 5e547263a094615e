package test

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

// getProjectRoot returns the project root directory based on this test file's location.
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	// Go up one level from test/ to project root
	return filepath.Dir(filepath.Dir(filename))
}

// walkGoFiles calls fn for every .go file in the module, skipping hidden,
// underscore-prefixed, vendor and testdata directories like the go tool does.
func walkGoFiles(t *testing.T, fn func(path string)) {
	t.Helper()
	root := getProjectRoot()
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			fn(path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
}

// TestNoSkippedTests ensures no test files contain t.Skip() calls.
// Skipped tests hide failures - tests should either pass or fail, never skip.
func TestNoSkippedTests(t *testing.T) {
	forbiddenPatterns := []string{
		"t.Skip(",
		"t.SkipNow(",
		"testing.Short()",
	}

	var testFiles []string
	walkGoFiles(t, func(path string) {
		if strings.HasSuffix(path, "_test.go") && !strings.HasSuffix(path, "quality_test.go") {
			testFiles = append(testFiles, path)
		}
	})

	var violations []string

	for _, testFile := range testFiles {
		f, err := os.Open(testFile)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", testFile, err)
		}

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			// Skip comments
			if strings.HasPrefix(strings.TrimSpace(line), "//") {
				continue
			}

			for _, pattern := range forbiddenPatterns {
				if strings.Contains(line, pattern) {
					violations = append(violations,
						testFile+":"+strconv.Itoa(lineNum)+": contains forbidden pattern '"+pattern+"'")
				}
			}
		}
		f.Close()

		if err := scanner.Err(); err != nil {
			t.Fatalf("Error scanning %s: %v", testFile, err)
		}
	}

	if len(violations) > 0 {
		t.Errorf("Found %d test skip violation(s):\n", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
		t.Error("\nTests should not be skipped. Either:")
		t.Error("  1. Fix the issue causing the skip")
		t.Error("  2. Use t.Fatalf() if a required resource is missing")
		t.Error("  3. Remove the test if it's no longer relevant")
	}
}

// TestPackagesHaveTests ensures every library package ships with tests.
func TestPackagesHaveTests(t *testing.T) {
	sources := map[string]bool{}
	tested := map[string]bool{}

	walkGoFiles(t, func(path string) {
		dir := filepath.Dir(path)
		if strings.HasSuffix(path, "_test.go") {
			tested[dir] = true
		} else {
			sources[dir] = true
		}
	})

	if len(sources) == 0 {
		t.Fatal("No source files found - something is wrong with discovery")
	}

	root := getProjectRoot()
	for dir := range sources {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			t.Fatalf("Rel(%s): %v", dir, err)
		}
		// main packages are covered by the command tests
		if strings.HasPrefix(rel, "cmd") {
			continue
		}
		if !tested[dir] {
			t.Errorf("package %s has no tests", rel)
		}
	}
}
