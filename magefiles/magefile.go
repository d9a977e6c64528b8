//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for journal-scout developer tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories a scout checkout expects.
var projectDirs = []string{
	"reports",
	"reports/.scout",
	".secrets",
}

// Init creates the report and secrets directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "scout"
	cmdPkg  = "./cmd/scout"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Collect builds the binary and writes today's journal report.
func Collect() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "collect")
}

// Sync builds the binary and retries pending and failed ledger tasks.
func Sync() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "sync", "--pending")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports whether a walk should not descend into dir: hidden and
// underscore-prefixed directories, build output and generated reports.
func skipDir(name string) bool {
	switch {
	case name == ".":
		return false
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "_"):
		return true
	case name == binDir, name == "reports", name == "vendor":
		return true
	}
	return false
}

// walkFiles calls fn for every regular file under root whose name passes keep.
func walkFiles(root string, keep func(name string) bool, fn func(data []byte)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !keep(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		fn(data)
		return nil
	})
}

// countGoLines counts non-blank lines in Go files. With testOnly only
// _test.go files are counted; otherwise only non-test files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	keep := func(name string) bool {
		return strings.HasSuffix(name, ".go") && strings.HasSuffix(name, "_test.go") == testOnly
	}
	err := walkFiles(root, keep, func(data []byte) {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
	})
	return total, err
}

// countDocWords counts words in markdown and YAML files.
func countDocWords(root string) (int, error) {
	total := 0
	keep := func(name string) bool {
		switch filepath.Ext(name) {
		case ".md", ".yaml", ".yml":
			return true
		}
		return false
	}
	err := walkFiles(root, keep, func(data []byte) {
		total += len(strings.Fields(string(data)))
	})
	return total, err
}
