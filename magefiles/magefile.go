// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the shoplist project using Mage.
//
// Usage:
//
//	mage build      Compile the shoplist binary to bin/
//	mage test       Run all tests with the race detector
//	mage testUnit   Run tests in short mode
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install shoplist to GOPATH/bin
//	mage stats      Print Go line counts per package
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "shoplist"
	binaryDir  = "bin"
	cmdDir     = "./cmd/shoplist"
	versionVar = "github.com/mesh-intelligence/shoplist/internal/cli.Version"
)

// Build compiles the shoplist binary to bin/. SHOPLIST_VERSION, when set,
// is stamped into the binary.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("SHOPLIST_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV("go", append(args, cmdDir)...)
}

// Test runs every test with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestUnit runs the tests in short mode.
func TestUnit() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// lineCount holds production and test lines for one directory.
type lineCount struct {
	prod, test int
}

// Stats prints Go lines of code per package directory.
func Stats() error {
	counts := map[string]*lineCount{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles":
				return filepath.SkipDir
			}
			if strings.HasPrefix(info.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		c, ok := counts[dir]
		if !ok {
			c = &lineCount{}
			counts[dir] = c
		}
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var total lineCount
	fmt.Printf("%-28s %8s %8s\n", "package", "prod", "test")
	for _, dir := range dirs {
		c := counts[dir]
		total.prod += c.prod
		total.test += c.test
		fmt.Printf("%-28s %8d %8d\n", dir, c.prod, c.test)
	}
	fmt.Printf("%-28s %8d %8d\n", "total", total.prod, total.test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
