//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	binDir  = "bin"
	appName = "lawfirm-payments-api"
)

var Default = Dev

// Dev runs the API with hot reload when air is installed.
func Dev() error {
	mg.Deps(Tidy)

	if _, err := exec.LookPath("air"); err == nil {
		fmt.Println("Starting hot-reload with air ...")
		return sh.RunV("air")
	}

	fmt.Println("air not found. Falling back to `go run ./cmd/api`.")
	return Run()
}

func Run() error {
	fmt.Println("Running (go run) on :8080 ...")
	return sh.RunV("go", "run", "./cmd/api")
}

// Build compiles the API and the tools into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	out := filepath.Join(binDir, appName)
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	if err := sh.RunV("go", "build", "-o", out, "./cmd/api"); err != nil {
		return err
	}

	for _, tool := range []string{"createtable", "mockwebhook", "seed"} {
		if err := sh.RunV("go", "build", "-o", filepath.Join(binDir, tool), "./cmd/tools/"+tool); err != nil {
			return err
		}
	}
	return nil
}

func Test() error {
	return sh.RunV("go", "test", "./...")
}

func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		return fmt.Errorf("golangci-lint not found. Install with: mage Tools")
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tools installs the dev tooling.
func Tools() error {
	if err := sh.RunV("go", "install", "github.com/air-verse/air@latest"); err != nil {
		return err
	}
	return sh.RunV("go", "install", "github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest")
}

// CreateTables applies the DDL against DB_DSN.
func CreateTables() error {
	return sh.RunV("go", "run", "./cmd/tools/createtable")
}

// Seed inserts demo catalog services and clients.
func Seed() error {
	return sh.RunV("go", "run", "./cmd/tools/seed")
}

func Clean() error {
	return os.RemoveAll(binDir)
}
