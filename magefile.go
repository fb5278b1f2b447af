//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/omnimedia/server/internal/module/auth"
)

const (
	binary    = "bin/omni-media"
	serverPkg = "./cmd/server"
	wirePkg   = "./internal/app"
	docsOut   = "./cmd/server/docs"
)

// swagDirs are the packages swag scans for annotations and model types.
var swagDirs = "./cmd/server," +
	"./internal/adapter/inbound/http/media," +
	"./internal/module/generation," +
	"./internal/module/media," +
	"./internal/module/job," +
	"./internal/shared/errors"

// Default target when running mage without arguments.
var Default = Build

// Gen groups code generation targets.
type Gen mg.Namespace

// Wire regenerates internal/app/wire_gen.go.
func (Gen) Wire() error {
	fmt.Println("Running wire...")
	return sh.Run("wire", "gen", wirePkg)
}

// Swag regenerates the OpenAPI docs package from handler annotations.
func (Gen) Swag() error {
	fmt.Println("Running swag...")
	return sh.Run("swag", "init", "-g", "docs.go", "-d", swagDirs, "-o", docsOut, "--outputTypes", "go")
}

// All runs every generator.
func (Gen) All() {
	mg.Deps(Gen.Wire, Gen.Swag)
}

// Build builds the server binary.
func Build() error {
	mg.Deps(Gen.All)
	fmt.Println("Building", binary)
	return sh.Run("go", "build", "-o", binary, serverPkg)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover writes coverage.out.
func Cover() error {
	return sh.RunV("go", "test", "-coverprofile=coverage.out", "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// CI runs tidy, generation, lint and coverage in order.
func CI() {
	mg.SerialDeps(Tidy, Gen.All, Lint, Cover)
}

// Dev builds and runs the server against configs/config.yaml.
func Dev() error {
	mg.Deps(Build)
	cmd := exec.Command(binary, "-config", "configs/config.yaml")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes build output and coverage files.
func Clean() error {
	_ = os.Remove("coverage.out")
	return os.RemoveAll("bin")
}

// Tools installs the generators and linter.
func Tools() error {
	for _, tool := range []string{
		"github.com/google/wire/cmd/wire@latest",
		"github.com/swaggo/swag/cmd/swag@latest",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	} {
		fmt.Println("Installing", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}

// Keygen prints a new API key for auth.keys.
func Keygen() error {
	key, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		return err
	}
	fmt.Printf("key:    %s\nprefix: %s\n", key, prefix)
	return nil
}
