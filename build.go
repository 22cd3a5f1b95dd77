//go:build ignore

// build.go - dataingest build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: build, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "1.0.0"
	binary  = "ingest"
)

var (
	distDir = "dist"

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func main() {
	target := flag.String("target", "build", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	startTime := time.Now()

	switch *target {
	case "build":
		build(*verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func build(verbose bool) {
	name := binary
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	outputPath := filepath.Join(distDir, name)

	printInfo(fmt.Sprintf("Building %s...", name))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args,
		"-ldflags", fmt.Sprintf("-s -w -X main.Version=%s", version),
		"-o", outputPath,
		"./cmd/ingest",
	)

	if err := run(verbose, "go", args...); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	if err := run(true, "go", args...); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts and logs...")

	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean %s: %v", distDir, err))
	}

	logs, _ := filepath.Glob(filepath.Join("logs", "*"))
	for _, f := range logs {
		if !strings.HasSuffix(f, ".log") && !strings.HasSuffix(f, ".json") {
			continue
		}
		if verbose {
			fmt.Printf("  Removing: %s\n", f)
		}
		os.Remove(f)
	}
}

func run(verbose bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if verbose {
		fmt.Printf("Running: %s %s\n", name, strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  build   Build the ingest binary into dist/ (default)")
	fmt.Println("  test    Run all tests with the race detector")
	fmt.Println("  clean   Remove dist/ and log files")
}
