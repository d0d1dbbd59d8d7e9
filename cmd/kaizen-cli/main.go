// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"kaizen/internal/ir"
	"kaizen/internal/parser"
	"kaizen/internal/passes"
)

func main() {
	verbose := flag.Int("v", 0, "logging verbosity")
	noOpt := flag.Bool("no-opt", false, "skip the optimization pipeline")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: kaizen-cli [-v N] [-no-opt] <file.kir>")
		os.Exit(1)
	}

	commonlog.Configure(*verbose, nil)

	startTime := time.Now()
	path := flag.Arg(0)

	module, err := parser.ParseFile(path)
	if err != nil {
		color.Red("Compilation failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}

	if errs := ir.Validate(module); len(errs) > 0 {
		for _, err := range errs {
			fmt.Print(formatValidationError(path, err))
		}
		color.Red("Compilation failed after %s", formatDuration(time.Since(startTime)))
		os.Exit(1)
	}

	if !*noOpt {
		pipeline := passes.NewPipeline()
		pipeline.Run(module)
	}

	fmt.Println(ir.Print(module))
	color.Green("Successfully processed %s in %s", path, formatDuration(time.Since(startTime)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func formatValidationError(path string, err error) string {
	red := color.New(color.FgRed).SprintFunc()
	return fmt.Sprintf("%s: %s: %s\n", red("error"), path, err)
}
