package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize/english"
	"github.com/user/ciber-radar/logger"
	"github.com/user/ciber-radar/testreport"
	"github.com/user/ciber-radar/tests"
	"github.com/user/ciber-radar/util"
)

func main() {
	logLevel := flag.String("log", "", "Log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	realtime := flag.Bool("realtime", false, "Wait out timeline offsets instead of running back to back")
	writeReport := flag.Bool("report", false, "Write a markdown report under the data dir")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: cellsim [--log LEVEL] [--realtime] [--report] <scenario.yaml>...")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/cellsim tests/scenarios/signal_updates.yaml")
		os.Exit(1)
	}

	if *logLevel != "" {
		logger.SetLevel(logger.ParseLevel(*logLevel))
	}

	var runs []*tests.ScenarioRunner
	allPassed := true

	for _, path := range flag.Args() {
		scenario, err := tests.LoadScenario(path)
		if err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}

		fmt.Printf("=== Running Scenario: %s ===\n", scenario.Name)
		fmt.Printf("Description: %s\n", scenario.Description)
		fmt.Printf("Device: API %d, %s\n", scenario.Device.SdkInt, english.Plural(len(scenario.Device.Cells), "cell", ""))
		fmt.Printf("Events: %d\n", len(scenario.Timeline))
		fmt.Printf("Duration: %v\n\n", scenario.Duration())

		if errors := scenario.Validate(); len(errors) > 0 {
			fmt.Println("❌ Scenario validation failed:")
			for _, err := range errors {
				fmt.Printf("  - %s\n", err)
			}
			os.Exit(1)
		}

		runner := tests.NewScenarioRunner(scenario)
		runner.Realtime = *realtime

		if err := runner.Setup(); err != nil {
			log.Fatalf("Failed to setup scenario: %v", err)
		}
		if err := runner.Run(); err != nil {
			log.Fatalf("Failed to run scenario: %v", err)
		}

		runner.CheckAssertions()
		runner.PrintReport(os.Stdout)
		if !runner.Passed() {
			allPassed = false
		}
		runs = append(runs, runner)
		fmt.Println()
	}

	if *writeReport {
		reportDir, err := util.GetReportDir()
		if err != nil {
			log.Fatalf("Failed to create report dir: %v", err)
		}
		path, err := testreport.Generate(reportDir, runs)
		if err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("Report written to: %s\n", path)
	}

	if allPassed {
		fmt.Println("✅ All assertions passed!")
		os.Exit(0)
	}
	fmt.Println("❌ Some assertions failed")
	os.Exit(1)
}
