package testreport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/user/ciber-radar/android"
	"github.com/user/ciber-radar/tests"
)

// TestIssue is a failed assertion lifted out for the summary
type TestIssue struct {
	Scenario    string
	Assertion   string
	Description string
}

// Generate writes a markdown report for the given scenario runs into
// reportDir and returns the report's path
func Generate(reportDir string, runs []*tests.ScenarioRunner) (string, error) {
	if len(runs) == 0 {
		return "", fmt.Errorf("no scenario runs to report")
	}

	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return "", fmt.Errorf("error creating report dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	reportPath := filepath.Join(reportDir, fmt.Sprintf("scenario_report_%s.md", timestamp))

	issues := detectIssues(runs)
	report := generateReport(timestamp, runs, issues)

	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		return "", fmt.Errorf("error writing report: %w", err)
	}
	return reportPath, nil
}

func detectIssues(runs []*tests.ScenarioRunner) []TestIssue {
	var issues []TestIssue
	for _, run := range runs {
		for _, result := range run.AssertionResults() {
			if result.Passed {
				continue
			}
			issues = append(issues, TestIssue{
				Scenario:    run.Scenario().Name,
				Assertion:   result.Assertion.Type,
				Description: result.Message,
			})
		}
	}
	return issues
}

func generateReport(timestamp string, runs []*tests.ScenarioRunner, issues []TestIssue) string {
	var sb strings.Builder

	sb.WriteString("# Cell Bridge Scenario Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", timestamp))
	sb.WriteString(fmt.Sprintf("Scenarios: %s\n\n", english.Plural(len(runs), "run", "")))

	sb.WriteString("## Summary\n\n")
	if len(issues) == 0 {
		sb.WriteString("✅ All assertions passed\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("❌ %s\n\n", english.Plural(len(issues), "failed assertion", "")))
		for _, issue := range issues {
			sb.WriteString(fmt.Sprintf("- **%s** `%s`: %s\n", issue.Scenario, issue.Assertion, issue.Description))
		}
		sb.WriteString("\n")
	}

	for _, run := range runs {
		writeRun(&sb, run)
	}
	return sb.String()
}

func writeRun(sb *strings.Builder, run *tests.ScenarioRunner) {
	scenario := run.Scenario()
	sb.WriteString(fmt.Sprintf("## %s\n\n", scenario.Name))
	if scenario.Description != "" {
		sb.WriteString(scenario.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("Run `%s`, API %d, %s over %v (ran in %v)\n\n",
		run.RunID[:8], scenario.Device.SdkInt,
		english.Plural(len(scenario.Timeline), "step", ""), scenario.Duration(), run.Elapsed().Round(time.Microsecond)))

	if calls := run.Calls(); len(calls) > 0 {
		sb.WriteString("### getCells\n\n")
		for i, call := range calls {
			if call.Err != nil {
				sb.WriteString(fmt.Sprintf("%d. step %d: `%v`\n", i+1, call.Step, call.Err))
				continue
			}
			sb.WriteString(fmt.Sprintf("%d. step %d: %s\n", i+1, call.Step, english.Plural(len(call.Records), "cell", "")))
		}
		sb.WriteString("\n")
		for i, call := range calls {
			if len(call.Records) > 0 {
				sb.WriteString(fmt.Sprintf("Call %d:\n\n", i+1))
				writeRecords(sb, call.Records)
			}
		}
	}

	if batches := run.Emitted(); len(batches) > 0 {
		sb.WriteString("### cell_updates\n\n")
		for i, batch := range batches {
			sb.WriteString(fmt.Sprintf("Batch %d (step %d):\n\n", i+1, batch.Step))
			writeRecords(sb, batch.Records)
		}
	}

	sb.WriteString("### Assertions\n\n")
	for _, result := range run.AssertionResults() {
		status := "❌"
		if result.Passed {
			status = "✅"
		}
		sb.WriteString(fmt.Sprintf("- %s `%s` %s\n", status, result.Assertion.Type, result.Message))
	}
	sb.WriteString("\n")
}

func writeRecords(sb *strings.Builder, records []android.CellRecord) {
	sb.WriteString("| type | cid | lac | dBm | asu | serving | timestamp | operator |\n")
	sb.WriteString("|------|-----|-----|-----|-----|---------|-----------|----------|\n")
	for _, r := range records {
		cid, lac := "-", "-"
		if r.HasIdentity {
			cid = humanize.Comma(r.Cid)
			lac = humanize.Comma(int64(r.Lac))
		}
		serving := ""
		if r.IsRegistered {
			serving = "✓"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %s | %s | %s |\n",
			r.Type, cid, lac, r.Dbm, r.Asu, serving, humanize.Comma(r.Timestamp), r.Operator))
	}
	sb.WriteString("\n")
}
