// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayReport], [DisplayQuietReport], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatQuietReport].
//
//   - Write* functions write data to files on the filesystem.
//     They handle file creation, directory setup, and error handling.
//     Examples: [WriteReportToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdinklag/pm"
	"github.com/pdinklag/pm/internal/ui"
)

// OutputConfig holds configuration for report output.
type OutputConfig struct {
	// OutputFile is the path to save the report (empty for no file output).
	OutputFile string
	// Quiet mode suppresses everything except the requested results.
	Quiet bool
	// Verbose shows the full report including sub-phase detail.
	Verbose bool
	// ResultLine prints the flattened RESULT line after the report.
	ResultLine bool
}

// WriteReportToFile writes a measurement report to a file as indented JSON.
//
// Parameters:
//   - rep: The report to write.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteReportToFile(rep pm.Report, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := rep.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// FormatQuietReport formats a report for quiet mode output.
// Returns a single-line compact JSON document suitable for scripting.
//
// Parameters:
//   - rep: The report to format.
//
// Returns:
//   - string: The formatted report string.
func FormatQuietReport(rep pm.Report) string {
	return rep.String()
}

// DisplayQuietReport outputs a report in quiet mode (minimal output).
//
// Parameters:
//   - out: The output writer.
//   - rep: The report to display.
func DisplayQuietReport(out io.Writer, rep pm.Report) {
	fmt.Fprintln(out, FormatQuietReport(rep))
}

// DisplayResultLine outputs the flattened key=value representation of a
// report on a single line.
//
// Parameters:
//   - out: The output writer.
//   - rep: The report to flatten.
//
// Returns:
//   - error: An error if writing fails.
func DisplayResultLine(out io.Writer, rep pm.Report) error {
	var res pm.Result
	res.AddReport(rep)
	res.Sort()
	return res.Print(out)
}

// DisplayReportWithConfig displays a report with the given output
// configuration. This is a unified function that handles all output modes.
//
// Parameters:
//   - out: The output writer.
//   - rep: The report to display.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayReportWithConfig(out io.Writer, rep pm.Report, config OutputConfig) error {
	switch {
	case config.Quiet && config.ResultLine:
		// The RESULT line is the requested result; skip the JSON document.
	case config.Quiet:
		DisplayQuietReport(out, rep)
	default:
		data, err := rep.MarshalIndent()
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintf(out, "%s\n", data)
	}

	if config.ResultLine {
		if err := DisplayResultLine(out, rep); err != nil {
			return err
		}
	}

	// Save to file if requested
	if config.OutputFile != "" {
		if err := WriteReportToFile(rep, config); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Report saved to: %s%s%s\n",
				ui.ColorSuccess(), ui.ColorInfo(), config.OutputFile, ui.ColorReset())
		}
	}

	return nil
}
