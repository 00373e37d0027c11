// Package cli provides the command-line interface for insider-graph.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	w := cmd.OutOrStdout()
	return &Output{
		writer:       w,
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && w == os.Stdout && isTerminal(),
	}
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(format, args, color.FgGreen)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(format, args, color.FgRed)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(format, args, color.FgYellow)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(format, args, color.FgCyan)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(format, args, color.Bold)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(format, args, color.Faint)
}

func (o *Output) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if o.colorEnabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// colored prints a colored message.
func (o *Output) colored(format string, args []interface{}, attrs ...color.Attribute) {
	o.paint(attrs...).Fprintln(o.writer, fmt.Sprintf(format, args...))
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.FgGreen).Sprint(text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.FgRed).Sprint(text)
}

// BoldText returns bold text.
func (o *Output) BoldText(text string) string {
	return o.paint(color.Bold).Sprint(text)
}

// YesNo renders a boolean as a colored yes or no.
func (o *Output) YesNo(v bool) string {
	if v {
		return o.Green("yes")
	}
	return o.Red("no")
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(stripANSI(h))
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := len(stripANSI(cell)); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - len(stripANSI(cell))
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if isHeader {
				padded = t.output.BoldText(padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("-", w))
	}
	t.output.Println(t.output.paint(color.Faint).Sprint(strings.Join(parts, "  ")))
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
