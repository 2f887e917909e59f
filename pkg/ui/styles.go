// Package ui provides styled CLI output for luanextc using lipgloss.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#7D9DF4") // Blue (LuaNext brand)
	colorSecondary = lipgloss.Color("#56C3F4") // Cyan
	colorSuccess   = lipgloss.Color("#5AF78E") // Green
	colorWarning   = lipgloss.Color("#F7DC6F") // Yellow
	colorError     = lipgloss.Color("#FF6B9D") // Pink/Red
	colorMuted     = lipgloss.Color("#6C7086") // Gray

	colorText      = lipgloss.Color("#CDD6F4")
	colorSubtle    = lipgloss.Color("#7F849C")
	colorBorder    = lipgloss.Color("#45475A")
	colorHighlight = lipgloss.Color("#F5E0DC")
	colorNormal    = lipgloss.Color("#FFFFFF")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	styleVersion = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	styleSection = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary).
			MarginTop(1)

	styleFilePath = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	styleFileInput = lipgloss.NewStyle().
			Foreground(colorText)

	styleFileOutput = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	styleStepLabel = lipgloss.NewStyle().
			Foreground(colorText).
			Width(14).
			Align(lipgloss.Left)

	styleStepStatus = lipgloss.NewStyle().
			Bold(true)

	styleStepTime = lipgloss.NewStyle().
			Foreground(colorSubtle).
			Italic(true)

	styleSummary = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder).
			MarginTop(1).
			PaddingTop(1)

	styleIndent = lipgloss.NewStyle().
			PaddingLeft(2)

	styleNormalText = lipgloss.NewStyle().
			Foreground(colorNormal)
)

// CompileOutput manages the per-invocation compile output display for the
// compile/check commands.
type CompileOutput struct {
	startTime   time.Time
	fileCount   int
	currentFile string
}

func NewCompileOutput() *CompileOutput {
	return &CompileOutput{startTime: time.Now()}
}

func (b *CompileOutput) PrintHeader(version string) {
	header := styleHeader.Render("LuaNext Compiler")
	versionBadge := styleVersion.Render("v" + version)
	fmt.Println(header + " " + versionBadge)
}

func (b *CompileOutput) PrintCompileStart(fileCount int) {
	b.fileCount = fileCount

	var msg string
	if fileCount == 1 {
		msg = "Compiling 1 module"
	} else {
		msg = fmt.Sprintf("Compiling %d modules", fileCount)
	}

	fmt.Println(styleSection.Render(msg))
	fmt.Println()
}

func (b *CompileOutput) PrintModuleStart(inputPath, outputPath string) {
	b.currentFile = inputPath

	input := styleFileInput.Render(inputPath)
	arrow := styleMuted.Render("→")
	output := styleFileOutput.Render(outputPath)

	fmt.Printf("  %s %s %s\n", input, arrow, output)
}

// Step is one pipeline stage's status: Parse, Resolve, Type-check,
// Cache lookup, Analysis, Optimize, Codegen.
type Step struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Message  string
}

type StepStatus int

const (
	StepSuccess StepStatus = iota
	StepSkipped
	StepWarning
	StepError
)

func (b *CompileOutput) PrintStep(step Step) {
	var icon, status, statusStyle string

	switch step.Status {
	case StepSuccess:
		icon = "✓"
		status = "Done"
		statusStyle = styleSuccess.Render(status)
	case StepSkipped:
		icon = "○"
		status = "Cached"
		statusStyle = styleMuted.Render(status)
	case StepWarning:
		icon = "⚠"
		status = "Warning"
		statusStyle = styleWarning.Render(status)
	case StepError:
		icon = "✗"
		status = "Failed"
		statusStyle = styleError.Render(status)
	}

	label := styleStepLabel.Render(step.Name)
	line := fmt.Sprintf("  %s %s", icon, label)
	line += styleStepStatus.Render(statusStyle)

	if step.Duration > 0 {
		line += " " + styleStepTime.Render("("+formatDuration(step.Duration)+")")
	}

	fmt.Println(line)

	if step.Message != "" {
		fmt.Println(styleMuted.Render("    " + step.Message))
	}
}

func (b *CompileOutput) PrintSummary(success bool, errorMsg string) {
	elapsed := time.Since(b.startTime)

	fmt.Println()

	var summaryLine string
	if success {
		summaryLine = fmt.Sprintf("%s Built in %s",
			styleSuccess.Render("Success!"),
			styleStepTime.Render(formatDuration(elapsed)),
		)
	} else {
		summaryLine = styleError.Render("Build failed")
		if errorMsg != "" {
			summaryLine += "\n" + styleError.Render("   Error: ") + errorMsg
		}
	}

	fmt.Println(styleSummary.Render(summaryLine))
}

func (b *CompileOutput) PrintError(msg string) {
	fmt.Println(styleIndent.Render(styleError.Render("✗ Error: ") + msg))
}

func (b *CompileOutput) PrintWarning(msg string) {
	fmt.Println(styleIndent.Render(styleWarning.Render("⚠ Warning: ") + msg))
}

func (b *CompileOutput) PrintInfo(msg string) {
	fmt.Println(styleIndent.Render(styleMuted.Render("ℹ " + msg)))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func PrintVersionInfo(version string) {
	fmt.Println(styleHeader.Render("LuaNext"))
	fmt.Println()
	fmt.Printf("  %s %s\n", styleMuted.Render("Version:"), styleSuccess.Render(version))
	fmt.Printf("  %s %s\n", styleMuted.Render("Runtime:"), styleNormalText.Render("Go"))
	fmt.Println()
}

// Box creates a bordered box around content.
func Box(title, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		Width(60)

	if title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
		content = titleStyle.Render(title) + "\n\n" + content
	}

	return boxStyle.Render(content)
}

// Table creates a simple two-column table.
func Table(rows [][]string) string {
	var lines []string

	maxWidth := 0
	for _, row := range rows {
		if len(row) > 0 && len(row[0]) > maxWidth {
			maxWidth = len(row[0])
		}
	}

	for _, row := range rows {
		if len(row) >= 2 {
			label := styleMuted.Render(fmt.Sprintf("%-*s", maxWidth, row[0]))
			value := styleNormalText.Render(row[1])
			lines = append(lines, fmt.Sprintf("  %s  %s", label, value))
		}
	}

	return strings.Join(lines, "\n")
}

func Divider() string {
	return styleMuted.Render(strings.Repeat("─", 60))
}

// PrintHelp prints the CLI help text for the compile/check commands.
func PrintHelp(version string) {
	header := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	muted := lipgloss.NewStyle().Foreground(colorMuted)
	desc := lipgloss.NewStyle().Foreground(colorText)
	section := lipgloss.NewStyle().Bold(true).Foreground(colorSecondary)
	command := lipgloss.NewStyle().Foreground(colorSuccess)
	flag := lipgloss.NewStyle().Foreground(colorHighlight)

	fmt.Println()
	fmt.Println(header.Render("LuaNext") + " " + muted.Render("- a statically-typed language compiling to Lua"))
	fmt.Println(muted.Render("  v" + version))
	fmt.Println()

	fmt.Println(desc.Render("Compiles LuaX sources to Lua 5.1-5.5 or LuaJIT, with an"))
	fmt.Println(desc.Render("incremental compilation cache and a multi-pass optimizer."))
	fmt.Println()

	fmt.Println(section.Render("Usage:"))
	fmt.Println("  luanextc [command] [flags] <entry...>")
	fmt.Println()

	fmt.Println(section.Render("Available Commands:"))
	commands := []struct{ name, desc string }{
		{"compile", "Compile LuaX sources to the configured target dialect"},
		{"check", "Type-check sources without emitting output"},
		{"help", "Help about any command"},
	}
	for _, cmd := range commands {
		fmt.Printf("  %s  %s\n", command.Render(fmt.Sprintf("%-12s", cmd.name)), cmd.desc)
	}
	fmt.Println()

	fmt.Println(section.Render("Flags:"))
	flags := []struct{ name, desc string }{
		{"--out-dir <dir>", "output directory for emitted Lua"},
		{"--no-emit", "run the pipeline without writing output files"},
		{"--no-cache", "bypass the incremental compilation cache"},
		{"--target <dialect>", "5.1, 5.2, 5.3, 5.4, 5.5, or luajit"},
		{"--source-map", "emit a sibling source map file"},
		{"--pretty", "print diagnostics with a source excerpt and caret"},
		{"--optimize, -O0..-O3", "set the optimizer level"},
		{"--emit lua", "select the emitted artifact kind"},
	}
	for _, f := range flags {
		fmt.Printf("  %s  %s\n", flag.Render(fmt.Sprintf("%-22s", f.name)), f.desc)
	}
	fmt.Println()

	fmt.Println(muted.Render("Use \"luanextc [command] --help\" for more information about a command."))
	fmt.Println()
}
