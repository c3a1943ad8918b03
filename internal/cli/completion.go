package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// All shell completion functions generate from this registry, so adding
// a new flag only requires appending to flagRegistry.
type FlagCompletion struct {
	Long       string   // long flag name without "-" (e.g., "workload")
	Short      string   // short alias without "-" (e.g., "w")
	Help       string   // description text
	Values     []string // suggested completion values (nil = boolean/no suggestions)
	ValueName  string   // label for the value in zsh (e.g., "number", "duration")
	IsFile     bool     // true if the flag takes a file path
	IsWorkload bool     // true if values come from the workload list (dynamic)
}

// flagRegistry is the central list of all CLI flags for completion
// generation. The order matches the flag declarations in ParseConfig.
var flagRegistry = []FlagCompletion{
	{Long: "workload", Short: "w", Help: "Workload to run", IsWorkload: true, ValueName: "workload"},
	{Long: "rounds", Help: "Iterations per workload", Values: []string{"1024", "4096", "16384", "65536"}, ValueName: "number"},
	{Long: "blocks", Help: "Live allocation set size", Values: []string{"64", "256", "512", "1024"}, ValueName: "number"},
	{Long: "block-size", Help: "Bytes per allocated block", Values: []string{"64", "1024", "4096", "65536"}, ValueName: "bytes"},
	{Long: "alignment", Help: "Force aligned allocations", Values: []string{"8", "16", "64", "4096"}, ValueName: "bytes"},
	{Long: "timeout", Help: "Maximum run duration", Values: []string{"30s", "1m", "5m", "30m"}, ValueName: "duration"},
	{Long: "output", Short: "o", Help: "Report output file", IsFile: true, ValueName: "file"},
	{Long: "result", Help: "Print the flattened RESULT line"},
	{Long: "rusage", Help: "Add a getrusage meter to each workload"},
	{Long: "serve", Help: "Expose metrics over HTTP during the run"},
	{Long: "listen", Help: "Metrics server address", ValueName: "address"},
	{Long: "tui", Help: "Launch the live dashboard"},
	{Long: "quiet", Short: "q", Help: "Quiet mode for scripts"},
	{Long: "verbose", Short: "v", Help: "Enable debug logging"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh"}, ValueName: "shell"},
}

// GenerateCompletion generates a shell completion script for the
// specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash" or "zsh").
//   - workloads: List of available workload names.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell string, workloads []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, workloads)
	case "zsh":
		return generateZshCompletion(out, workloads)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh)", shell)
	}
}

// formatWorkloadList joins workload names with space separators.
func formatWorkloadList(workloads []string) string {
	return strings.Join(workloads, " ")
}

// generateBashCompletion generates a Bash completion script.
func generateBashCompletion(out io.Writer, workloads []string) error {
	// Build opts string from registry
	var opts []string
	for _, f := range flagRegistry {
		opts = append(opts, "-"+f.Long)
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
	}

	// Build case entries from registry: workload flags first, then file
	// completion, then flags with static value suggestions.
	type caseEntry struct {
		patterns []string
		body     string
	}
	var orderedCases []caseEntry

	for _, f := range flagRegistry {
		if f.IsWorkload {
			patterns := []string{"-" + f.Long}
			if f.Short != "" {
				patterns = append(patterns, "-"+f.Short)
			}
			orderedCases = append(orderedCases, caseEntry{
				patterns: patterns,
				body:     `COMPREPLY=( $(compgen -W "${workloads}" -- "${cur}") )`,
			})
		}
	}

	var filePatterns []string
	for _, f := range flagRegistry {
		if f.IsFile {
			filePatterns = append(filePatterns, "-"+f.Long)
			if f.Short != "" {
				filePatterns = append(filePatterns, "-"+f.Short)
			}
		}
	}
	if len(filePatterns) > 0 {
		orderedCases = append(orderedCases, caseEntry{
			patterns: filePatterns,
			body: `# File/directory completion
            COMPREPLY=( $(compgen -f -- "${cur}") )`,
		})
	}

	for _, f := range flagRegistry {
		if !f.IsWorkload && !f.IsFile && len(f.Values) > 0 {
			orderedCases = append(orderedCases, caseEntry{
				patterns: []string{"-" + f.Long},
				body:     fmt.Sprintf(`COMPREPLY=( $(compgen -W "%s" -- "${cur}") )`, strings.Join(f.Values, " ")),
			})
		}
	}

	// Format case entries
	var caseBody strings.Builder
	for _, c := range orderedCases {
		caseBody.WriteString("        ")
		caseBody.WriteString(strings.Join(c.patterns, "|"))
		caseBody.WriteString(")\n")
		caseBody.WriteString("            ")
		caseBody.WriteString(c.body)
		caseBody.WriteString("\n            return 0\n            ;;\n")
	}

	workloadList := formatWorkloadList(workloads)

	script := fmt.Sprintf(`# Bash completion script for pmbench
# Add this to your ~/.bashrc or ~/.bash_completion

_pmbench_completions() {
    local cur prev opts workloads
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    # Main options
    opts="%s"

    # Available workloads
    workloads="%s all"

    case "${prev}" in
%s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F _pmbench_completions pmbench
`, strings.Join(opts, " "), workloadList, caseBody.String())

	_, err := fmt.Fprint(out, script)
	if err != nil {
		return fmt.Errorf("completion bash generation failed: %w", err)
	}
	return nil
}

// generateZshCompletion generates a Zsh completion script.
func generateZshCompletion(out io.Writer, workloads []string) error {
	// Build _arguments entries from registry
	var args []string
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}

	workloadList := formatWorkloadList(workloads)

	script := fmt.Sprintf(`#compdef pmbench

# Zsh completion script for pmbench
# Add this to your ~/.zshrc or place in $fpath

_pmbench() {
    local -a workloads
    workloads=(%s all)

    _arguments -s \
%s
}

_pmbench "$@"
`, workloadList, strings.Join(args, " \\\n"))

	_, err := fmt.Fprint(out, script)
	if err != nil {
		return fmt.Errorf("completion zsh generation failed: %w", err)
	}
	return nil
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion) string {
	// Build the value suffix
	valueSuffix := ""
	if f.IsFile {
		valueSuffix = fmt.Sprintf(":%s:_files", f.ValueName)
	} else if f.IsWorkload {
		valueSuffix = fmt.Sprintf(":%s:($workloads)", f.ValueName)
	} else if len(f.Values) > 0 {
		valueSuffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	} else if f.ValueName != "" {
		// Value-taking flag with no suggestions (e.g., -listen)
		valueSuffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Short != "" {
		// Has both short and long form. Go's flag package uses a single
		// dash for long flags as well.
		return fmt.Sprintf("        '(-%s -%s)'{-%s,-%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, f.Help, valueSuffix)
	}
	return fmt.Sprintf("        '-%s[%s]%s'", f.Long, f.Help, valueSuffix)
}
