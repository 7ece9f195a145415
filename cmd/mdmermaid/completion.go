package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mermaid/internal/assets"
	"github.com/alnah/go-mermaid/internal/config"
	"github.com/alnah/go-mermaid/internal/hints"
	"github.com/alnah/go-mermaid/internal/pipeline"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags, comma-separated
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool   // accepts file arguments
	FilePattern string // glob for file arguments (e.g., "*.md")
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
func flagCompletionMeta() map[string]completionMeta {
	return map[string]completionMeta{
		// Enum flags
		"theme":           {Values: hints.BuiltinThemes},
		"renderer":        {Values: []string{config.BackendMMDC, config.BackendBrowser, config.BackendClient}},
		"highlight-style": {Values: pipeline.HighlightStyles()},
		"style":           {Values: assets.StyleNames()},

		// File flags with glob patterns
		"config": {FileGlob: "*.yaml,*.yml"},
		"css":    {FileGlob: "*.css"},

		// Directory flags
		"output": {IsDir: true},
		"assets": {IsDir: true},
	}
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	meta := flagCompletionMeta()
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if m, ok := meta[f.Name]; ok {
			switch {
			case len(m.Values) > 0:
				fd.Type = flagEnum
				fd.Values = m.Values
			case m.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = m.FileGlob
			case m.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the actual FlagSet.
func getCommands() []commandDef {
	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Convert markdown files to HTML",
			Flags:       extractFlagsFromFlagSet(newConvertFlagSet(&convertFlags{})),
			TakesFiles:  true,
			FilePattern: "*.md,*.markdown",
		},
		{
			Name:  "doctor",
			Desc:  "Check renderer availability",
			Flags: extractFlagsFromFlagSet(newDoctorFlagSet(&doctorFlags{})),
		},
		{Name: "completion", Desc: "Generate shell completion script"},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var b strings.Builder
	commands := getCommands()

	switch shell {
	case ShellBash:
		generateBash(&b, commands)
	case ShellZsh:
		generateZsh(&b, commands)
	case ShellFish:
		generateFish(&b, commands)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// generateBash writes a bash completion function. The convert flags are
// offered both after "convert" and at top level, since inputs may be
// passed without the command name.
func generateBash(b *strings.Builder, commands []commandDef) {
	convert := commands[0]

	b.WriteString("# bash completion for mdmermaid\n")
	b.WriteString("_mdmermaid() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	b.WriteString("    case \"$prev\" in\n")
	seen := make(map[string]bool)
	for _, cmd := range commands {
		for _, f := range cmd.Flags {
			reply := bashFlagReply(f)
			if reply == "" || seen[f.Long] {
				continue
			}
			seen[f.Long] = true
			fmt.Fprintf(b, "        %s)\n            %s\n            return ;;\n", bashFlagPattern(f), reply)
		}
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"$cmd\" in\n")
	for _, cmd := range commands[1:] {
		fmt.Fprintf(b, "        %s)\n", cmd.Name)
		if cmd.Name == "completion" {
			b.WriteString("            COMPREPLY=($(compgen -W \"bash zsh fish\" -- \"$cur\"))\n")
		} else if cmd.Name == "help" {
			fmt.Fprintf(b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(commands))
		} else {
			fmt.Fprintf(b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", flagWords(cmd.Flags))
		}
		b.WriteString("            return ;;\n")
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    if [[ \"$cur\" == -* ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", flagWords(convert.Flags))
	b.WriteString("        return\n")
	b.WriteString("    fi\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", commandNames(commands))
	b.WriteString("    fi\n")
	fmt.Fprintf(b, "    COMPREPLY+=(%s $(compgen -d -- \"$cur\"))\n", bashGlobs(convert.FilePattern))
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _mdmermaid mdmermaid\n")
}

func bashFlagPattern(f flagDef) string {
	if f.Short != "" {
		return "-" + f.Short + "|--" + f.Long
	}
	return "--" + f.Long
}

func bashFlagReply(f flagDef) string {
	switch f.Type {
	case flagEnum:
		return fmt.Sprintf("COMPREPLY=($(compgen -W %q -- \"$cur\"))", strings.Join(f.Values, " "))
	case flagFile:
		return fmt.Sprintf("COMPREPLY=(%s $(compgen -d -- \"$cur\"))", bashGlobs(f.FileGlob))
	case flagDir:
		return "COMPREPLY=($(compgen -d -- \"$cur\"))"
	}
	return ""
}

// bashGlobs returns one compgen call per glob; a single -X filter cannot
// match several extensions without extglob.
func bashGlobs(globs string) string {
	var calls []string
	for _, g := range strings.Split(globs, ",") {
		calls = append(calls, fmt.Sprintf("$(compgen -f -X '!%s' -- \"$cur\")", g))
	}
	return strings.Join(calls, " ")
}

// generateZsh writes a zsh completion function using _arguments.
func generateZsh(b *strings.Builder, commands []commandDef) {
	b.WriteString("#compdef mdmermaid\n\n")
	b.WriteString("_mdmermaid() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, cmd := range commands {
		fmt.Fprintf(b, "        '%s:%s'\n", cmd.Name, zshEscape(cmd.Desc))
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )) && [[ $words[2] != -* ]]; then\n")
	b.WriteString("        _describe 'command' commands\n")
	fmt.Fprintf(b, "        _files -g '%s'\n", zshGlob(commands[0].FilePattern))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case $words[2] in\n")
	for _, cmd := range commands[1:] {
		fmt.Fprintf(b, "        %s)\n", cmd.Name)
		switch cmd.Name {
		case "completion":
			b.WriteString("            _values 'shell' bash zsh fish ;;\n")
		case "help":
			b.WriteString("            _describe 'command' commands ;;\n")
		default:
			b.WriteString("            _arguments \\\n")
			writeZshSpecs(b, cmd.Flags)
			b.WriteString("            ;;\n")
		}
	}
	b.WriteString("        *)\n")
	b.WriteString("            _arguments \\\n")
	writeZshSpecs(b, commands[0].Flags)
	fmt.Fprintf(b, "                '*:markdown file:_files -g \"%s\"'\n", zshGlob(commands[0].FilePattern))
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _mdmermaid mdmermaid\n")
}

func writeZshSpecs(b *strings.Builder, flags []flagDef) {
	for _, f := range flags {
		desc := zshEscape(f.Desc)
		action := ""
		switch f.Type {
		case flagBool:
		case flagEnum:
			action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
		case flagFile:
			action = fmt.Sprintf(":%s:_files -g \"%s\"", f.Long, zshGlob(f.FileGlob))
		case flagDir:
			action = fmt.Sprintf(":%s:_files -/", f.Long)
		default:
			action = fmt.Sprintf(":%s: ", f.Long)
		}
		if f.Short != "" {
			fmt.Fprintf(b, "                '(-%s --%s)'{-%s,--%s}'[%s]%s' \\\n", f.Short, f.Long, f.Short, f.Long, desc, action)
		} else {
			fmt.Fprintf(b, "                '--%s[%s]%s' \\\n", f.Long, desc, action)
		}
	}
}

// zshGlob turns "*.md,*.markdown" into "*.(md|markdown)".
func zshGlob(globs string) string {
	parts := strings.Split(globs, ",")
	if len(parts) == 1 {
		return parts[0]
	}
	exts := make([]string, 0, len(parts))
	for _, p := range parts {
		exts = append(exts, strings.TrimPrefix(p, "*."))
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

// generateFish writes fish completions.
func generateFish(b *strings.Builder, commands []commandDef) {
	b.WriteString("# fish completion for mdmermaid\n")
	b.WriteString("complete -c mdmermaid -f\n")

	names := commandNames(commands)
	for _, cmd := range commands {
		fmt.Fprintf(b, "complete -c mdmermaid -n 'not __fish_seen_subcommand_from %s' -a %s -d %s\n",
			names, cmd.Name, fishQuote(cmd.Desc))
	}
	b.WriteString("complete -c mdmermaid -n 'not __fish_seen_subcommand_from doctor completion version help' -F -a '(__fish_complete_suffix .md .markdown)'\n")
	b.WriteString("complete -c mdmermaid -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n")
	fmt.Fprintf(b, "complete -c mdmermaid -n '__fish_seen_subcommand_from help' -a %s\n", fishQuote(names))

	for _, cmd := range commands {
		if len(cmd.Flags) == 0 {
			continue
		}
		condition := "__fish_seen_subcommand_from " + cmd.Name
		if cmd.Name == "convert" {
			condition = "not __fish_seen_subcommand_from doctor completion version help"
		}
		for _, f := range cmd.Flags {
			fmt.Fprintf(b, "complete -c mdmermaid -n '%s' -l %s", condition, f.Long)
			if f.Short != "" {
				fmt.Fprintf(b, " -s %s", f.Short)
			}
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(b, " -x -a %s", fishQuote(strings.Join(f.Values, " ")))
			case flagFile, flagDir:
				b.WriteString(" -r -F")
			default:
				b.WriteString(" -x")
			}
			fmt.Fprintf(b, " -d %s\n", fishQuote(f.Desc))
		}
	}
}

func fishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func commandNames(commands []commandDef) string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.Name)
	}
	return strings.Join(names, " ")
}

// flagWords lists every spelling of the flags, sorted.
func flagWords(flags []flagDef) string {
	words := make([]string, 0, len(flags)*2)
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}

	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdmermaid completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(mdmermaid completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(mdmermaid completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    mdmermaid completion fish > ~/.config/fish/completions/mdmermaid.fish")
}
