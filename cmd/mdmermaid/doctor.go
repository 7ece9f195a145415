package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	mermaid "github.com/alnah/go-mermaid"
	"github.com/alnah/go-mermaid/internal/config"
	"github.com/alnah/go-mermaid/internal/hints"
)

// versionTimeout bounds "mmdc --version", which starts Node.
const versionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Backend  string     `json:"backend"`
	MMDC     mmdcInfo   `json:"mmdc"`
	Chrome   chromeInfo `json:"chrome"`
	Page     pageInfo   `json:"page"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// mmdcInfo holds mermaid-cli detection results.
type mmdcInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// pageInfo holds page asset results.
type pageInfo struct {
	Style  string `json:"style"`
	Assets string `json:"assets,omitempty"`
	Ready  bool   `json:"ready"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	json   bool
	target doctorTarget
}

// doctorTarget names what the checks apply to.
type doctorTarget struct {
	backend string
	binary  string
	assets  string // assets directory, "" = embedded only
	style   string // page style, "" = default
}

// newDoctorFlagSet registers every doctor flag on a new FlagSet.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "output JSON")
	fs.StringVarP(&f.target.backend, "renderer", "r", "", "renderer to check: mmdc, browser, client")
	fs.StringVar(&f.target.binary, "mmdc", "", "mermaid-cli executable name or path")
	fs.StringVar(&f.target.assets, "assets", "", "assets directory to check")
	fs.StringVarP(&f.target.style, "style", "s", "", "page style to check")
	return fs
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	f := &doctorFlags{}
	fs := newDoctorFlagSet(f)
	fs.SetOutput(env.Stderr)
	fs.Usage = func() { printDoctorUsage(env.Stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	envCfg := loadEnvConfig()
	target := f.target
	target.backend = firstNonEmpty(target.backend, envCfg.Backend, config.BackendMMDC)
	target.binary = firstNonEmpty(target.binary, envCfg.Binary, mermaid.DefaultBinary)

	result := runDoctor(ctx, target, env.Runner)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks for target.
func runDoctor(ctx context.Context, target doctorTarget, runner mermaid.CommandRunner) *doctorResult {
	backend := target.backend
	result := &doctorResult{
		Status:  "ready",
		Backend: backend,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	switch backend {
	case config.BackendMMDC, config.BackendBrowser, config.BackendClient:
	default:
		result.Errors = append(result.Errors,
			fmt.Sprintf("Unknown renderer %q (use mmdc, browser or client)", backend))
	}

	checkMermaidCLI(ctx, result, target.binary, runner)
	checkChrome(result)
	checkPageAssets(result, target.assets, target.style)
	checkEnvironment(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkMermaidCLI detects the mermaid-cli executable. It is required only
// by the mmdc backend.
func checkMermaidCLI(ctx context.Context, result *doctorResult, binary string, runner mermaid.CommandRunner) {
	path, err := exec.LookPath(binary)
	if err != nil {
		msg := fmt.Sprintf("mermaid-cli (%s) not found%s", binary, hints.ForToolNotFound(binary))
		if result.Backend == config.BackendMMDC {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
		return
	}

	result.MMDC.Found = true
	result.MMDC.Path = path

	if runner == nil {
		runner = &mermaid.ExecRunner{}
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	stdout, _, err := runner.Run(ctx, path, "--version")
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get mermaid-cli version: %v", err))
		return
	}
	result.MMDC.Version = strings.TrimSpace(stdout)
}

// checkChrome detects Chrome/Chromium installation. It is required only by
// the browser backend; mmdc downloads its own Chrome through puppeteer.
func checkChrome(result *doctorResult) {
	report := func(msg string) {
		if result.Backend == config.BackendBrowser {
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}

	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			report("Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	// Verify it exists
	if _, err := os.Stat(chromePath); err != nil {
		report(fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	// #nosec G204 -- path comes from ROD_BROWSER_BIN or rod's launcher lookup
	out, err := exec.Command(chromePath, "--version").Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkPageAssets loads the page template and style the way convert does.
func checkPageAssets(result *doctorResult, dir, style string) {
	result.Page = pageInfo{Style: styleName(style), Assets: dir}

	cfg := config.DefaultConfig()
	cfg.Assets.BasePath = dir
	loader, err := assetLoader(cfg, &Environment{})
	if err == nil {
		_, err = loadPageBuilder(loader)
	}
	if err == nil {
		_, err = loadPageStyle(loader, style)
	}
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Page assets: %v%s", err, hintFor(err, cfg)))
		return
	}
	result.Page.Ready = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult) {
	result.Env.Container, result.Env.ContainerHint = isContainer()

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Backend == config.BackendBrowser &&
		(result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
	if result.Backend == config.BackendMMDC && (result.Env.Container || result.Env.CI) {
		result.Warnings = append(result.Warnings,
			"Container/CI detected. mmdc may need a puppeteer config with --no-sandbox (renderer.puppeteerConfig)")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer() (bool, string) {
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for diagram files is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "mdmermaid-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// statusText describes each overall status.
var statusText = map[string]string{
	"ready":    "Ready to convert",
	"warnings": "Ready with warnings",
	"errors":   "Not ready (see errors above)",
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintf(w, "mdmermaid doctor\n\nRenderer: %s\n\n", r.Backend)

	printSection(w, "mermaid-cli", toolLines(r.MMDC.Found, r.MMDC.Path, r.MMDC.Version)...)

	chrome := toolLines(r.Chrome.Found, r.Chrome.Path, r.Chrome.Version)
	if r.Chrome.Found {
		sandbox := "enabled"
		if !r.Chrome.Sandbox {
			sandbox = "disabled (ROD_NO_SANDBOX=1)"
		}
		chrome = append(chrome, "[OK] Sandbox: "+sandbox)
	}
	printSection(w, "Chrome/Chromium", chrome...)

	page := []string{"[ERROR] Style: " + r.Page.Style}
	if r.Page.Ready {
		page = []string{"[OK] Style: " + r.Page.Style}
	}
	if r.Page.Assets != "" {
		page = append(page, "[OK] Assets: "+r.Page.Assets)
	}
	printSection(w, "Page", page...)

	env := []string{fmt.Sprintf("[OK] Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		env = append(env, fmt.Sprintf("[OK] Container: detected (%s)", r.Env.ContainerHint))
	}
	if r.Env.CI {
		env = append(env, "[OK] CI: detected")
	}
	printSection(w, "Environment", env...)

	temp := "[ERROR] Temp directory: not writable"
	if r.System.TempWritable {
		temp = "[OK] Temp directory: writable"
	}
	printSection(w, "System", temp)

	if len(r.Warnings) > 0 {
		printSection(w, "Warnings:", prefixAll("[WARN] ", r.Warnings)...)
	}
	if len(r.Errors) > 0 {
		printSection(w, "Errors:", prefixAll("[ERROR] ", r.Errors)...)
	}

	if text, ok := statusText[r.Status]; ok {
		fmt.Fprintln(w, "Status: "+text)
	}
}

// printSection writes a titled block of indented lines.
func printSection(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w, title)
	for _, line := range lines {
		fmt.Fprintln(w, "  "+line)
	}
	fmt.Fprintln(w)
}

// toolLines describes a detected executable.
func toolLines(found bool, path, version string) []string {
	if !found {
		return []string{"[--] Not found"}
	}
	lines := []string{"[OK] Found at " + path}
	if version != "" {
		lines = append(lines, "[OK] Version: "+version)
	}
	return lines
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = prefix + item
	}
	return out
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
