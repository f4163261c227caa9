package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/killallgit/delivery-api/internal/app"
	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/internal/services/exporters"
	"github.com/killallgit/delivery-api/internal/services/pipeline"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// runOptions holds the flag values of the run command
type runOptions struct {
	name      string
	linksFile string
	inputs    []string
	manifest  string
	platform  string
	exports   string
	summary   bool
	noCache   bool
	outputDir string
	tmpDir    string
	cacheDir  string
}

// manifest is a batch described in a YAML file
type manifest struct {
	Name     string   `yaml:"name"`
	Platform string   `yaml:"platform"`
	Inputs   []string `yaml:"inputs"`
	Export   []string `yaml:"export"`
	Summary  bool     `yaml:"summary"`
}

// batch is the merged view of flags and manifest
type batch struct {
	name     string
	inputs   []string
	platform models.Platform
	formats  []exporters.Format
	summary  bool
}

var runOpts runOptions

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a batch of videos",
	Long: `Process a batch of share links or local video files and write the
delivery package to {output-dir}/{date}_{name}.

Inputs can come from --inputs, positional arguments, a links file (one
per line, # starts a comment) or a YAML manifest. Flags override manifest
values.

Example:
  delivery-api run --name acme --inputs https://v.douyin.com/abc/ ./clip.mp4
  delivery-api run --name acme --links links.txt --export docx,xlsx,srt --summary
  delivery-api run --manifest batch.yaml --no-cache`,
	Args: cobra.ArbitraryArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)
	bindRunFlags(runCmd, &runOpts)
}

// bindRunFlags registers the run flags on cmd, storing values in opts
func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "customer or account name (required unless the manifest sets it)")
	f.StringVar(&opts.linksFile, "links", "", "file with one link or path per line")
	f.StringArrayVar(&opts.inputs, "inputs", nil, "link, share text or local video path (repeatable)")
	f.StringVar(&opts.manifest, "manifest", "", "YAML batch manifest")
	f.StringVar(&opts.platform, "platform", "", "douyin, bilibili or auto")
	f.StringVar(&opts.exports, "export", "docx,xlsx", "export formats: docx, md, xlsx, srt")
	f.BoolVar(&opts.summary, "summary", false, "generate one-line summaries")
	f.BoolVar(&opts.noCache, "no-cache", false, "ignore cached transcripts and refresh them")
	f.StringVar(&opts.outputDir, "output-dir", "", "output root (overrides config)")
	f.StringVar(&opts.tmpDir, "tmp-dir", "", "temp root (overrides config)")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "transcript cache directory (overrides config)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	opts := runOpts
	opts.inputs = batchInputs(runOpts.inputs, args)

	var m *manifest
	if opts.manifest != "" {
		loaded, err := loadManifest(opts.manifest)
		if err != nil {
			return err
		}
		m = loaded
	}

	var links []string
	if opts.linksFile != "" {
		read, err := readLinks(opts.linksFile)
		if err != nil {
			return err
		}
		links = read
	}

	b, err := resolveBatch(opts, m, links, cmd.Flags().Changed("export"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	outputRoot := firstNonEmpty(opts.outputDir, cfg.Storage.OutputDir)
	cacheDir := opts.cacheDir
	if cacheDir == "" && cfg.Storage.CacheDir != "" {
		cacheDir = cfg.Storage.CacheDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components := app.Build(cfg)
	slog.Info("starting batch", "name", b.name, "count", len(b.inputs), "mode", cfg.DashScope.ASRMode)

	out := cmd.OutOrStdout()
	result, err := components.Pipeline.Run(ctx, pipeline.Request{
		Inputs:       b.inputs,
		BatchName:    b.name,
		OutputRoot:   outputRoot,
		TempRoot:     firstNonEmpty(opts.tmpDir, cfg.Storage.TempDir),
		CacheDir:     cacheDir,
		Summary:      b.summary,
		UseCache:     !opts.noCache,
		PlatformHint: b.platform,
		OnProgress:   consoleProgress(out),
	})
	if err != nil {
		return err
	}

	files, err := exporters.ExportAll(ctx, b.formats, result.Results, exporters.Meta{
		BatchName: b.name,
		OutputDir: result.OutputDir,
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		slog.Debug("exported", "file", f)
	}

	fmt.Fprintf(out, "Done. Output: %s\n", result.OutputDir)
	return nil
}

// resolveBatch merges the manifest with the flags. Flags win; inputs from all
// sources are concatenated in manifest, links file, --inputs order.
func resolveBatch(opts runOptions, m *manifest, links []string, exportChanged bool) (*batch, error) {
	if m == nil {
		m = &manifest{}
	}

	b := &batch{
		name:    strings.TrimSpace(firstNonEmpty(opts.name, m.Name)),
		summary: opts.summary || m.Summary,
	}
	if b.name == "" {
		return nil, apperrors.MissingFieldError("name")
	}

	for _, group := range [][]string{m.Inputs, links, opts.inputs} {
		for _, in := range group {
			if in = strings.TrimSpace(in); in != "" {
				b.inputs = append(b.inputs, in)
			}
		}
	}
	if len(b.inputs) == 0 {
		return nil, apperrors.ValidationError("inputs", "no links or files given")
	}

	b.platform = models.ParsePlatform(firstNonEmpty(opts.platform, m.Platform))

	exportValues := strings.Split(opts.exports, ",")
	if !exportChanged && len(m.Export) > 0 {
		exportValues = m.Export
	}
	formats, err := exporters.ParseFormats(exportValues...)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		formats = exporters.DefaultFormats
	}
	b.formats = formats

	return b, nil
}

// loadManifest reads a YAML batch manifest
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// readLinks reads one input per line, skipping blanks and # comments
func readLinks(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening links file: %w", err)
	}
	defer file.Close()
	return parseLinks(file)
}

func parseLinks(r io.Reader) ([]string, error) {
	var links []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading links: %w", err)
	}
	return links, nil
}

// consoleProgress prints one line per stage transition
func consoleProgress(w io.Writer) pipeline.ProgressFunc {
	return func(step pipeline.Step, current, total int, message string) {
		if message == "" {
			message = step.Message()
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", current, total, message)
	}
}

// batchInputs joins --inputs values with positional arguments
func batchInputs(flagged, args []string) []string {
	inputs := make([]string, 0, len(flagged)+len(args))
	inputs = append(inputs, flagged...)
	return append(inputs, args...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
