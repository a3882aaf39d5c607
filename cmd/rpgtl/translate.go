package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/ZaguanLabs/rpgtl/cache"
	"github.com/ZaguanLabs/rpgtl/config"
	"github.com/ZaguanLabs/rpgtl/document"
	"github.com/ZaguanLabs/rpgtl/internal/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// translateFlags mirror the config file keys they override.
type translateFlags struct {
	target        string
	source        string
	outputDir     string
	indent        bool
	endpoints     []string
	maxConcurrent int
	interval      time.Duration
	timeout       time.Duration
	retries       int
	sticky        bool
	provider      string
	model         string
	cacheType     string
	cacheTTL      int
	redisURL      string
	sqlitePath    string
	exportCache   string
	importCache   string
	quiet         bool
}

func newTranslateCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	f := &translateFlags{}

	cmd := &cobra.Command{
		Use:   "translate FILE...",
		Short: "Translate RPG Maker data files",
		Long: `Translate the text of one or more RPG Maker data files. Files are processed
concurrently and share one request queue, so --max-concurrent and --interval
bound the total load on the translation endpoints. Each translated file is
written to the output directory under its original name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g, f)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log.Level, cfg.Log.Format, stderr)
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), cfg, f, args, logger, stdout)
		},
	}

	cmd.Flags().StringVarP(&f.target, "target", "t", "", "Target language code (e.g. ja, es, zh_HANT)")
	cmd.Flags().StringVar(&f.source, "source", "", "Source language code (default: auto)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "translated", "Directory for translated files")
	cmd.Flags().BoolVar(&f.indent, "indent", false, "Indent output JSON")
	cmd.Flags().StringArrayVar(&f.endpoints, "endpoint", nil, "Lingva endpoint base URL (repeatable, tried in order)")
	cmd.Flags().IntVar(&f.maxConcurrent, "max-concurrent", 0, "Maximum requests in flight (default 5)")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "Minimum gap between request starts (default 500ms)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-request timeout (default 15s)")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Retries for retryable failures")
	cmd.Flags().BoolVar(&f.sticky, "sticky", false, "Start each request at the last endpoint that answered")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Translation backend: lingva or openai")
	cmd.Flags().StringVar(&f.model, "model", "", "OpenAI model")
	cmd.Flags().StringVar(&f.cacheType, "cache", "", "Cache: memory, redis, sqlite or none")
	cmd.Flags().IntVar(&f.cacheTTL, "cache-ttl", 0, "Cache TTL in seconds (0 = never expire)")
	cmd.Flags().StringVar(&f.redisURL, "redis-url", "", "Redis URL (or "+config.EnvRedisURL+" env)")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite-path", "", "SQLite cache file")
	cmd.Flags().StringVar(&f.exportCache, "export-cache", "", "Write the cache to this JSON file when done")
	cmd.Flags().StringVar(&f.importCache, "import-cache", "", "Load cache entries from this JSON file first")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress the per-file summary")

	return cmd
}

// resolveConfig layers defaults, the config file, the environment and the
// flags that were set explicitly, then validates the result.
func resolveConfig(cmd *cobra.Command, g *globalFlags, f *translateFlags) (*config.File, error) {
	cfg, err := config.Load(g.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("target") {
		cfg.TargetLang = f.target
	}
	if flags.Changed("source") {
		cfg.SourceLang = f.source
	}
	if flags.Changed("endpoint") {
		cfg.Endpoints = f.endpoints
	}
	if flags.Changed("max-concurrent") {
		cfg.MaxConcurrent = f.maxConcurrent
	}
	if flags.Changed("interval") {
		ms := int(f.interval / time.Millisecond)
		cfg.MinDispatchIntervalMs = &ms
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = int(f.timeout / time.Second)
	}
	if flags.Changed("retries") {
		cfg.Retries = f.retries
	}
	if flags.Changed("sticky") {
		cfg.StickyEndpoint = f.sticky
	}
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("model") {
		cfg.OpenAI.Model = f.model
	}
	if flags.Changed("cache") {
		cfg.Cache.Type = f.cacheType
	}
	if flags.Changed("cache-ttl") {
		cfg.Cache.TTL = f.cacheTTL
	}
	if flags.Changed("redis-url") {
		cfg.Cache.RedisURL = f.redisURL
	}
	if flags.Changed("sqlite-path") {
		cfg.Cache.SQLitePath = f.sqlitePath
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileResult is the outcome of translating one input file.
type fileResult struct {
	input   string
	output  string
	result  *rpgtl.ProcessedDocument
	elapsed time.Duration
}

func runTranslate(ctx context.Context, cfg *config.File, f *translateFlags, files []string, logger *slog.Logger, stdout io.Writer) error {
	a, err := app.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing cache", "error", err)
		}
	}()

	if f.importCache != "" {
		if err := importCache(a.Cache, f.importCache, cfg, logger); err != nil {
			return err
		}
	}

	seen := make(map[string]string, len(files))
	for _, path := range files {
		base := filepath.Base(path)
		if prev, ok := seen[base]; ok {
			return fmt.Errorf("%s and %s would both be written as %s", prev, path, base)
		}
		seen[base] = path
	}

	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			r, err := translateFile(gctx, a.Translator, path, f.outputDir, f.indent)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !f.quiet {
		for _, r := range results {
			fmt.Fprintf(stdout, "%s -> %s: %d units, %d translated, %d cached, %d failed (%v)\n",
				r.input, r.output,
				r.result.TotalUnits, r.result.TranslatedCount, r.result.CachedCount,
				r.result.FailedCount+r.result.PatchFailures,
				r.elapsed.Round(time.Millisecond))
		}
	}

	if f.exportCache != "" {
		if a.Cache == nil {
			return fmt.Errorf("--export-cache requires a cache")
		}
		meta := map[string]string{
			cache.MetaSourceLang: rpgtl.NormalizeLang(cfg.SourceLang),
			cache.MetaTargetLang: rpgtl.NormalizeLang(cfg.TargetLang),
		}
		n, err := cache.NewExporter(a.Cache).ExportToFile(ctx, f.exportCache, meta)
		if err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}
		logger.Info("cache exported", "path", f.exportCache, "entries", n)
	}

	return nil
}

// translateFile translates one file and writes it into outputDir.
func translateFile(ctx context.Context, t *rpgtl.Translator, path, outputDir string, indent bool) (fileResult, error) {
	start := time.Now()

	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return fileResult{}, fmt.Errorf("reading file: %w", err)
	}

	root, err := document.Parse(data)
	if err != nil {
		return fileResult{}, &rpgtl.DocumentError{Message: "parse failed", Cause: err}
	}

	result, err := t.TranslateDocument(ctx, root)
	if err != nil {
		return fileResult{}, err
	}

	var out []byte
	if indent {
		out, err = document.MarshalIndent(root, "", "  ")
	} else {
		out, err = document.Marshal(root)
	}
	if err != nil {
		return fileResult{}, &rpgtl.DocumentError{Message: "encode failed", Cause: err}
	}

	output := filepath.Join(outputDir, filepath.Base(path))
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fileResult{}, fmt.Errorf("writing output: %w", err)
	}

	return fileResult{input: path, output: output, result: result, elapsed: time.Since(start)}, nil
}

// importCache loads a translation-memory file into c.
func importCache(c cache.TranslationCache, path string, cfg *config.File, logger *slog.Logger) error {
	if c == nil {
		return fmt.Errorf("--import-cache requires a cache")
	}

	res, err := cache.NewImporter(c).ImportFromFile(path)
	if err != nil {
		return fmt.Errorf("importing cache: %w", err)
	}

	if src, tgt := res.LanguagePair(); tgt != "" && tgt != rpgtl.NormalizeLang(cfg.TargetLang) {
		logger.Warn("imported cache was built for another language pair",
			"source", src, "target", tgt)
	}
	logger.Info("cache imported", "path", path, "entries", res.Imported, "failed", res.Failed)
	return nil
}
