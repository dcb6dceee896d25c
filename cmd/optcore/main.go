package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/nbecore/optcore/internal/buildcache"
	"github.com/nbecore/optcore/internal/driver"
)

// main wires the ambient YAML config, one or more independent module
// sets, and the optional persistent build cache into internal/driver's
// fold. Several module sets compile concurrently via errgroup
// (internal/driver's own fold stays single-threaded and deterministic
// per set, per §5); a panic anywhere in that fold is caught here, by a
// recover in each module set's goroutine, the same way the teacher's
// cmd/funxy main() guards its own pipeline run.
func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "optcore: internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	configPath, moduleSetArgs := parseArgs(os.Args[1:])
	if configPath == "" && len(moduleSetArgs) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config path.yaml] <module-set.json> ...\n", os.Args[0])
		os.Exit(1)
	}

	cfg := CLIConfig{ModuleSets: moduleSetArgs}
	if configPath != "" {
		loaded, err := loadCLIConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		loaded.ModuleSets = append(loaded.ModuleSets, moduleSetArgs...)
		cfg = loaded
	}
	if cfg.RewriteLimit <= 0 {
		cfg.RewriteLimit = 10000
	}
	if len(cfg.ModuleSets) == 0 {
		fmt.Fprintf(os.Stderr, "optcore: no module sets given (via -config or as arguments)\n")
		os.Exit(1)
	}

	var cache *buildcache.Cache
	if cfg.CachePath != "" {
		c, err := buildcache.Open(cfg.CachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "optcore: opening cache: %v\n", err)
			os.Exit(1)
		}
		cache = c
		defer cache.Close()
	}

	trace := traceWriter(os.Stdout)

	g, ctx := errgroup.WithContext(context.Background())
	for _, path := range cfg.ModuleSets {
		path := path
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if os.Getenv("DEBUG") == "1" {
						panic(r)
					}
					err = fmt.Errorf("optcore: internal error: %v", r)
				}
			}()
			return runModuleSet(ctx, path, cfg, cache, trace)
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func runModuleSet(ctx context.Context, path string, cfg CLIConfig, cache *buildcache.Cache, trace *coloredWriter) error {
	modules, err := loadModuleSet(path)
	if err != nil {
		return err
	}

	hashesByModule := make(map[string]map[string][]byte, len(modules))
	if cache != nil {
		for i, m := range modules {
			hashes, err := warmModule(ctx, cache, m.Name, m.Groups)
			if err != nil {
				return err
			}
			hashesByModule[m.Name.String()] = hashes
			modules[i] = m
		}
	}

	opts := driver.Options{
		RewriteLimit:       cfg.RewriteLimit,
		EnableEtaReduction: cfg.EnableEtaReduction,
		Trace:              trace.forModuleSet(path),
	}

	outputs, _, err := driver.Run(modules, opts)
	if err != nil {
		return fmt.Errorf("optcore: %s: %w", path, err)
	}

	if cache != nil {
		for _, out := range outputs {
			hashes := hashesByModule[out.Module.Name.String()]
			if hashes == nil {
				continue
			}
			if err := storeModule(ctx, cache, out, hashes); err != nil {
				return err
			}
		}
	}

	for _, out := range outputs {
		fmt.Fprintf(trace.underlying(), "optcore: compiled %s (%d declarations)\n", out.Module.Name, len(out.Bindings))
	}
	return nil
}

// parseArgs extracts an optional "-config path" pair from a teacher-style
// flat argument list (no flag package, matching cmd/funxy/main.go's own
// manual os.Args scanning), leaving everything else as module-set paths.
func parseArgs(args []string) (configPath string, rest []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "-config" || args[i] == "--config" {
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
			continue
		}
		rest = append(rest, args[i])
	}
	return configPath, rest
}

// isTerminalOut reports whether f is a terminal optcore should colorize
// trace output for, the same isatty.IsTerminal/IsCygwinTerminal pairing
// the teacher's detectColorLevel uses for os.Stdout.
func isTerminalOut(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
