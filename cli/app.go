// Package cli wires the scanner, registry and rewriter into a command line
// tool.
package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ucmigrate/mountscan/config"
	"github.com/ucmigrate/mountscan/mount"
	"github.com/ucmigrate/mountscan/pattern"
	"github.com/ucmigrate/mountscan/report"
	"github.com/ucmigrate/mountscan/repository"
	"github.com/ucmigrate/mountscan/rewrite"
	"github.com/ucmigrate/mountscan/scan"
)

// Run executes the given command line and returns a process exit code.
func Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	var err error
	switch args[0] {
	case "scan":
		err = runScan(ctx, args[1:])
	case "rewrite":
		err = runRewrite(ctx, args[1:])
	case "help", "-h", "--help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		usage()
		return 2
	}
	if err != nil {
		log.Printf("error: %v", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  mountscan scan    -dir <path> -mounts <mounts.csv> -out <issues.csv> [-config <scan.yaml>]
  mountscan rewrite -dir <path> -mounts <mounts.csv> [-issues <issues.csv>] [-config <scan.yaml>]`)
}

func runScan(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("scan", flag.ContinueOnError)
	dir := flags.String("dir", ".", "directory tree to scan")
	mountsPath := flags.String("mounts", "", "mounts table CSV")
	out := flags.String("out", "issues.csv", "issues output CSV")
	configPath := flags.String("config", "", "scan configuration YAML")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	scanner, walker, err := buildScan(cfg, *dir, *mountsPath)
	if err != nil {
		return err
	}

	issues, err := scanner.Scan(ctx, walker)
	if err != nil {
		return err
	}
	logSummary(issues)

	file, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	defer file.Close()
	if err := report.Write(file, issues); err != nil {
		return err
	}
	log.Printf("wrote %d issues to %s", len(issues), *out)
	return nil
}

func runRewrite(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	dir := flags.String("dir", ".", "directory tree to rewrite")
	mountsPath := flags.String("mounts", "", "mounts table CSV")
	issuesPath := flags.String("issues", "", "issues CSV from a previous scan; empty rescans")
	configPath := flags.String("config", "", "scan configuration YAML")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	var issues []scan.Issue
	if *issuesPath != "" {
		file, err := os.Open(*issuesPath)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", *issuesPath, err)
		}
		defer file.Close()
		if issues, err = report.Read(file); err != nil {
			return err
		}
	} else {
		scanner, walker, err := buildScan(cfg, *dir, *mountsPath)
		if err != nil {
			return err
		}
		if issues, err = scanner.Scan(ctx, walker); err != nil {
			return err
		}
	}

	resolver := rewrite.NewResolver(
		rewrite.NewFileReader(*dir),
		rewrite.NewFileWriter(*dir),
		rewrite.WithLookupFunction(cfg.LookupFunction),
		rewrite.WithMaybes(cfg.IncludeMaybes),
	)
	accepted := resolver.Filter(issues)
	log.Printf("rewriting %d of %d issues", len(accepted), len(issues))
	return resolver.Apply(ctx, issues)
}

func buildScan(cfg *config.Config, dir, mountsPath string) (*scan.Scanner, *scan.LocalWalker, error) {
	if mountsPath == "" {
		return nil, nil, fmt.Errorf("a mounts table is required, pass -mounts")
	}
	data, err := os.ReadFile(mountsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read mounts table %s: %w", mountsPath, err)
	}
	registry, err := mount.RegistryFromCSV(data, mount.WithValidPrefix(cfg.ValidPrefix))
	if err != nil {
		return nil, nil, err
	}
	log.Printf("loaded %d mounts, session %s", registry.Len(), registry.SessionID())

	engine, err := pattern.New(cfg.PatternEngine)
	if err != nil {
		return nil, nil, err
	}

	metadata := map[string]string{}
	if target, err := repository.New().Detect(dir); err == nil {
		log.Printf("scanning %s project %s", target.Kind, target.Name)
		if target.Origin != "" {
			metadata[scan.MetaRepoOrigin] = target.Origin
		}
	}

	walker := scan.NewLocalWalker([]string{dir},
		scan.WithSourceMetadata(metadata),
		scan.WithProgress(scan.Progress{
			SetCurrentFile: func(name string) {
				if name != "" {
					log.Printf("scanning %s", name)
				}
			},
		}),
	)
	scanner := scan.NewScanner(registry,
		scan.WithEngine(engine),
		scan.WithLookupFunction(cfg.LookupFunction),
		scan.WithPrimaryExtension(cfg.PrimaryExtension),
		scan.WithWorkers(cfg.Workers),
	)
	return scanner, walker, nil
}

func logSummary(issues []scan.Issue) {
	byDetail := map[string]int{}
	for _, issue := range issues {
		byDetail[issue.Detail]++
	}
	for detail, count := range byDetail {
		log.Printf("  %-40s %d", detail, count)
	}
}
