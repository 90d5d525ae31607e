// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the mocword word completion and next-word prediction
CLI and IPC server.

mocword answers queries from a pre-built n-gram corpus holding words and
2 to 5 word sequences. A query is a line of text: when it ends with
whitespace the next word is predicted, otherwise the last word is completed.
Candidates found with the longest matching context come first; shorter
contexts fill in the rest unless strict mode is on.

# Usage

Complete a single query, one word per line:

	mocword -data corpus.sqlite -q "the ca"

Answer one query per input line, words separated by spaces:

	mocword -data corpus.sqlite

Serve msgpack requests over stdin/stdout for editor integration:

	mocword -data corpus.sqlite -s

Load the corpus into memory and print its size:

	mocword -data corpus.sqlite -backend memory -info

Dump a database into a snapshot that loads without SQLite:

	mocword -data corpus.sqlite -export corpus.snap

# Store location

The corpus path is taken from the -data flag, then the MOCWORD_DATA
environment variable, then [store].path in the config file. Relative paths
are tried against the working directory, the executable directory and the
config directory.

# Configuration

Runtime configuration lives in mocword.toml in the user config directory and
is created with defaults when missing:

	[store]
	path = ""
	backend = "auto"

	[engine]
	default_limit = 10
	strict = false
	cache_size = 1024

	[server]
	max_limit = 64
	max_query_len = 256

	[cli]
	stop_on_error = false

# Command Line Flags

	-data string     corpus file (SQLite database or snapshot)
	-backend string  auto, sqlite or memory
	-config string   config file path
	-q string        answer one query and exit
	-limit int       number of suggestions to return (default from config)
	-strict          only use the longest matching context
	-cache int       result cache size (default from config)
	-s               run the msgpack IPC server
	-info            print entry counts per order and exit
	-export string   write the corpus to a snapshot file and exit
	-d               debug logging
	-rebuild-config  overwrite the default config with built-in defaults and exit
	-version         show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/mocword/internal/cli"
	"github.com/bastiangx/mocword/internal/utils"
	"github.com/bastiangx/mocword/pkg/config"
	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/bastiangx/mocword/pkg/server"
	"github.com/bastiangx/mocword/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = utils.AppName
	gh      = "https://github.com/bastiangx/mocword"

	// dataEnv names the environment variable holding the store path.
	dataEnv = "MOCWORD_DATA"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main resolves config and the store, then hands over to the CLI loop,
// the one-shot query or the IPC server.
func main() {
	sigHandler()
	log.SetOutput(os.Stderr)

	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", "", "Corpus file, SQLite database or snapshot (default $"+dataEnv+" or [store].path)")
	backendName := flag.String("backend", "", "Store backend: auto, sqlite or memory (default [store].backend)")
	configPath := flag.String("config", "", "Path to the config file")
	query := flag.String("q", "", "Answer a single query and exit")
	limit := flag.Int("limit", 0, "Number of suggestions to return (default [engine].default_limit)")
	strict := flag.Bool("strict", false, "Only use the longest matching context")
	cacheSize := flag.Int("cache", -1, "Result cache size, 0 disables (default [engine].cache_size)")
	serverMode := flag.Bool("s", false, "Run the msgpack IPC server on stdin/stdout")
	showInfo := flag.Bool("info", false, "Print entry counts per order and exit")
	exportPath := flag.String("export", "", "Write the corpus to a snapshot file and exit")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config file with built-in defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *rebuildConfig {
		path, err := config.RebuildConfigFile()
		if err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		fmt.Println(path)
		return
	}

	cfg, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Invalid config %s: %v", config.GetActiveConfigPath(usedConfig), err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfig))

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if explicit["strict"] {
		cfg.Engine.Strict = *strict
	}
	if *cacheSize >= 0 {
		cfg.Engine.CacheSize = *cacheSize
	}
	if !explicit["limit"] {
		*limit = cfg.Engine.DefaultLimit
	}
	if *backendName == "" {
		*backendName = cfg.Store.Backend
	}

	backend, err := corpus.ParseBackend(*backendName)
	if err != nil {
		log.Fatalf("Invalid backend: %v", err)
	}
	storePath := resolveStorePath(*dataPath, cfg.Store.Path)

	ctx := context.Background()
	store, err := corpus.Open(ctx, storePath, backend)
	if err != nil {
		log.Fatalf("Failed to open corpus: %v", err)
	}
	defer store.Close()
	log.Debugf("Using corpus at: %s", storePath)

	switch {
	case *exportPath != "":
		if err := exportSnapshot(ctx, store, *exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	case *showInfo:
		if err := printInfo(ctx, store, storePath); err != nil {
			log.Fatalf("Failed to read corpus: %v", err)
		}
		return
	}

	engine := suggest.NewEngine(store, suggest.Options{
		Strict:    cfg.Engine.Strict,
		CacheSize: cfg.Engine.CacheSize,
	})
	log.Debug("Engine ready", "strict", cfg.Engine.Strict, "cache", cfg.Engine.CacheSize, "limit", *limit)

	if *serverMode {
		srv := server.NewServer(engine, cfg)
		showStartupInfo(storePath)
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	handler := cli.NewInputHandler(engine, *limit, cfg.CLI.StopOnError)
	if *query != "" {
		if err := handler.RunOnce(ctx, *query, os.Stdout); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := handler.Start(ctx); err != nil {
		log.Fatalf("CLI error: %v", err)
	}
}

// resolveStorePath applies flag, environment and config precedence, then
// looks the file up in the usual places.
func resolveStorePath(flagPath, configPath string) string {
	path := flagPath
	if path == "" {
		path = os.Getenv(dataEnv)
	}
	if path == "" {
		path = configPath
	}
	pr, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Failed to initialize path resolver: %v", err)
		return path
	}
	if log.GetLevel() <= log.DebugLevel {
		for k, v := range pr.GetRuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}
	return pr.GetStorePath(path)
}

// exportSnapshot writes a SQLite corpus to a snapshot file.
func exportSnapshot(ctx context.Context, store corpus.Store, path string) error {
	db, ok := store.(*corpus.SQLiteStore)
	if !ok {
		return fmt.Errorf("export needs the sqlite backend, got %T", store)
	}
	snap, err := db.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := corpus.SaveSnapshot(path, snap); err != nil {
		return err
	}
	log.Infof("Wrote %d words to %s", len(snap.Words), path)
	return nil
}

// printInfo prints entry counts per order on stdout.
func printInfo(ctx context.Context, store corpus.Store, path string) error {
	st, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%T)\n", path, store)
	for k := 1; k <= corpus.MaxOrder; k++ {
		fmt.Printf("%-12s %d\n", corpus.TableName(k), st.Counts[k])
	}
	fmt.Printf("%-12s %d\n", "total", st.Total())
	return nil
}

// printVersion shows the version banner on stderr.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ mocword ] n-gram word completion and prediction")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the server on stderr.
func showStartupInfo(storePath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("corpus: ( %s )", storePath)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
