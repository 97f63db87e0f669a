package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/codewithboateng/jinspect/internal/analysis"
	"github.com/codewithboateng/jinspect/internal/api"
	"github.com/codewithboateng/jinspect/internal/fixes"
	"github.com/codewithboateng/jinspect/internal/ir"
	"github.com/codewithboateng/jinspect/internal/loader"
	"github.com/codewithboateng/jinspect/internal/messages"
	"github.com/codewithboateng/jinspect/internal/reporting"
	"github.com/codewithboateng/jinspect/internal/rules"
	"github.com/codewithboateng/jinspect/internal/rulesdsl"
	"github.com/codewithboateng/jinspect/internal/security"
	"github.com/codewithboateng/jinspect/internal/shared"
	"github.com/codewithboateng/jinspect/internal/storage"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "analyze":
		analyzeCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "diff":
		diffCmd(os.Args[2:])
	case "fix":
		fixCmd(os.Args[2:])
	case "rules":
		rulesCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	case "useradd":
		useraddCmd(os.Args[2:])
	case "version":
		fmt.Println("jinspect", version, "IR:", ir.Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `jinspect – serialization inspections for Java class trees

Usage:
  jinspect analyze --path <snapshot-dir> [--out ./reports] [--db ./jinspect.db] [--workers 4] [--severity LOW] [--locale en] [--pack rules.yaml] [--config jinspect.yaml]
  jinspect report  --run <run-id>  [--out ./reports] [--db ./jinspect.db] [--config jinspect.yaml]
  jinspect diff    --base <run-id> --head <run-id> [--out ./reports] [--db ./jinspect.db] [--config jinspect.yaml]
  jinspect fix     --path <snapshot-dir> [--apply] [--rule <id>] [--config jinspect.yaml]
  jinspect rules   [--locale en] [--pack rules.yaml]
  jinspect serve   [--addr :8080] [--db ./jinspect.db] [--origins https://a,https://b] [--config jinspect.yaml]
  jinspect useradd --username <name> --password <pw> [--role viewer|admin] [--db ./jinspect.db]
  jinspect version
`)
}

func loadConfig(path string) shared.Config {
	cfg, err := shared.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)
	return cfg
}

func openDB(path string) *storage.DB {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}
	return db
}

// loadPack registers a rule pack and returns the message formatter that
// knows its templates.
func loadPack(path, locale string) messages.Formatter {
	msgs, err := messages.Load(locale)
	if err != nil {
		slog.Error("messages", "err", err)
		os.Exit(1)
	}
	if path == "" {
		return msgs
	}
	pack, err := rulesdsl.LoadAndRegister(path)
	if err != nil {
		slog.Error("rules pack error", "path", path, "err", err)
		os.Exit(1)
	}
	slog.Info("rules pack loaded", "path", path, "rules", len(pack.Rules))
	return messages.Overlay(msgs, pack.Templates)
}

func analyzeCmd(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("path", "", "Snapshot directory")
	outDir := fs.String("out", "", "Output directory for reports")
	dbPath := fs.String("db", "", "SQLite database path")
	workers := fs.Int("workers", 0, "Concurrent passes")
	severity := fs.String("severity", "", "Minimum rule severity (LOW|MEDIUM|HIGH)")
	locale := fs.String("locale", "", "Message locale")
	packPath := fs.String("pack", "", "Declarative rules pack (YAML)")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)

	// precedence: flags > config > defaults
	if *inPath == "" && len(cfg.Analysis.Sources) > 0 {
		*inPath = cfg.Analysis.Sources[0]
	}
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *workers <= 0 {
		*workers = cfg.Analysis.Workers
	}
	if *locale == "" {
		*locale = cfg.Analysis.Locale
	}
	settings := cfg.RuleSettings()
	if *severity != "" {
		settings.SeverityThreshold = strings.ToUpper(*severity)
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "analyze: --path (or analysis.sources in config) is required")
		os.Exit(2)
	}

	msgs := loadPack(*packPath, *locale)
	db := openDB(*dbPath)
	defer db.Close()

	waivers, err := db.ListWaivers(true)
	if err != nil {
		slog.Error("load waivers error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := analysis.Analyze(ctx, analysis.Request{
		Root:     *inPath,
		Settings: settings,
		Workers:  *workers,
		Messages: msgs,
		Locale:   *locale,
		Waivers:  waivers,
		Logger:   slog.Default(),
	})
	if err != nil {
		slog.Error("analyze error", "err", err)
		os.Exit(1)
	}
	run := res.Run
	if err := db.SaveRun(&run); err != nil {
		slog.Error("db save run error", "err", err)
		os.Exit(1)
	}

	jsonPath, err := reporting.WriteJSON(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write json report", "err", err)
		os.Exit(1)
	}
	htmlPath, err := reporting.WriteHTML(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write html report", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Analyze OK\n  Run: %s\n  Units: %d  Issues: %d  Waived: %d\n  JSON: %s\n  HTML: %s\n  DB: %s\n",
		run.ID, len(run.Units), len(run.Issues), run.Context.Waived, jsonPath, htmlPath, filepath.Clean(*dbPath))
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	runID := fs.String("run", "", "Run ID (or 'latest')")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *runID == "" {
		fmt.Fprintln(os.Stderr, "report: --run is required")
		os.Exit(2)
	}

	db := openDB(*dbPath)
	defer db.Close()

	var (
		run ir.Run
		err error
	)
	if *runID == "latest" {
		run, err = db.LoadLatestRun()
	} else {
		run, err = db.LoadRun(*runID)
	}
	if err != nil {
		slog.Error("load run error", "run", *runID, "err", err)
		os.Exit(1)
	}
	jsonPath, err := reporting.WriteJSON(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write json report", "err", err)
		os.Exit(1)
	}
	htmlPath, err := reporting.WriteHTML(run.ID, *outDir, &run)
	if err != nil {
		slog.Error("write html report", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Report OK\n  Run: %s\n  JSON: %s\n  HTML: %s\n", run.ID, jsonPath, htmlPath)
}

func diffCmd(args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	base := fs.String("base", "", "Base run ID")
	head := fs.String("head", "", "Head run ID")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *base == "" || *head == "" {
		fmt.Fprintln(os.Stderr, "diff: --base and --head are required")
		os.Exit(2)
	}
	db := openDB(*dbPath)
	defer db.Close()

	br, err := db.LoadRun(*base)
	if err != nil {
		slog.Error("load base run error", "err", err)
		os.Exit(1)
	}
	hr, err := db.LoadRun(*head)
	if err != nil {
		slog.Error("load head run error", "err", err)
		os.Exit(1)
	}
	path, err := reporting.WriteDiffJSON(*base, *head, *outDir, &br, &hr)
	if err != nil {
		slog.Error("write diff", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Diff OK\n  %s\n", path)
}

func fixCmd(args []string) {
	fs := flag.NewFlagSet("fix", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	inPath := fs.String("path", "", "Snapshot directory")
	apply := fs.Bool("apply", false, "Write the fixes (default: list them)")
	ruleID := fs.String("rule", "", "Only fix issues of this rule")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *inPath == "" && len(cfg.Analysis.Sources) > 0 {
		*inPath = cfg.Analysis.Sources[0]
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "fix: --path is required")
		os.Exit(2)
	}
	msgs := loadPack("", cfg.Analysis.Locale)

	res, err := analysis.Analyze(context.Background(), analysis.Request{
		Root:     *inPath,
		Settings: cfg.RuleSettings(),
		Workers:  cfg.Analysis.Workers,
		Messages: msgs,
		Locale:   cfg.Analysis.Locale,
	})
	if err != nil {
		slog.Error("analyze error", "err", err)
		os.Exit(1)
	}

	var todo []ir.Issue
	for _, is := range res.Run.Issues {
		if is.Action == nil {
			continue
		}
		if *ruleID != "" && !strings.EqualFold(is.RuleID, *ruleID) {
			continue
		}
		todo = append(todo, is)
	}
	for _, is := range todo {
		fmt.Printf("%s:%d  %s  %s\n", is.Unit, is.Line, is.Node, msgs.Format("fix."+is.Fix))
	}
	if !*apply {
		fmt.Printf("%d fix(es) available; rerun with --apply to write them\n", len(todo))
		return
	}

	ed := loader.NewEditor(res.Files)
	results, applyErr := fixes.Apply(todo, ed)
	if err := ed.Save(); err != nil {
		slog.Error("save error", "err", err)
		os.Exit(1)
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("fix failed", "issue", r.IssueID, "err", r.Err)
		}
	}
	fmt.Printf("Fix OK\n  Applied: %d  Failed: %d\n", len(results)-failed, failed)
	if applyErr != nil {
		os.Exit(1)
	}
}

func rulesCmd(args []string) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	locale := fs.String("locale", messages.DefaultLocale, "Message locale")
	packPath := fs.String("pack", "", "Declarative rules pack (YAML)")
	_ = fs.Parse(args)

	shared.InitLogger("text", "warn")
	msgs := loadPack(*packPath, *locale)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tFIX\tNAME")
	for _, r := range rules.List() {
		fix := "-"
		if r.Fix != nil {
			fix = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, fix, msgs.Format(r.DisplayKey))
	}
	_ = tw.Flush()
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	origins := fs.String("origins", "", "Comma-separated CORS origins")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	db := openDB(*dbPath)
	defer db.Close()

	var allowed []string
	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	s := &api.Server{
		DB:              db,
		UserStore:       db,
		Messages:        messages.MustLoad(cfg.Analysis.Locale),
		Logger:          slog.Default(),
		AllowedOrigins:  allowed,
		SessionDuration: 12 * time.Hour,
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	slog.Info("api listening", "addr", *addr, "db", filepath.Clean(*dbPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func useraddCmd(args []string) {
	fs := flag.NewFlagSet("useradd", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	username := fs.String("username", "", "User name")
	password := fs.String("password", "", "Password")
	role := fs.String("role", storage.RoleViewer, "viewer|admin")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "useradd: --username and --password are required")
		os.Exit(2)
	}
	if *role != storage.RoleViewer && *role != storage.RoleAdmin {
		fmt.Fprintln(os.Stderr, "useradd: --role must be viewer or admin")
		os.Exit(2)
	}
	hash, err := security.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "useradd:", err)
		os.Exit(2)
	}
	db := openDB(*dbPath)
	defer db.Close()
	id, err := db.CreateUser(*username, hash, *role)
	if err != nil {
		slog.Error("create user error", "err", err)
		os.Exit(1)
	}
	_ = db.LogAudit("cli", "user:create", *username, map[string]any{"role": *role})
	fmt.Printf("User OK\n  ID: %d  Name: %s  Role: %s\n", id, *username, *role)
}
