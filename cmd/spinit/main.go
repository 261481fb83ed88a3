package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/db"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
	"github.com/hpungsan/spinit/internal/store"
	"github.com/hpungsan/spinit/internal/wheel"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"create": true, "edit": true, "delete": true, "list": true,
	"option": true, "layout": true, "spin": true,
	"export": true, "import": true, "reset": true,
	"ui": true, "mcp": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	// Global flags ahead of a subcommand
	if strings.HasPrefix(arg, "--ephemeral") {
		return true
	}
	return isHelpOrVersion()
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ ___ ___ _  _ ___ _____
  / __| _ \_ _| \| |_ _|_   _|
  \__ \  _/| || .' || |  | |
  |___/_| |___|_|\_|___| |_|

  Spin a wheel, let it decide

  Usage: spinit <command> [options]
         spinit ui          open the wheel in your browser
         spinit --help

  MCP server mode requires piped input.`)
}

// newLogger returns a text logger on stderr. SPINIT_LOG_LEVEL=debug turns on
// request and spin logging.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("SPINIT_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// appEnv is the state shared by every command. It is opened lazily so that
// help output never touches the database.
type appEnv struct {
	baseDir string
	cfg     *config.Config
	log     *slog.Logger

	coll     *ops.Collection
	sessions *session.Manager
	closeDB  func() error

	// noStore marks help/version runs, which never open storage.
	noStore bool
	// owned is set when open created the collection, so close may tear it down.
	owned bool
}

// open wires storage, the collection and the session manager. An ephemeral
// environment keeps everything in memory.
func (e *appEnv) open(ctx context.Context, ephemeral bool) error {
	if e.coll != nil || e.noStore {
		return nil
	}
	if e.cfg == nil {
		e.cfg = config.DefaultConfig()
	}
	if e.log == nil {
		e.log = slog.Default()
	}

	var kv store.KV
	if ephemeral {
		kv = store.NewMemory()
	} else {
		database, driver, err := db.Open(e.baseDir, e.cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		e.closeDB = database.Close
		kv = db.NewKV(database, driver)
	}

	e.coll = ops.New(e.cfg, store.NewAdapter(kv, e.log), e.log)
	e.coll.Load(ctx)
	e.sessions = session.NewManager(e.coll, session.Deps{
		Params:    wheel.ParamsFromConfig(e.cfg),
		SoundName: e.cfg.SpinSound,
		Logger:    e.log,
	})
	e.owned = true
	return nil
}

// close stops open wheels, flushes pending saves and closes the database.
func (e *appEnv) close() error {
	if !e.owned {
		return nil
	}
	e.owned = false
	e.sessions.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := e.coll.Close(ctx)
	if err != nil {
		e.log.Error("Error saving spinners", "error", err)
	}
	if e.closeDB != nil {
		if cerr := e.closeDB(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	logger := newLogger()
	slog.SetDefault(logger)

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(&appEnv{log: logger, noStore: true})
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".spinit")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := &appEnv{baseDir: baseDir, cfg: cfg, log: logger}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'spinit --help' for usage.\n")
		os.Exit(1)
	}

	args := os.Args
	if !isCLIMode() {
		// MCP server mode (default)
		args = []string{os.Args[0], "mcp"}
	}

	app := newCLIApp(env)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
