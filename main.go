package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/safelist/cmd"
	"github.com/illarion/safelist/internal/config"
	"github.com/illarion/safelist/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// commands that need no configuration
	switch os.Args[1] {
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
		return
	case "completion":
		runCompletion(os.Args[2:])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		cmd.HandleError(err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		cmd.HandleError(err)
	}
	defer log.Sync() //nolint:errcheck
	app := cmd.NewApp(cfg, log)

	if err := run(ctx, app, os.Args[1], os.Args[2:]); err != nil {
		cmd.HandleError(err)
	}
}

func run(ctx context.Context, app *cmd.App, command string, args []string) error {
	switch command {
	case "init":
		parse("init", args, 0)
		return cmd.Init(ctx, app)
	case "login":
		parse("login", args, 0)
		return cmd.Login(ctx, app)
	case "add-group":
		fs := parse("add-group", args, 1)
		return cmd.AddGroup(ctx, app, fs.Arg(0))
	case "rm-group":
		fs := flag.NewFlagSet("rm-group", flag.ExitOnError)
		force := fs.Bool("force", false, "Remove without confirmation")
		parseInto(fs, args, 1)
		return cmd.RemoveGroup(ctx, app, fs.Arg(0), *force)
	case "add-site":
		return runAddSite(ctx, app, args)
	case "rm-site":
		fs := parse("rm-site", args, 2)
		index, err := cmd.ParseSiteNumber(fs.Arg(1))
		if err != nil {
			return err
		}
		return cmd.RemoveSite(ctx, app, fs.Arg(0), index)
	case "ls":
		fs := flag.NewFlagSet("ls", flag.ExitOnError)
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() > 1 {
			usageError("ls")
		}
		return cmd.Ls(ctx, app, fs.Arg(0))
	case "check":
		fs := parse("check", args, 2)
		index, err := cmd.ParseSiteNumber(fs.Arg(1))
		if err != nil {
			return err
		}
		return cmd.Check(ctx, app, fs.Arg(0), index)
	case "passwd":
		parse("passwd", args, 0)
		return cmd.Passwd(ctx, app)
	case "backup":
		fs := parse("backup", args, 1)
		return cmd.Backup(ctx, app, fs.Arg(0))
	case "restore":
		fs := flag.NewFlagSet("restore", flag.ExitOnError)
		force := fs.Bool("force", false, "Replace without confirmation")
		parseInto(fs, args, 1)
		return cmd.Restore(ctx, app, fs.Arg(0), *force)
	case "diff":
		fs := parse("diff", args, 1)
		return cmd.Diff(ctx, app, fs.Arg(0))
	case "compact":
		parse("compact", args, 0)
		return cmd.Compact(ctx, app)
	case "keyring":
		fs := parse("keyring", args, 1)
		switch fs.Arg(0) {
		case "save":
			return cmd.KeyringSave(ctx, app)
		case "delete":
			return cmd.KeyringDelete(ctx, app)
		case "status":
			return cmd.KeyringStatus(ctx, app)
		}
		usageError("keyring")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	return nil
}

func runAddSite(ctx context.Context, app *cmd.App, args []string) error {
	fs := flag.NewFlagSet("add-site", flag.ExitOnError)
	id := fs.String("id", "", "Email or username used on the site")
	secret := fs.Bool("secret", false, "Prompt for the site password")
	parseInto(fs, args, 2)

	// an explicit --id "" is kept as an empty identifier
	var identifier *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "id" {
			identifier = id
		}
	})
	return cmd.AddSite(ctx, app, fs.Arg(0), fs.Arg(1), identifier, *secret)
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: safelist completion <bash|zsh|fish>")
		os.Exit(1)
	}
	if err := cmd.Completion(os.Stdout, args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// parse parses a command without flags that takes exactly n arguments
func parse(name string, args []string, n int) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	parseInto(fs, args, n)
	return fs
}

func parseInto(fs *flag.FlagSet, args []string, n int) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if fs.NArg() != n {
		usageError(fs.Name())
	}
}

func usageError(command string) {
	fmt.Fprintf(os.Stderr, "Error: wrong arguments for %s\n\n", command)
	printCommandHelp(command)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("safelist - Local password-protected list of favorite sites")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  safelist <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create the owner account")
	fmt.Println("  login       Check credentials (and offer to save them to the keyring)")
	fmt.Println("  add-group   Create a favorite group")
	fmt.Println("  rm-group    Remove a group and its sites")
	fmt.Println("  add-site    Add a site to a group")
	fmt.Println("  rm-site     Remove a site from a group")
	fmt.Println("  ls          List groups and sites")
	fmt.Println("  check       Check a password against a stored site password")
	fmt.Println("  passwd      Change the account password")
	fmt.Println("  backup      Write an encrypted backup of the vault")
	fmt.Println("  restore     Replace the vault with a backup")
	fmt.Println("  diff        Compare the vault with a backup")
	fmt.Println("  compact     Compact a bolt vault to reclaim disk space")
	fmt.Println("  keyring     Manage the password in the OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  safelist init                                  # Create account")
	fmt.Println("  safelist add-group email                       # New group")
	fmt.Println("  safelist add-site --id me@x.com --secret email mail.example.com")
	fmt.Println("  safelist ls                                    # Show everything")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SAFELIST_USERNAME, SAFELIST_PASSWORD  Credentials instead of prompts")
	fmt.Println("  SAFELIST_PATH                         Vault file (default data.json)")
	fmt.Println("  SAFELIST_BACKEND                      auto, json or bolt")
	fmt.Println("  SAFELIST_BCRYPT_COST                  Hashing cost for new passwords")
	fmt.Println("  SAFELIST_LOG_LEVEL                    debug, info, warn, error or off")
	fmt.Println("  SAFELIST_KEYRING                      Use the OS keyring (true/false)")
	fmt.Println()
	fmt.Println("Use 'safelist help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("safelist init")
		fmt.Println()
		fmt.Println("Creates the owner account. Prompts for a username and a password,")
		fmt.Println("which is stored only as a bcrypt hash. A vault has one account;")
		fmt.Println("running init again is an error.")
	case "login":
		fmt.Println("safelist login")
		fmt.Println()
		fmt.Println("Checks the username and password. When the password was typed,")
		fmt.Println("offers to save it to the OS keyring.")
	case "add-group":
		fmt.Println("safelist add-group <name>")
		fmt.Println()
		fmt.Println("Creates an empty group. Names are case-sensitive and unique.")
	case "rm-group":
		fmt.Println("safelist rm-group [--force] <name>")
		fmt.Println()
		fmt.Println("Removes a group with all of its sites.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force   Do not ask for confirmation")
	case "add-site":
		fmt.Println("safelist add-site [--id <identifier>] [--secret] <group> <url>")
		fmt.Println()
		fmt.Println("Adds a site at the end of a group.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --id       Email or username used on the site")
		fmt.Println("  --secret   Prompt for the site password; only its hash is stored")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  safelist add-site email mail.example.com")
		fmt.Println("  safelist add-site --id alice@x.com --secret email mail.example.com")
	case "rm-site":
		fmt.Println("safelist rm-site <group> <number>")
		fmt.Println()
		fmt.Println("Removes a site by the number shown in 'safelist ls'.")
	case "ls":
		fmt.Println("safelist ls [group]")
		fmt.Println()
		fmt.Println("Lists all groups and their numbered sites, or one group.")
		fmt.Println("Site passwords are never shown; [password] marks a stored one.")
	case "check":
		fmt.Println("safelist check <group> <number>")
		fmt.Println()
		fmt.Println("Prompts for a password and reports whether it matches the one")
		fmt.Println("stored for the site. Exits with status 1 when it does not.")
	case "passwd":
		fmt.Println("safelist passwd")
		fmt.Println()
		fmt.Println("Changes the account password. Requires the current password.")
	case "backup":
		fmt.Println("safelist backup <file>")
		fmt.Println()
		fmt.Println("Writes the vault to <file>, encrypted with the account password.")
	case "restore":
		fmt.Println("safelist restore [--force] <file>")
		fmt.Println()
		fmt.Println("Replaces the vault with a backup. Shows the differences and asks")
		fmt.Println("for confirmation first unless --force is given.")
	case "diff":
		fmt.Println("safelist diff <file>")
		fmt.Println()
		fmt.Println("Shows how the vault differs from a backup.")
	case "compact":
		fmt.Println("safelist compact")
		fmt.Println()
		fmt.Println("Compacts a bolt vault (.db/.bolt) to reclaim unused disk space.")
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("safelist keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Manages the account password in the OS keyring.")
	case "completion":
		fmt.Println("safelist completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(safelist completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(safelist completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  safelist completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
