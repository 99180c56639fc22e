package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/quickdb/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "set":
		runSet(ctx, os.Args[2:])
	case "get":
		runGet(ctx, os.Args[2:])
	case "has":
		runHas(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "keys":
		runKeys(ctx, os.Args[2:])
	case "dump":
		runDump(ctx, os.Args[2:])
	case "drop":
		runDrop(ctx, os.Args[2:])
	case "clear":
		runClear(ctx, os.Args[2:])
	case "logs":
		runLogs(ctx, os.Args[2:])
	case "mirror":
		runMirror(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// commonFlags registers the flags every data command accepts
func commonFlags(fs *flag.FlagSet) *cmd.Options {
	opts := &cmd.Options{}
	fs.StringVar(&opts.Instance, "i", "", "Instance name (default Global)")
	fs.StringVar(&opts.ConfigFile, "config", "", "Config file (default .quickdb.yaml)")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&opts.Obfuscate, "obfuscate", false, "Obfuscate values of the instance")
	fs.StringVar(&opts.Key, "key", "", "Obfuscation key (hex)")
	fs.BoolVar(&opts.Passphrase, "passphrase", false, "Derive the obfuscation key from a passphrase")
	return opts
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func requireArgs(fs *flag.FlagSet, n int, usage string) {
	if fs.NArg() < n {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

func runSet(_ context.Context, args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	opts := commonFlags(fs)
	mode := fs.String("mode", "", "Set mode (create)")
	parse(fs, args)
	requireArgs(fs, 2, "quickdb set [flags] <key> <value>")

	if *mode != "" && *mode != "create" {
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", *mode)
		os.Exit(1)
	}
	cmd.Set(*opts, fs.Arg(0), fs.Arg(1), *mode == "create")
}

func runGet(_ context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)
	requireArgs(fs, 1, "quickdb get [flags] <key>")

	cmd.Get(*opts, fs.Arg(0))
}

func runHas(_ context.Context, args []string) {
	fs := flag.NewFlagSet("has", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)
	requireArgs(fs, 1, "quickdb has [flags] <key>")

	cmd.Has(*opts, fs.Arg(0))
}

func runRm(_ context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)

	cmd.Remove(*opts, fs.Args())
}

func runKeys(_ context.Context, args []string) {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)

	cmd.Keys(*opts)
}

func runDump(_ context.Context, args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)

	cmd.Dump(*opts)
}

func runDrop(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	opts := commonFlags(fs)
	force := fs.Bool("force", false, "Delete without confirmation")
	parse(fs, args)

	cmd.Drop(ctx, *opts, *force)
}

func runClear(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	opts := commonFlags(fs)
	force := fs.Bool("force", false, "Clear without confirmation")
	parse(fs, args)

	cmd.Clear(ctx, *opts, *force)
}

func runLogs(_ context.Context, args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	opts := commonFlags(fs)
	clearLogs := fs.Bool("clear", false, "Clear all logs")
	level := fs.String("level", "", "Only show entries of this level (info, warn, error)")
	parse(fs, args)

	cmd.Logs(*opts, *clearLogs, *level)
}

func runMirror(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("mirror", flag.ExitOnError)
	opts := commonFlags(fs)
	file := fs.String("file", "", "Page data file (JSON)")
	watch := fs.Bool("watch", false, "Keep syncing when the file changes")
	parse(fs, args)

	cmd.Mirror(ctx, *opts, *file, *watch)
}

func runDiff(_ context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)
	requireArgs(fs, 2, "quickdb diff [flags] <key> <file.json>")

	cmd.Diff(*opts, fs.Arg(0), fs.Arg(1))
}

func runKeyring(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: quickdb keyring <save|delete|status> [-i name]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("keyring", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args[1:])

	switch args[0] {
	case "save":
		cmd.KeyringSave(*opts)
	case "delete":
		cmd.KeyringDelete(*opts)
	case "status":
		cmd.KeyringStatus(*opts)
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runStatus(_ context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)

	cmd.Status(*opts)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	opts := commonFlags(fs)
	parse(fs, args)

	cmd.Compact(*opts)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: quickdb completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("quickdb - Named key/value instances in a local data file")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quickdb <command> [flags] [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  set         Store a value (JSON, or a plain string)")
	fmt.Println("  get         Print a value")
	fmt.Println("  has         Check whether a key is stored")
	fmt.Println("  rm          Remove keys")
	fmt.Println("  keys        List the keys of an instance")
	fmt.Println("  dump        Print every value of an instance")
	fmt.Println("  drop        Delete an instance and all its data")
	fmt.Println("  clear       Wipe the whole data file")
	fmt.Println("  logs        Show or clear the operation log")
	fmt.Println("  mirror      Sync the signed-in user from page data")
	fmt.Println("  diff        Compare a stored value with a JSON file")
	fmt.Println("  keyring     Manage obfuscation keys in the OS keyring")
	fmt.Println("  status      Show data file status")
	fmt.Println("  compact     Compact the data file to reclaim disk space")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Common flags (before arguments):")
	fmt.Println("  -i <name>       Instance (default Global; User is obfuscated)")
	fmt.Println("  --obfuscate     Obfuscate values of a new instance")
	fmt.Println("  --key <hex>     Obfuscation key to use")
	fmt.Println("  --passphrase    Derive the key from a passphrase ($QUICKDB_PASSPHRASE)")
	fmt.Println("  --config <file> Config file (default .quickdb.yaml)")
	fmt.Println("  --verbose       Debug logging")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  quickdb set theme '\"dark\"'          # Store in Global")
	fmt.Println("  quickdb set -i User token abc123    # Store obfuscated")
	fmt.Println("  quickdb get -i User token           # Read it back")
	fmt.Println("  quickdb drop -i User                # Delete after confirmation")
	fmt.Println()
	fmt.Println("Obfuscation only hides values from a casual look; it is not encryption.")
	fmt.Println()
	fmt.Println("Use 'quickdb help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "set":
		fmt.Println("quickdb set [flags] [--mode create] <key> <value>")
		fmt.Println()
		fmt.Println("Stores a value under key, overwriting any previous value.")
		fmt.Println("The value is parsed as JSON; anything that is not JSON is stored as a string.")
		fmt.Println("--mode create is accepted for compatibility and also overwrites.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  quickdb set count 3")
		fmt.Println("  quickdb set -i User auth '{\"id\": 1}'")
		fmt.Println("  quickdb set -i Secure --obfuscate token abc123")
	case "get":
		fmt.Println("quickdb get [flags] <key>")
		fmt.Println()
		fmt.Println("Prints a value. Strings print bare, other values as indented JSON.")
		fmt.Println("Exits with an error when the key is not stored.")
	case "has":
		fmt.Println("quickdb has [flags] <key>")
		fmt.Println()
		fmt.Println("Prints true or false.")
	case "rm":
		fmt.Println("quickdb rm [flags] <key> [key...]")
		fmt.Println()
		fmt.Println("Removes keys from an instance. Missing keys are ignored.")
	case "keys":
		fmt.Println("quickdb keys [flags]")
		fmt.Println()
		fmt.Println("Lists the keys of an instance, sorted.")
	case "dump":
		fmt.Println("quickdb dump [flags]")
		fmt.Println()
		fmt.Println("Prints every value of an instance as one JSON object.")
		fmt.Println("The stored obfuscation key is never included.")
	case "drop":
		fmt.Println("quickdb drop [flags] [--force]")
		fmt.Println()
		fmt.Println("Deletes an instance: all its keys and its stored obfuscation key.")
		fmt.Println("Asks for confirmation unless --force is given.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  quickdb drop -i Test")
	case "clear":
		fmt.Println("quickdb clear [flags] [--force]")
		fmt.Println()
		fmt.Println("Wipes the whole storage area of the instance, including every other")
		fmt.Println("instance and stored key. Asks for confirmation unless --force is given.")
	case "logs":
		fmt.Println("quickdb logs [-i name] [--level info|warn|error] [--clear]")
		fmt.Println()
		fmt.Println("Shows the operation log kept in the session area (last 1000 entries).")
	case "mirror":
		fmt.Println("quickdb mirror --file page.json [--watch] [-i name]")
		fmt.Println()
		fmt.Println("Reads server-rendered page data ({\"props\": {\"user\": ...}}) and stores")
		fmt.Println("props.user under \"auth\" in the User instance, or removes \"auth\" when")
		fmt.Println("there is no user. --watch keeps syncing whenever the file changes.")
	case "diff":
		fmt.Println("quickdb diff [flags] <key> <file.json>")
		fmt.Println()
		fmt.Println("Compares the stored value with the JSON in a local file.")
	case "keyring":
		fmt.Println("quickdb keyring <save|delete|status> [-i name]")
		fmt.Println()
		fmt.Println("Keeps a copy of an instance's obfuscation key in the OS keyring")
		fmt.Println("(default instance User). The copy is used when the data file no")
		fmt.Println("longer holds the key.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  save    Copy the stored key to the keyring")
		fmt.Println("  delete  Remove the key from the keyring")
		fmt.Println("  status  Check if a key is in the keyring")
	case "status":
		fmt.Println("quickdb status")
		fmt.Println()
		fmt.Println("Shows the data file, its instances, the log size and whether git")
		fmt.Println("ignores the data file.")
	case "compact":
		fmt.Println("quickdb compact")
		fmt.Println()
		fmt.Println("Compacts the data file to reclaim unused disk space.")
	case "completion":
		fmt.Println("quickdb completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(quickdb completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(quickdb completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  quickdb completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
