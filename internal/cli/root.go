package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rohmanhakim/aoc-fetch/internal/build"
	"github.com/rohmanhakim/aoc-fetch/pkg/aoc"
	"github.com/rohmanhakim/aoc-fetch/pkg/config"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	sessionToken  string
	contact       string
	cacheDir      string
	noPersistence bool
	logLevel      string
	baseURL       string
	force         bool
	part          int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aoc-fetch",
	Short: "A polite Advent of Code input fetcher.",
	Long: `aoc-fetch downloads Advent of Code puzzle inputs and pages.

Every response is cached, in memory and on disk, so each resource is requested
from the site at most once. Outbound requests are spaced at least three minutes
apart, and that spacing is remembered across runs.

The session cookie is read from --session or the AOC_SESSION environment
variable.`,
	SilenceUsage: true,
}

var inputCmd = &cobra.Command{
	Use:   "input <year> <day>",
	Short: "Print the puzzle input for a day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, day, err := parseYearDay(args)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, client *aoc.Client) error {
			var body string
			if force {
				body, err = client.GetWithoutCache(ctx, puzzle.InputKey(year, day))
			} else {
				body, err = client.Input(ctx, year, day)
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), body)
			return err
		})
	},
}

var exampleCmd = &cobra.Command{
	Use:   "example <year> <day>",
	Short: "Print the worked example of a puzzle and its expected answers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, day, err := parseYearDay(args)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, client *aoc.Client) error {
			ex, err := client.Example(ctx, year, day, part)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, ex.Data)
			fmt.Fprintf(out, "\npart 1: %s\n", ex.Part1Answer)
			if ex.Part2Answer != "" {
				fmt.Fprintf(out, "part 2: %s\n", ex.Part2Answer)
			}
			return nil
		})
	},
}

var descriptionCmd = &cobra.Command{
	Use:   "description <year> <day>",
	Short: "Print the puzzle description as Markdown",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, day, err := parseYearDay(args)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, client *aoc.Client) error {
			desc, err := client.Description(ctx, year, day, part)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), desc.Markdown)
			return err
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), build.FullVersion())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// ExecuteWithArgs runs the command tree with args, writing command output and
// errors to out.
func ExecuteWithArgs(args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/aoc-fetch.json)")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "session", "", "session cookie value (defaults to $AOC_SESSION)")
	rootCmd.PersistentFlags().StringVar(&contact, "contact", "", "operator contact sent in the user agent, e.g. an email address")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory for the persistent cache (defaults to $AOC_CACHE_DIRECTORY or the user cache dir)")
	rootCmd.PersistentFlags().BoolVar(&noPersistence, "no-persistence", false, "keep cache and throttle state in memory only")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "site root to fetch from")

	inputCmd.Flags().BoolVar(&force, "force", false, "bypass the cache and fetch again")
	exampleCmd.Flags().IntVar(&part, "part", 1, "page variant to read: 1, or 2 once part one is solved")
	descriptionCmd.Flags().IntVar(&part, "part", 1, "page variant to read: 1, or 2 once part one is solved")

	rootCmd.AddCommand(inputCmd, exampleCmd, descriptionCmd, versionCmd)
}

// InitConfigWithError builds the configuration from the config file when one
// is given, otherwise from the environment and flags. Flags always win over
// the file for the session token.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		if sessionToken != "" {
			return cfg.WithSessionToken(sessionToken).Build()
		}
		if cfg.SessionToken() == "" {
			if env := os.Getenv(config.EnvSession); env != "" {
				return cfg.WithSessionToken(env).Build()
			}
		}
		return cfg, nil
	}

	configBuilder := config.FromEnv(contact)

	if sessionToken != "" {
		configBuilder = configBuilder.WithSessionToken(sessionToken)
	}

	if cacheDir != "" {
		configBuilder = configBuilder.WithStoreDir(cacheDir)
	}

	if noPersistence {
		configBuilder = configBuilder.WithPersistentCache(false)
	}

	if baseURL != "" {
		configBuilder = configBuilder.WithBaseURL(baseURL)
	}

	if logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return config.Config{}, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
		}
		configBuilder = configBuilder.WithLogLevel(level)
	}

	return configBuilder.Build()
}

// withClient runs fn with a client that is always closed afterwards, so the
// cache and throttle state are flushed even when fn fails or the process is
// interrupted.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *aoc.Client) error) (err error) {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel()}))
	client, err := aoc.New(cfg, aoc.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(ctx, client)
}

func parseYearDay(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", args[0])
	}
	day, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day %q", args[1])
	}
	return year, day, nil
}

func ResetFlags() {
	cfgFile = ""
	sessionToken = ""
	contact = ""
	cacheDir = ""
	noPersistence = false
	logLevel = ""
	baseURL = ""
	force = false
	part = 1
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetSessionForTest(token string) {
	sessionToken = token
}

func SetContactForTest(c string) {
	contact = c
}

func SetCacheDirForTest(dir string) {
	cacheDir = dir
}

func SetNoPersistenceForTest(disabled bool) {
	noPersistence = disabled
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetBaseURLForTest(u string) {
	baseURL = u
}
