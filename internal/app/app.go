package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/client/internal/api"
	"github.com/vidfriends/client/internal/config"
	"github.com/vidfriends/client/internal/logging"
	"github.com/vidfriends/client/internal/metrics"
	"github.com/vidfriends/client/internal/models"
	"github.com/vidfriends/client/internal/session"
)

const usage = `usage: vidfriends-client <command> [arguments]

commands:
  login        sign in and remember the session
  signup       create an account
  logout       forget the stored session
  status       report whether a session is stored
  whoami       show the signed in account
  dashboard    list videos
  play <id>    show a video and its embeddable URL
  home         show account and videos together
  watch        follow session changes made by other processes
  migrate      apply database migrations (up|status)
  mock-server  run a local stand-in for the VidFriends API`

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("invalid usage")

type clientCommand struct {
	run func(ctx context.Context, c *cli, client *api.Client, info session.Info, args []string) error
	// authenticated commands turn an AuthError into a local logout.
	authenticated bool
}

var clientCommands = map[string]clientCommand{
	"login":     {run: runLogin},
	"signup":    {run: runSignup},
	"logout":    {run: runLogout},
	"status":    {run: runStatus},
	"whoami":    {run: runWhoami, authenticated: true},
	"dashboard": {run: runDashboard, authenticated: true},
	"play":      {run: runPlay, authenticated: true},
	"home":      {run: runHome, authenticated: true},
	"watch":     {run: runWatch},
}

type cli struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	// store is the token store opened for the running client command.
	store session.TokenStore
}

// Run bootstraps the VidFriends client application.
func Run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return run(ctx, cfg, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, cfg config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage)
		return fmt.Errorf("%w: expected a command", ErrUsage)
	}

	logger := logging.New(stderr, cfg.LogLevel)
	ctx = logging.WithLogger(ctx, logger)

	c := &cli{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr, logger: logger}

	switch name := args[0]; name {
	case "migrate":
		return c.runMigrations(ctx, args[1:])
	case "mock-server":
		return c.serveMock(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		cmd, ok := clientCommands[name]
		if !ok {
			fmt.Fprintln(stderr, usage)
			return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
		}
		return c.withClient(ctx, name, cmd, args[1:])
	}
}

// withClient opens the token store, restores the session once and runs cmd.
func (c *cli) withClient(ctx context.Context, name string, cmd clientCommand, args []string) (err error) {
	store, cleanup, err := buildTokenStore(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	c.store = store

	reg := prometheus.NewRegistry()
	client, err := api.New(c.cfg.APIBaseURL, session.New(store),
		api.WithTimeout(c.cfg.RequestTimeout),
		api.WithLogger(c.logger),
		api.WithMetrics(metrics.NewClient(reg)),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	if c.cfg.MetricsFile != "" {
		defer func() {
			if werr := prometheus.WriteToTextfile(c.cfg.MetricsFile, reg); werr != nil {
				c.logger.Warn("write metrics file", "path", c.cfg.MetricsFile, "error", werr)
			}
		}()
	}

	info, err := client.InitializeSession(ctx)
	if err != nil {
		return err
	}
	c.logger.Debug("running command", "command", name, "session", info.State.String())

	err = cmd.run(ctx, c, client, info, args)
	if err == nil || !cmd.authenticated || !api.IsAuth(err) {
		return err
	}

	if info.State == session.Anonymous {
		return fmt.Errorf("not logged in, run \"vidfriends-client login\": %w", err)
	}
	if lerr := client.Logout(ctx); lerr != nil {
		c.logger.Warn("clear rejected session", "error", lerr)
	}
	return fmt.Errorf("session expired, run \"vidfriends-client login\": %w", err)
}

func runLogin(ctx context.Context, c *cli, client *api.Client, _ session.Info, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, read from stdin when omitted")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *password == "" {
		var err error
		if *password, err = c.readSecret("Password: "); err != nil {
			return err
		}
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		return fmt.Errorf("%w: email and password are required", ErrUsage)
	}

	if _, err := client.Login(ctx, strings.TrimSpace(*email), *password); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "logged in")
	return nil
}

func runSignup(ctx context.Context, c *cli, client *api.Client, _ session.Info, args []string) error {
	fs := c.flags("signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, read from stdin when omitted")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *password == "" {
		var err error
		if *password, err = c.readSecret("Password: "); err != nil {
			return err
		}
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		return fmt.Errorf("%w: email and password are required", ErrUsage)
	}

	result, err := client.Signup(ctx, strings.TrimSpace(*name), strings.TrimSpace(*email), *password)
	if err != nil {
		return err
	}
	if result.Message != "" {
		fmt.Fprintln(c.stdout, result.Message)
	}
	if result.Authenticated {
		fmt.Fprintln(c.stdout, "logged in")
	} else {
		fmt.Fprintln(c.stdout, "run \"vidfriends-client login\" to sign in")
	}
	return nil
}

func runLogout(ctx context.Context, c *cli, client *api.Client, _ session.Info, _ []string) error {
	if err := client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, "logged out")
	return nil
}

func runStatus(_ context.Context, c *cli, _ *api.Client, info session.Info, _ []string) error {
	fmt.Fprintln(c.stdout, info.State.String())
	return nil
}

func runWhoami(ctx context.Context, c *cli, client *api.Client, _ session.Info, _ []string) error {
	profile, err := client.Profile(ctx)
	if err != nil {
		return err
	}
	printProfile(c.stdout, profile)
	return nil
}

func runDashboard(ctx context.Context, c *cli, client *api.Client, _ session.Info, _ []string) error {
	videos, err := client.Dashboard(ctx)
	if err != nil {
		return err
	}
	return printVideos(c.stdout, videos)
}

func runPlay(ctx context.Context, c *cli, client *api.Client, _ session.Info, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: play expects exactly one video id", ErrUsage)
	}
	video, err := client.Video(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, video.Title)
	if video.Description != "" {
		fmt.Fprintln(c.stdout, video.Description)
	}
	// The embed URL is opaque; hand it to the player exactly as received.
	fmt.Fprintln(c.stdout, video.VideoURL)
	return nil
}

func runHome(ctx context.Context, c *cli, client *api.Client, _ session.Info, _ []string) error {
	var (
		profile models.Profile
		videos  []models.VideoSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = client.Profile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		videos, err = client.Dashboard(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	printProfile(c.stdout, profile)
	fmt.Fprintln(c.stdout)
	return printVideos(c.stdout, videos)
}

func runWatch(ctx context.Context, c *cli, _ *api.Client, info session.Info, _ []string) error {
	fileStore, ok := c.store.(*session.FileStore)
	if !ok {
		return fmt.Errorf("%w: watch requires the %q token store", ErrUsage, config.StoreFile)
	}

	ctx, stop := notifyContext(ctx)
	defer stop()

	fmt.Fprintln(c.stdout, info.State.String())
	return fileStore.Watch(ctx, func(next session.Info) {
		fmt.Fprintln(c.stdout, next.State.String())
	})
}

func printProfile(w io.Writer, profile models.Profile) {
	if profile.Name != "" {
		fmt.Fprintf(w, "%s <%s>\n", profile.Name, profile.Email)
	} else {
		fmt.Fprintln(w, profile.Email)
	}
	if profile.CreatedAt != "" {
		fmt.Fprintf(w, "member since %s\n", profile.CreatedAt)
	}
}

func printVideos(w io.Writer, videos []models.VideoSummary) error {
	if len(videos) == 0 {
		_, err := fmt.Fprintln(w, "no videos available")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDESCRIPTION")
	for _, v := range videos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Title, v.Description)
	}
	return tw.Flush()
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) readSecret(prompt string) (string, error) {
	fmt.Fprint(c.stderr, prompt)
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
