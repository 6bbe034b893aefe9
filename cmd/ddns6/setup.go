package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	cfapi "github.com/cloudflare/cloudflare-go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gitlab.bluewillows.net/root/ddns6/internal/config"
)

const defaultKeyFile = "cloudflare.key"

// readPassword reads a line from the terminal without echo.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

type setupOptions struct {
	email   string
	keyFile string
	baseURL string
	force   bool
	timeout time.Duration
}

func newSetupCmd() *cobra.Command {
	opts := setupOptions{
		email:   os.Getenv("DDNS6_AUTH_EMAIL"),
		keyFile: os.Getenv("DDNS6_AUTH_KEY_FILE"),
		baseURL: os.Getenv("DDNS6_BASE_URL"),
		timeout: 10 * time.Second,
	}
	if opts.keyFile == "" {
		opts.keyFile = defaultKeyFile
	}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Verify a Cloudflare global API key and store it in a key file",
		Long: `setup prompts for the Cloudflare global API key without echoing it, verifies
it together with the account email against the Cloudflare API, and writes it to
a key file readable only by the current user (mode 0600).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", opts.email, "Cloudflare account email (default $DDNS6_AUTH_EMAIL)")
	cmd.Flags().StringVar(&opts.keyFile, "key-file", opts.keyFile, "path of the key file to write (default $DDNS6_AUTH_KEY_FILE)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", opts.baseURL, "Cloudflare API base URL")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing key file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "verification request timeout")

	return cmd
}

func runSetup(ctx context.Context, out io.Writer, opts setupOptions) error {
	if opts.email == "" {
		return errors.New("setup: --email (or DDNS6_AUTH_EMAIL) is required")
	}
	if opts.keyFile == "" {
		return errors.New("setup: --key-file is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprint(out, "Enter Cloudflare global API key: ")
	raw, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("setup: reading key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return errors.New("setup: key is empty")
	}

	fmt.Fprintln(out, "verifying credentials...")
	vctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if err := verifyCredentials(vctx, opts.email, key, opts.baseURL); err != nil {
		return err
	}
	fmt.Fprintln(out, "credentials verified")

	if err := writeKeyFile(opts.keyFile, key, opts.force); err != nil {
		return err
	}
	fmt.Fprintf(out, "key written to %s\n", opts.keyFile)
	return nil
}

// verifyCredentials reads the account's user details with the given email and
// key. The key never appears in the returned error.
func verifyCredentials(ctx context.Context, email, key, baseURL string) error {
	apiOpts := []cfapi.Option{}
	if baseURL != "" {
		apiOpts = append(apiOpts, cfapi.BaseURL(strings.TrimRight(baseURL, "/")))
	}

	api, err := cfapi.New(key, email, apiOpts...)
	if err != nil {
		return errors.New("setup: creating cloudflare client failed")
	}

	user, err := api.UserDetails(ctx)
	if err != nil {
		return fmt.Errorf("setup: verifying credentials: %s", redact(err.Error(), key))
	}
	if !strings.EqualFold(user.Email, email) {
		return fmt.Errorf("setup: key belongs to a different account than %s", email)
	}
	return nil
}

// writeKeyFile stores key at path with mode 0600, refusing to replace an
// existing file unless force is set. The result passes config.ReadKeyFile.
func writeKeyFile(path, key string, force bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("setup: creating key file: %w", err)
	}
	// An existing file keeps its old mode on open.
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("setup: setting key file mode: %w", err)
	}
	if _, err := fmt.Fprintln(f, key); err != nil {
		f.Close()
		return fmt.Errorf("setup: writing key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("setup: writing key file: %w", err)
	}

	if _, err := config.ReadKeyFile(path); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	return nil
}

func redact(s, value string) string {
	if value == "" {
		return s
	}
	return strings.ReplaceAll(s, value, "[REDACTED]")
}
