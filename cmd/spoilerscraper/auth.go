package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"spoilerscraper/pkg/auth"
	"spoilerscraper/pkg/config"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/ratelimit"
	"spoilerscraper/pkg/twitter"
	"spoilerscraper/pkg/ui"
)

var useOAuth1 bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage stored search API credentials.

Credentials are looked up in this order:
  - BEARER_TOKEN / TWITTER_* environment variables (and .env)
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store API credentials securely",
	Long: `Store a bearer token, or with --oauth1 the four user-context keys, in the
system keychain or the encrypted credentials file. Secrets are read without
echo when a terminal is attached.`,
	Example: `  spoilerscraper auth login
  spoilerscraper auth login research --oauth1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles with masked secrets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [profile]",
	Short: "Check a credential against the rate limit status endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerify,
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to obtain API credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowTokenGuide(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd, verifyCmd, guideCmd)

	loginCmd.Flags().BoolVar(&useOAuth1, "oauth1", false, "store OAuth 1.0a user-context keys instead of a bearer token")
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred := &auth.Credential{Profile: profileArg(args)}
	reader := bufio.NewReader(os.Stdin)

	if useOAuth1 {
		fields := []struct {
			label string
			dst   *string
		}{
			{"Consumer key", &cred.ConsumerKey},
			{"Consumer secret", &cred.ConsumerSecret},
			{"Access token", &cred.AccessToken},
			{"Access token secret", &cred.AccessSecret},
		}
		for _, f := range fields {
			if *f.dst, err = readSecret(reader, f.label); err != nil {
				return err
			}
		}
	} else {
		if cred.BearerToken, err = readSecret(reader, "Bearer token"); err != nil {
			return err
		}
	}

	if err := manager.Store(cred); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			auth.ShowTokenGuide(cmd.OutOrStdout())
		}
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials stored for profile %q", cred.Profile))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := profileArg(args)
	if err := manager.Delete(profile); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed profile %q", profile))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		ui.PrintWarning("No stored credentials. Run 'spoilerscraper auth login'.")
		return nil
	}

	for _, c := range creds {
		masked := auth.Sanitize(c)
		kind := "bearer " + masked.BearerToken
		if c.HasOAuth1() {
			kind = fmt.Sprintf("oauth1 consumer %s access %s", masked.ConsumerKey, masked.AccessToken)
		}
		ui.PrintInfo(c.Profile, fmt.Sprintf("%s (updated %s)", kind, c.LastModified.Format(time.RFC3339)))
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	if err := resolveCredentials(&cfg.Twitter, profileArg(args)); err != nil {
		return err
	}

	client, err := twitter.NewClient(&cfg.Twitter, ratelimit.Unlimited{}, logger.GetLogger())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Twitter.Timeout)
	defer cancel()

	limits, err := client.RateLimitStatus(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}

	ui.PrintSuccess("Credential accepted")
	printSearchQuota(limits)
	return nil
}

func printSearchQuota(limits []ratelimit.Limit) {
	for _, l := range limits {
		if l.Resource != twitter.SearchResource && l.Resource != twitter.RateLimitStatusResource {
			continue
		}
		ui.PrintInfo(l.Resource, fmt.Sprintf("%d/%d remaining, resets %s",
			l.Remaining, l.Limit, l.Reset.Local().Format(time.Kitchen)))
	}
}

// readSecret prompts for one value, hiding input on a terminal
func readSecret(reader *bufio.Reader, label string) (string, error) {
	fmt.Fprintf(ui.Out, "%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Out)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimSpace(string(value)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// maskedTwitterConfig hides the secrets of a config before it is shown
func maskedTwitterConfig(t config.TwitterConfig) config.TwitterConfig {
	masked := auth.Sanitize(&auth.Credential{
		BearerToken:    t.BearerToken,
		ConsumerKey:    t.ConsumerKey,
		ConsumerSecret: t.ConsumerSecret,
		AccessToken:    t.AccessToken,
		AccessSecret:   t.AccessTokenSecret,
	})
	t.BearerToken = masked.BearerToken
	t.ConsumerKey = masked.ConsumerKey
	t.ConsumerSecret = masked.ConsumerSecret
	t.AccessToken = masked.AccessToken
	t.AccessTokenSecret = masked.AccessSecret
	return t
}
