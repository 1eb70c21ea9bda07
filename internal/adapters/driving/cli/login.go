package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driven/hh"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/adapters/driving/oauth"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

var (
	loginCode      string
	loginNoBrowser bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorise access to hh.ru",
	Long: `Obtains the first token pair. By default a local server is started on
hh.redirect_uri and the hh.ru authorisation page is opened in the browser.

Use --code to exchange a code you already have, or --code - to paste it
without echo.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginCode, "code", "", "Authorization code to exchange ('-' reads it from the terminal)")
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the authorisation URL without opening a browser")
	rootCmd.AddCommand(loginCmd)
}

// readSecret is replaced in tests.
var readSecret = readCodeFromTerminal

func runLogin(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		codes  driven.AuthCodeSource
		server *oauth.CallbackServer
		state  string
	)

	switch loginCode {
	case "":
		state, err = oauth.GenerateState()
		if err != nil {
			return err
		}
		server, err = oauth.NewCallbackServer(settings.HH.RedirectURI, state)
		if err != nil {
			return err
		}
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start callback server: %w", err)
		}
		defer server.Stop()
		// The token request must repeat the redirect URI the code was issued for.
		settings.HH.RedirectURI = server.RedirectURI()
		codes = server
	case "-":
		cmd.Print("Authorization code: ")
		code, err := readSecret(cmd.InOrStdin())
		cmd.Println()
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
		codes = hh.StaticCode(code)
	default:
		codes = hh.StaticCode(loginCode)
	}

	a, err := newApp(ctx, settings, codes)
	if err != nil {
		return err
	}
	defer a.Close()

	if server != nil {
		authURL := a.platform.AuthCodeURL(state)
		cmd.Println("Open this URL to authorise hh-autoupdate:")
		cmd.Println()
		cmd.Printf("  %s\n\n", authURL)
		if !loginNoBrowser {
			if err := oauth.OpenBrowser(authURL); err != nil {
				cmd.Printf("Could not open a browser (%v); open the URL manually.\n", err)
			}
		}
		cmd.Println("Waiting for authorisation...")
	}

	if err := a.refresher.Authorize(ctx); err != nil {
		if errors.Is(err, domain.ErrTickInProgress) {
			return errors.New("a refresh is running, try again later")
		}
		return fmt.Errorf("authorisation failed: %w", err)
	}

	cmd.Println("Tokens stored. Run 'hh-autoupdate run' to start refreshing.")
	return nil
}

// readCodeFromTerminal reads without echo from a terminal, or a line
// from any other reader.
func readCodeFromTerminal(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", domain.ErrInvalidInput)
	}
	return code, nil
}
