package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/hitch/internal/app"
	"github.com/five82/hitch/internal/rides"
	"github.com/five82/hitch/internal/session"
)

var (
	emailFlag     string
	firstNameFlag string
	lastNameFlag  string
	phoneFlag     string
	tokenFlag     string
	codeFlag      string
)

var stdin = bufio.NewReader(os.Stdin)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := promptLine("Email: ", emailFlag)
		if err != nil {
			return err
		}
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			var sess rides.Session
			err := env.Busy.Track(ctx, "Signing in", func(ctx context.Context) error {
				var err error
				sess, err = env.Accounts.SignIn(ctx, email, password)
				return err
			})
			if err != nil {
				return err
			}

			if err := env.Sessions.Save(session.Session{
				Token:     sess.AccessToken,
				Email:     sess.User.Email,
				ExpiresAt: sess.ExpiresAt,
			}); err != nil {
				return err
			}
			env.Log.WithField("email", sess.User.Email).Info("signed in")
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", sess.User.DisplayName())
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			if err := env.Sessions.Clear(); err != nil {
				return err
			}
			env.Log.Info("signed out")
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := rides.SignUpRequest{Phone: strings.TrimSpace(phoneFlag)}
		var err error
		if req.Email, err = promptLine("Email: ", emailFlag); err != nil {
			return err
		}
		if req.FirstName, err = promptLine("First name: ", firstNameFlag); err != nil {
			return err
		}
		if req.LastName, err = promptLine("Last name: ", lastNameFlag); err != nil {
			return err
		}
		if req.Password, err = promptNewPassword(); err != nil {
			return err
		}

		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			var user rides.User
			err := env.Busy.Track(ctx, "Creating your account", func(ctx context.Context) error {
				var err error
				user, err = env.Accounts.SignUp(ctx, req)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Check your inbox, then run `hitch verify --code <code>`.\n", user.Email)
			return nil
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset email, or set a new password with --token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimSpace(tokenFlag)
		if token == "" {
			email, err := promptLine("Email: ", emailFlag)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
				err := env.Busy.Track(ctx, "Sending reset link", func(ctx context.Context) error {
					return env.Accounts.RequestPasswordReset(ctx, email)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "If %s has an account, a reset link is on its way.\n", email)
				return nil
			})
		}

		password, err := promptNewPassword()
		if err != nil {
			return err
		}
		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			err := env.Busy.Track(ctx, "Updating your password", func(ctx context.Context) error {
				return env.Accounts.ResetPassword(ctx, token, password)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. Run `hitch login` to sign in.")
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Confirm your email address with the emailed code",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := promptLine("Verification code: ", codeFlag)
		if err != nil {
			return err
		}
		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			err := env.Busy.Track(ctx, "Verifying your email", func(ctx context.Context) error {
				return env.Accounts.VerifyEmail(ctx, code)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Email verified")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
			if !env.Client.HasToken() {
				return errors.New("not signed in; run `hitch login` first")
			}
			var user rides.User
			err := env.Busy.Track(ctx, "Loading your profile", func(ctx context.Context) error {
				var err error
				user, err = env.Accounts.Me(ctx)
				return err
			})
			if rides.IsUnauthorized(err) {
				return errors.New("session expired; run `hitch login` again")
			}
			if err != nil {
				return err
			}
			verified := "unverified"
			if user.EmailVerified {
				verified = "verified"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.DisplayName(), user.Email, verified)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&emailFlag, "email", "", "account email")

	signupCmd.Flags().StringVar(&emailFlag, "email", "", "account email")
	signupCmd.Flags().StringVar(&firstNameFlag, "first-name", "", "first name")
	signupCmd.Flags().StringVar(&lastNameFlag, "last-name", "", "last name")
	signupCmd.Flags().StringVar(&phoneFlag, "phone", "", "phone number (optional)")

	resetPasswordCmd.Flags().StringVar(&emailFlag, "email", "", "account email to send the reset link to")
	resetPasswordCmd.Flags().StringVar(&tokenFlag, "token", "", "reset token from the email")

	verifyCmd.Flags().StringVar(&codeFlag, "code", "", "verification code from the email")
}

// withEnv bootstraps the shared environment and prints busy messages to
// stderr while fn runs.
func withEnv(ctx context.Context, fn func(context.Context, *app.Env) error) error {
	env, err := app.Bootstrap(appOptions())
	if err != nil {
		return err
	}
	defer env.Close()

	stop := app.ReportProgress(env.Busy, os.Stderr)
	defer stop()

	return fn(ctx, env)
}

func promptLine(prompt, preset string) (string, error) {
	if v := strings.TrimSpace(preset); v != "" {
		return v, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s cannot be empty", strings.TrimSuffix(strings.TrimSpace(prompt), ":"))
	}
	return line, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := string(bytes)
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

func promptNewPassword() (string, error) {
	password, err := promptPassword("New password: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}
