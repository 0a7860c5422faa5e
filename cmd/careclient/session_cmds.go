package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/spf13/cobra"
)

const passwordEnvVar = "CARE_PASSWORD"

func loginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(passwordEnvVar)
			}
			if password == "" {
				var err error
				if password, err = readLine(cmd, "Password: "); err != nil {
					return err
				}
			}

			identity, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", identity.FullName(), identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password, defaults to $"+passwordEnvVar+" or a prompt")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// A session that cannot be resumed is already over on the server.
			_, _ = a.client.Resume(cmd.Context())
			err := a.client.Logout(cmd.Context())
			if clearErr := a.jar.Clear(); clearErr != nil {
				err = errors.Join(err, clearErr)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			if !remote {
				return a.printJSON(a.store.CurrentIdentity())
			}
			identity, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(identity)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the server instead of showing the stored identity")
	return cmd
}

func profileCmd(a *app) *cobra.Command {
	var email, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Edit the signed-in user's profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var update apimodel.IdentityUpdate
			if cmd.Flags().Changed("email") {
				update.Email = &email
			}
			if cmd.Flags().Changed("first-name") {
				update.FirstName = &firstName
			}
			if cmd.Flags().Changed("last-name") {
				update.LastName = &lastName
			}
			if update.IsEmpty() {
				return errors.New("nothing to change, pass --email, --first-name or --last-name")
			}

			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			identity, err := a.client.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			return a.printJSON(identity)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&firstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "New last name")
	return cmd
}

func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
