package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/care-portal/apiclient"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/spf13/cobra"
)

func usersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admins only)",
	}
	cmd.AddCommand(usersListCmd(a), usersCreateCmd(a), usersBlockCmd(a, true), usersBlockCmd(a, false))
	return cmd
}

func usersListCmd(a *app) *cobra.Command {
	var opts apiclient.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			page, err := a.client.ListUsers(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return a.printJSON(page)
		},
	}
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Accounts to skip")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum accounts to return, 0 for the server default")
	return cmd
}

func usersCreateCmd(a *app) *cobra.Command {
	var (
		req       apimodel.CreateUserRequest
		role      string
		patientID string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin or patient account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = apimodel.Role(strings.ToUpper(role))
			if !req.Role.Valid() {
				return fmt.Errorf("role must be %s or %s", apimodel.RoleAdmin, apimodel.RolePatient)
			}
			if patientID != "" {
				req.PatientID = &patientID
			}
			if req.Password == "" {
				var err error
				if req.Password, err = readLine(cmd, "Password for "+req.Email+": "); err != nil {
					return err
				}
			}

			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			identity, err := a.client.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printJSON(identity)
		},
	}
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Initial password, prompted for when empty")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&role, "role", string(apimodel.RolePatient), "ADMIN or PATIENT")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "Patient record the account owns, patients only")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func usersBlockCmd(a *app, blocked bool) *cobra.Command {
	use, short := "block <user-id>", "Block an account and end its sessions"
	if !blocked {
		use, short = "unblock <user-id>", "Allow a blocked account to sign in again"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.resume(cmd.Context()); err != nil {
				return err
			}
			identity, err := a.client.SetUserBlocked(cmd.Context(), args[0], blocked)
			if err != nil {
				return err
			}
			return a.printJSON(identity)
		},
	}
}
