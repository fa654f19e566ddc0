// internal/app/cli/identities.go
package cli

import (
	"context"
	"fmt"

	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/spf13/cobra"
)

func (rn *runner) createSuperuserCmd() *cobra.Command {
	var login, email, password, name string
	cmd := &cobra.Command{
		Use:   "create-superuser",
		Short: "Create a superuser identity; prints a generated password when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rn.with(cmd.Context(), func(ctx context.Context, b Backend) error {
				u, generated, err := provisioning.New(b.Repo, rn.logger, nil).CreateUser(ctx, provisioning.UserInput{
					LoginName:   login,
					FullName:    name,
					Email:       email,
					Password:    password,
					IsSuperuser: true,
					IsActive:    true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(rn.out, "superuser %s created (id %s)\n", u.LoginName, u.ID.Hex())
				if generated != "" {
					fmt.Fprintf(rn.out, "password: %s\n", generated)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&login, "login", "", "login name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&password, "password", "", "password (generated when omitted)")
	f.StringVar(&name, "name", "Administrator", "full name")
	_ = cmd.MarkFlagRequired("login")
	return cmd
}

func (rn *runner) provisionCoordinatorCmd() *cobra.Command {
	var in provisioning.Input
	var district string
	cmd := &cobra.Command{
		Use:   "provision-coordinator",
		Short: "Create a coordinator and its login; prints the one-time credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rn.with(cmd.Context(), func(ctx context.Context, b Backend) error {
				if district != "" {
					d, err := b.Repo.Districts().GetByName(ctx, district)
					if err != nil {
						return fmt.Errorf("district %q: %w", district, err)
					}
					in.DistrictID = &d.ID
				}
				res, err := provisioning.New(b.Repo, rn.logger, nil).Provision(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(rn.out, "coordinator %s provisioned\nlogin: %s\ncredential: %s\n",
					res.Coordinator.Name, res.User.LoginName, res.Credential)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "coordinator full name")
	f.StringVar(&in.EmployeeID, "employee-id", "", "employee id (becomes the login name)")
	f.StringVar(&district, "district", "", "district name (optional)")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.ContactNumber, "contact", "", "contact number, digits only")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("employee-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
