package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/stickylist/internal/validate"
)

// loginCmd signs in and stores the session token in the keyring
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Sticky List service",
	RunE:  runLogin,
}

// registerCmd creates an account and signs in
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

// logoutCmd removes the stored session token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Long: `Removes the session token from the keyring. The local copy of your
checklists is kept; use 'stickylist cache clear' to remove it.`,
	RunE: runLogout,
}

var loginEmail string

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	form := validate.LoginForm{Email: loginEmail}

	fields := []huh.Field{}
	if form.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&form.Email).
			Validate(validate.Email))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&form.Password).
		Validate(validate.LoginPassword))

	if err := huh.NewForm(huh.NewGroup(fields...)).RunWithContext(cmd.Context()); err != nil {
		return err
	}

	if err := svc.Login(cmd.Context(), form); err != nil {
		return err
	}
	fmt.Println("Signed in.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	var form validate.RegisterForm

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&form.Name).
				Validate(validate.Name),
			huh.NewInput().
				Title("Email").
				Value(&form.Email).
				Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				Description("At least 8 characters with upper, lower case and a digit").
				EchoMode(huh.EchoModePassword).
				Value(&form.Password).
				Validate(validate.RegisterPassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&form.ConfirmPassword).
				Validate(func(s string) error {
					return validate.Confirmation(form.Password)(s)
				}),
		),
	).RunWithContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := svc.Register(cmd.Context(), form); err != nil {
		return err
	}
	fmt.Println("Account created. You are signed in.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := svc.Logout(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}
