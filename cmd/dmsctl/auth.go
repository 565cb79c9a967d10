package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	dmsclient "github.com/MrEthical07/dmsclient"
	"github.com/MrEthical07/dmsclient/navigation"
	"github.com/spf13/cobra"
)

func (a *app) loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and keep the token for later commands",
		Long: `Sign in with a username and password. The password is taken from
--password, then DMSCTL_PASSWORD, then the first line of stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = a.v.GetString("password")
			}
			if password == "" {
				line, err := bufio.NewReader(a.in).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			loc, err := c.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(map[string]any{
					"user":     c.DisplayName(),
					"location": loc.FullPath(),
				})
			}
			fmt.Fprintf(a.out, "signed in as %s, now at %s\n", c.DisplayName(), loc.FullPath())
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.Initialize(cmd.Context()); err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		},
	}
}

type whoami struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Name        string   `json:"name"`
	Admin       bool     `json:"admin"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user, roles and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			snap := c.Snapshot()
			user, _ := snap.User()
			w := whoami{
				ID:          user.ID,
				Username:    user.Username,
				Name:        c.DisplayName(),
				Admin:       c.IsAdmin(),
				Roles:       snap.Roles().Names(),
				Permissions: snap.Permissions().Codes(),
			}
			if a.jsonOutput() {
				return a.printJSON(w)
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "user\t%s (%s)\n", w.Name, w.Username)
			fmt.Fprintf(tw, "admin\t%t\n", w.Admin)
			fmt.Fprintf(tw, "roles\t%s\n", strings.Join(w.Roles, ", "))
			fmt.Fprintf(tw, "permissions\t%s\n", strings.Join(w.Permissions, ", "))
			return tw.Flush()
		},
	}
}

func (a *app) canCmd() *cobra.Command {
	var anyOf bool

	cmd := &cobra.Command{
		Use:   "can <permission>...",
		Short: "Check permission codes for the signed-in user",
		Long: `Check one or more permission codes such as files.browse.list.
Admins hold every permission. The command fails unless all codes are held,
or any of them with --any.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			granted := make(map[string]bool, len(args))
			for _, code := range args {
				granted[code] = c.HasPermission(code)
			}
			if a.jsonOutput() {
				if err := a.printJSON(granted); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				for _, code := range args {
					fmt.Fprintf(tw, "%s\t%s\n", code, yesNo(granted[code]))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			ok := c.HasAllPermissions(args...)
			if anyOf {
				ok = c.HasAnyPermission(args...)
			}
			if !ok {
				return dmsclient.ErrPermissionDenied
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&anyOf, "any", false, "succeed when any code is held")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (a *app) navigateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Run the route guard for a path and print where it lands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.Initialize(cmd.Context()); err != nil {
				return err
			}
			loc, err := c.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(map[string]any{
					"requested": args[0],
					"location":  loc.FullPath(),
					"name":      loc.Name,
				})
			}
			fmt.Fprintln(a.out, loc.FullPath())
			return nil
		},
	}
}

func (a *app) menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the navigation entries the signed-in user can see",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			menu := c.Menu()
			if a.jsonOutput() {
				return a.printJSON(menu)
			}
			printMenu(a.out, menu)
			return nil
		},
	}
}

func printMenu(w io.Writer, entries []navigation.MenuEntry) {
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.Name
		}
		fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", e.Depth), title, e.Path)
		printMenu(w, e.Children)
	}
}

func (a *app) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if !c.Session().RefreshToken(cmd.Context()) {
				return errors.New("token refresh failed")
			}
			fmt.Fprintln(a.out, "token refreshed")
			return nil
		},
	}
}
