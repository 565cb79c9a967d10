package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/MrEthical07/dmsclient/api"
	"github.com/spf13/cobra"
)

func (a *app) filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Browse, upload and download files",
	}
	cmd.AddCommand(
		a.filesListCmd(),
		a.filesRecentCmd(),
		a.filesGetCmd(),
		a.filesStatsCmd(),
		a.filesDownloadCmd(),
		a.filesUploadCmd(),
	)
	return cmd
}

func (a *app) filesListCmd() *cobra.Command {
	var (
		filter api.FileFilter
		status int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List files page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			if cmd.Flags().Changed("status") {
				filter.Status = &status
			}
			page, err := c.API().Files.List(cmd.Context(), filter.Values())
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(page)
			}
			if err := a.printFiles(page.Items); err != nil {
				return err
			}
			p := page.Pagination
			fmt.Fprintf(a.out, "page %d of %d, %d files\n", p.Page, p.TotalPages, p.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&filter.Page, "page", 1, "page number")
	f.IntVar(&filter.PageSize, "page-size", 20, "files per page")
	f.IntVar(&status, "status", 0, "only files in this workflow status")
	f.IntVar(&filter.Type, "type", 0, "only files of this type")
	f.Int64Var(&filter.CategoryID, "category", 0, "only files in this category")
	f.StringVar(&filter.Keyword, "keyword", "", "title keyword")
	return cmd
}

func (a *app) filesRecentCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			files, err := c.API().Files.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(files)
			}
			return a.printFiles(files)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of files")
	return cmd
}

func (a *app) filesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			file, err := c.API().Files.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(file)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "id\t%d\n", file.ID)
			fmt.Fprintf(tw, "title\t%s\n", file.Title)
			fmt.Fprintf(tw, "name\t%s\n", file.Name)
			fmt.Fprintf(tw, "category\t%s\n", file.CategoryName)
			fmt.Fprintf(tw, "status\t%d\n", file.Status)
			fmt.Fprintf(tw, "size\t%d\n", file.Size)
			fmt.Fprintf(tw, "uploaded\t%s by %s\n", unixTime(file.UploadAt), file.UploadUsername)
			fmt.Fprintf(tw, "download\t%s\n", c.API().Files.DownloadURL(file.ID))
			return tw.Flush()
		},
	}
}

func (a *app) filesStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.API().Files.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(stats)
		},
	}
}

func (a *app) filesDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a file's content",
		Long:  `Download a file's content to --output, or to stdout when it is "-".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			body, _, err := c.API().Files.Download(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer body.Close()

			var dst io.Writer = a.out
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}
			n, err := io.Copy(dst, body)
			if err != nil {
				return err
			}
			a.logger.Info().Int64("id", id).Int64("bytes", n).Msg("downloaded")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "destination file")
	return cmd
}

func (a *app) filesUploadCmd() *cobra.Command {
	var u api.NewUpload

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			u.Name = filepath.Base(args[0])
			u.Reader = f
			u.Size = info.Size()
			if u.Title == "" {
				u.Title = u.Name
			}
			file, err := c.API().Files.Upload(cmd.Context(), u, func(sent, total int64) {
				a.logger.Debug().Int64("sent", sent).Int64("total", total).Msg("upload progress")
			})
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(file)
			}
			fmt.Fprintf(a.out, "uploaded %s as file %d\n", u.Name, file.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&u.Title, "title", "", "title (default: file name)")
	f.Int64Var(&u.CategoryID, "category", 0, "category id")
	f.IntVar(&u.Type, "type", 0, "file type")
	f.IntVar(&u.Level, "level", 0, "access level")
	f.StringVar(&u.Groups, "groups", "", "comma-separated group ids")
	return cmd
}

func (a *app) printFiles(files []api.File) error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSTATUS\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", f.ID, f.Title, f.CategoryName, f.Status, unixTime(f.UploadAt))
	}
	return tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func unixTime(sec int64) string {
	if sec <= 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
