package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/MrEthical07/dmsclient/api"
	"github.com/spf13/cobra"
)

func (a *app) searchCmd() *cobra.Command {
	var p api.SearchParams

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			p.Query = strings.Join(args, " ")
			res, err := c.API().Search.Query(cmd.Context(), p)
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(res)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tSCORE")
			for _, h := range res.Results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", h.ID, h.Title, h.CategoryName, h.Score)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d results\n", res.Pagination.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&p.Types, "type", nil, "file types to include")
	f.StringSliceVar(&p.Statuses, "status", nil, "workflow statuses to include")
	f.Int64Var(&p.CategoryID, "category", 0, "category id")
	f.StringVar(&p.DateFrom, "from", "", "earliest upload date")
	f.StringVar(&p.DateTo, "to", "", "latest upload date")
	f.IntVar(&p.Page, "page", 1, "page number")
	f.IntVar(&p.PageSize, "page-size", 20, "results per page")
	f.StringVar(&p.SortBy, "sort", "relevance", "sort order")

	cmd.AddCommand(a.suggestCmd())
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Print autocomplete suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			out, err := c.API().Search.Suggestions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return a.printJSON(out)
			}
			for _, s := range out {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
}
