package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/mrasu/egholdings/catalog"
	"github.com/mrasu/egholdings/catalog/gateway"
	"github.com/mrasu/egholdings/catalog/orgunit"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type cliParams struct {
	server      string
	timeout     time.Duration
	orgUnit     int64
	descendants bool
	raw         bool
	dump        bool
	debug       bool
	record      string
	replay      string
}

type transportFactory func(params *cliParams) (gateway.Transport, error)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd(newTransport).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(factory transportFactory) *cobra.Command {
	params := &cliParams{}
	rootCmd := &cobra.Command{
		Use:          "egholdings",
		Short:        "Look up holdings in an Evergreen library catalog",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if params.debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&params.server, "server", os.Getenv("EVERGREEN_URL"), "Evergreen server, e.g. https://gapines.org")
	rootCmd.PersistentFlags().DurationVar(&params.timeout, "timeout", catalog.DefaultTimeout, "timeout of each request")
	rootCmd.PersistentFlags().BoolVar(&params.debug, "debug", false, "log debug messages")
	rootCmd.PersistentFlags().StringVar(&params.record, "record", "", "store every response in this directory")
	rootCmd.PersistentFlags().StringVar(&params.replay, "replay", "", "serve responses from this directory instead of the server")

	rootCmd.AddCommand(newHoldingsCmd(params, factory), newOrgUnitsCmd(params, factory))
	return rootCmd
}

func newHoldingsCmd(params *cliParams, factory transportFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings BIB_ID",
		Short: "Show the copies of a bibliographic record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bibID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Errorf("invalid bib id: %s", args[0])
			}
			conn, err := connect(cmd.Context(), params, factory)
			if err != nil {
				return err
			}

			var opts []catalog.QueryOption
			if cmd.Flags().Changed("org-unit") {
				opts = append(opts, catalog.AtOrgUnit(params.orgUnit))
				if params.descendants {
					opts = append(opts, catalog.IncludingDescendants())
				}
			}

			var status *catalog.Status
			if params.raw {
				status, err = conn.GetRawHoldings(cmd.Context(), bibID, opts...)
			} else {
				status, err = conn.GetHoldings(cmd.Context(), bibID, opts...)
			}
			if err != nil {
				return err
			}

			if params.dump {
				spew.Fdump(cmd.OutOrStdout(), status)
				return nil
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().Int64Var(&params.orgUnit, "org-unit", 0, "only copies owned by this org unit")
	cmd.Flags().BoolVar(&params.descendants, "descendants", false, "include the descendants of --org-unit")
	cmd.Flags().BoolVar(&params.raw, "raw", false, "do not resolve ids to names")
	cmd.Flags().BoolVar(&params.dump, "dump", false, "dump the decoded holdings")
	return cmd
}

func newOrgUnitsCmd(params *cliParams, factory transportFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "org-units",
		Short: "Show the org unit tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd.Context(), params, factory)
			if err != nil {
				return err
			}
			idx := conn.OrgUnits()
			for _, root := range idx.Roots() {
				printOrgUnit(cmd.OutOrStdout(), idx, root, 0)
			}
			return nil
		},
	}
}

func connect(ctx context.Context, params *cliParams, factory transportFactory) (*catalog.Connection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := factory(params)
	if err != nil {
		return nil, err
	}
	config := catalog.Config{BaseURL: params.server, Timeout: params.timeout}
	return catalog.Connect(ctx, config, catalog.WithTransport(t))
}

func newTransport(params *cliParams) (gateway.Transport, error) {
	if params.replay != "" {
		return gateway.NewDir(params.replay)
	}
	if params.server == "" {
		return nil, errors.New("--server or EVERGREEN_URL is required")
	}

	var t gateway.Transport = gateway.NewClient(params.server, &http.Client{Timeout: params.timeout})
	if params.record != "" {
		dir, err := gateway.NewDir(params.record)
		if err != nil {
			return nil, err
		}
		t = gateway.NewRecorder(t, dir)
	}
	return t, nil
}

func printStatus(w io.Writer, status *catalog.Status) {
	for _, item := range status.Copies {
		due := ""
		if item.DueDate != nil {
			due = *item.DueDate
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", item.Barcode, item.CallNumber, item.Location, item.Status, item.OwningLib, due)
	}
	fmt.Fprintf(w, "copies: %d, available: %t\n", len(status.Copies), status.AnyCopiesAvailable())
}

func printOrgUnit(w io.Writer, idx orgunit.Index, u *orgunit.Unit, depth int) {
	fmt.Fprintf(w, "%s%d\t%s\n", strings.Repeat("  ", depth), u.ID, u.Name)
	for _, child := range idx.Children(u.ID) {
		printOrgUnit(w, idx, child, depth+1)
	}
}
