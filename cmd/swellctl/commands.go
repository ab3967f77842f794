package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paybridge/backend/internal/domain/storefront"
)

// gatewayFactory opens the remote store gateway used by a command
type gatewayFactory func(verbose bool) (storefront.Gateway, error)

// pinger is implemented by gateways that can test connectivity
type pinger interface {
	Ping(ctx context.Context) error
}

func newRootCmd(connect gatewayFactory) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "swellctl",
		Short:         "Inspect the remote store over its line protocol",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log protocol activity to stderr")

	open := func() (storefront.Gateway, error) {
		return connect(verbose)
	}

	rootCmd.AddCommand(getCmd(open))
	rootCmd.AddCommand(execCmd(open))
	rootCmd.AddCommand(countCmd(open))
	rootCmd.AddCommand(fetchAllCmd(open))
	rootCmd.AddCommand(pingCmd(open))
	return rootCmd
}

func getCmd(open func() (storefront.Gateway, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "get [path]",
		Short: "Send a GET request and print the response document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := open()
			if err != nil {
				return err
			}
			resp, err := gw.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), resp)
		},
	}
}

func execCmd(open func() (storefront.Gateway, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "exec [method] [path] [body]",
		Short: "Send a request with an optional JSON object body",
		Long: `Send one request to the remote store. method is GET, POST, PUT or DELETE.
The body, when given, must be a JSON object; credentials are added automatically.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := storefront.Method(strings.ToUpper(args[0]))
			if !method.IsValid() {
				return fmt.Errorf("unsupported method %q", args[0])
			}

			var body *storefront.Document
			if len(args) == 3 {
				var err error
				body, err = storefront.ParseDocument(args[2])
				if err != nil {
					return fmt.Errorf("invalid body: %w", err)
				}
			}

			gw, err := open()
			if err != nil {
				return err
			}
			resp, err := gw.Execute(cmd.Context(), method, args[1], body)
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), resp)
		},
	}
}

func countCmd(open func() (storefront.Gateway, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "count [path]",
		Short: "Print the number of records in a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := open()
			if err != nil {
				return err
			}
			n, err := gw.Count(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}

func fetchAllCmd(open func() (storefront.Gateway, error)) *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "fetch-all [path]",
		Short: "Fetch every record of a collection, one JSON document per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := open()
			if err != nil {
				return err
			}
			docs, err := gw.FetchAll(cmd.Context(), args[0], pageSize)
			if err != nil {
				return err
			}
			for _, doc := range docs {
				if err := printDocument(cmd.OutOrStdout(), doc); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&pageSize, "page-size", "n", 0, "Records per page request (0 uses the configured default)")
	return cmd
}

func pingCmd(open func() (storefront.Gateway, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the remote store accepts TLS connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := open()
			if err != nil {
				return err
			}
			p, ok := gw.(pinger)
			if !ok {
				return errors.New("gateway does not support ping")
			}
			if err := p.Ping(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	}
}

func printDocument(w io.Writer, doc *storefront.Document) error {
	_, err := fmt.Fprintln(w, doc.String())
	return err
}
