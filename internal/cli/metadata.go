package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	xerrors "pharos-russia-nft/internal/errors"
	"pharos-russia-nft/internal/nft"
)

func newMetadataCommand(opts *options) *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "metadata <tokenId>",
		Short: "Print the metadata document for a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokenID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return xerrors.Wrap(xerrors.CodeInvalidTokenID, err, "")
			}
			base, err := url.Parse(baseURL)
			if err != nil || base.Scheme == "" || base.Host == "" {
				return xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("invalid --base-url %q", baseURL))
			}

			md, err := nft.NewResponder(opts.cfg).Metadata(tokenID, base.Scheme, base.Host)
			if err != nil {
				return err
			}
			return printJSON(cmd, md)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5000", "scheme and host the image URL is built from")
	return cmd
}

func newConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the chain configuration served at /api/config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, nft.NewResponder(opts.cfg).ChainConfig())
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
