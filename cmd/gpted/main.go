// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// gpted is an interactive GPT partition table editor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tdm/gpted/gpt"
	"github.com/tdm/gpted/internal/shell"
)

var rootCmdFlags struct {
	sectorSize uint32
	blockCount uint64
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "gpted <device>",
	Short: "Interactive GPT partition table editor",
	Args:  cobra.ExactArgs(1),

	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(_ *cobra.Command, args []string) error {
		logger := zap.NewNop()

		if rootCmdFlags.verbose {
			var err error

			logger, err = zap.NewDevelopment()
			if err != nil {
				return err
			}
		}

		opts := []gpt.Option{
			gpt.WithLogger(logger),
		}

		if rootCmdFlags.sectorSize != 0 {
			opts = append(opts, gpt.WithSectorSize(rootCmdFlags.sectorSize))
		}

		if rootCmdFlags.blockCount != 0 {
			opts = append(opts, gpt.WithBlockCount(rootCmdFlags.blockCount))
		}

		table, err := gpt.Open(args[0], opts...)
		if err != nil {
			return fmt.Errorf("failed to read gpt: %w", err)
		}

		defer table.Close() //nolint:errcheck

		prompt := ""
		if st, err := os.Stdin.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			prompt = "partedit> "
		}

		return shell.New(table, os.Stdout).Run(os.Stdin, prompt)
	},
}

func init() {
	rootCmd.Flags().Uint32Var(&rootCmdFlags.sectorSize, "block-size", 0, "override the logical block size")
	rootCmd.Flags().Uint64Var(&rootCmdFlags.blockCount, "block-count", 0, "override the device block count (for image files)")
	rootCmd.Flags().BoolVarP(&rootCmdFlags.verbose, "verbose", "v", false, "log diagnostics to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
