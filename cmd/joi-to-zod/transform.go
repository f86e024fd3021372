package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeusData/joi-to-zod/internal/lang"
)

// transformCommand holds the flags of the transform and extract commands.
type transformCommand struct {
	engineFlags

	language string
	write    bool
}

// readSource reads path, or stdin when path is empty or "-". The language
// comes from --language when set, otherwise from the extension.
func (tc *transformCommand) readSource(cmd *cobra.Command, path string) ([]byte, lang.Language, string, error) {
	var (
		src []byte
		err error
	)
	name := path
	if path == "" || path == "-" {
		name = "<stdin>"
		src, err = io.ReadAll(cmd.InOrStdin())
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, "", "", err
	}

	if tc.language != "" {
		l, err := lang.Parse(tc.language)
		return src, l, name, err
	}
	if l, ok := lang.LanguageForPath(name); ok {
		return src, l, name, nil
	}
	if name == "<stdin>" {
		return src, lang.TypeScript, name, nil
	}
	return nil, "", "", fmt.Errorf("%s: unsupported file type (use --language)", path)
}

func newTransformCmd(opts *rootOptions) *cobra.Command {
	tc := &transformCommand{}
	cmd := &cobra.Command{
		Use:   "transform [file]",
		Short: "Rewrite one file (or stdin) and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			_, e, err := tc.load(cmd, opts)
			if err != nil {
				return err
			}
			src, l, name, err := tc.readSource(cmd, path)
			if err != nil {
				return err
			}

			res, err := e.Transform(cmd.Context(), src, l, name)
			if err != nil {
				return err
			}
			defer res.Close()

			if tc.write && name != "<stdin>" {
				if !res.Changed() {
					return nil
				}
				st, err := os.Stat(path)
				if err != nil {
					return err
				}
				return os.WriteFile(path, []byte(res.Text), st.Mode().Perm())
			}
			_, err = io.WriteString(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	tc.register(cmd)
	cmd.Flags().StringVarP(&tc.language, "language", "l", "", "language of the input: ts, tsx or js (default from extension, ts for stdin)")
	cmd.Flags().BoolVarP(&tc.write, "write", "w", false, "write the result back to the file instead of stdout")
	return cmd
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	tc := &transformCommand{}
	cmd := &cobra.Command{
		Use:   "extract <file> <name>",
		Short: "Print one converted schema with everything it depends on",
		Long: `Rewrite file into Zod and print the top-level declaration name together
with every top-level declaration and import it references, directly or
transitively, in source order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, e, err := tc.load(cmd, opts)
			if err != nil {
				return err
			}
			src, l, name, err := tc.readSource(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := e.Extract(cmd.Context(), src, l, name, args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	tc.register(cmd)
	cmd.Flags().StringVarP(&tc.language, "language", "l", "", "language of the input: ts, tsx or js (default from extension)")
	return cmd
}
