// Command materialize-base renders one view of an Obsidian Base
// definition as a markdown document (spec.md §6.1).
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/loader"
	"github.com/obsidian-tools/materialize-base/internal/materialize"
	"github.com/obsidian-tools/materialize-base/internal/mdformat"
)

var (
	viewFlag  string
	vaultFlag string
)

var rootCmd = &cobra.Command{
	Use:   "materialize-base <base-path>",
	Short: "Materialize an Obsidian Base view as a markdown table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], viewFlag, vaultFlag, cmd.OutOrStdout())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&viewFlag, "view", "", "view name to materialize (default: first view)")
	rootCmd.Flags().StringVar(&vaultFlag, "vault", "", "vault root (default: inferred from an ancestor .obsidian directory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorChain(err))
		os.Exit(1)
	}
}

// errorChain renders each wrap layer's own message on its own
// paragraph, blank-line separated, preserving the underlying cause
// (spec.md §7).
func errorChain(err error) string {
	type causer interface{ Cause() error }
	var parts []string
	for err != nil {
		c, ok := err.(causer)
		if !ok {
			parts = append(parts, err.Error())
			break
		}
		cause := c.Cause()
		if err.Error() == cause.Error() {
			// A stack-only layer (errors.Wrap's withStack) adds no text.
			err = cause
			continue
		}
		msg := strings.TrimSuffix(err.Error(), ": "+cause.Error())
		if msg != "" {
			parts = append(parts, msg)
		}
		err = cause
	}
	return strings.Join(parts, "\n\n")
}

func run(basePath, viewName, vaultRoot string, out io.Writer) error {
	if vaultRoot == "" {
		found, err := findVaultRoot(basePath)
		if err != nil {
			return err
		}
		vaultRoot = found
	}

	data, err := os.ReadFile(basePath)
	if err != nil {
		return errors.Wrap(err, "cannot read base file")
	}

	base, err := baseyaml.Parse(data)
	if err != nil {
		return err
	}

	files, err := loader.Load(vaultRoot)
	if err != nil {
		return errors.Wrap(err, "loading vault")
	}

	result, err := materialize.Materialize(base, viewName, files)
	if err != nil {
		return err
	}

	doc := mdformat.Document(result.ViewName, result.Rows)
	_, err = out.Write([]byte(doc))
	return err
}

// findVaultRoot walks ancestor directories of basePath looking for a
// directory containing .obsidian (spec.md §6.1).
func findVaultRoot(basePath string) (string, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return "", errors.Wrap(err, "resolving base path")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrap(err, "cannot stat base path")
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".obsidian")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not infer vault root: no ancestor directory contains .obsidian; pass --vault explicitly")
		}
		dir = parent
	}
}
