package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/ralphui/internal/config"
	"github.com/Iron-Ham/ralphui/internal/panelstate"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted panel state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print the persisted panel state",
	Long: `Print the panel state record as the views restore it.

Without a key, prints the record stored under state.key. Use --all to
list every key in the state directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStateShow,
}

var stateShowAll bool

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)

	stateShowCmd.Flags().BoolVar(&stateShowAll, "all", false, "list every stored key")
}

func runStateShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	storage := panelstate.NewDiskStorage(cfg.State.ResolveDir(), cfg.State.CacheSizeKB)
	out := cmd.OutOrStdout()

	if stateShowAll {
		keys := storage.Keys(cmd.Context())
		if len(keys) == 0 {
			_, _ = color.New(color.Faint, color.Italic).Fprintf(out, "no state stored in %s\n", storage.BasePath())
			return nil
		}
		for _, key := range keys {
			fmt.Fprintln(out, key)
		}
		return nil
	}

	key := cfg.State.Key
	if len(args) == 1 {
		key = args[0]
	}
	return printState(out, storage, key)
}

// printState prints the record under key the way a view restores it,
// so malformed fields show up as their defaults.
func printState(out io.Writer, storage panelstate.Storage, key string) error {
	_, stored, err := storage.Get(key)
	if err != nil {
		return err
	}

	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	_, _ = title.Fprintln(out, key)
	if !stored {
		_, _ = faint.Fprintln(out, "(not stored - defaults)")
	}

	state := panelstate.NewStore(storage, key, nil).Restore()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode panel state: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
