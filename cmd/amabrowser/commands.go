package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kalambet/amabrowser/internal/config"
	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/navigator"
	"github.com/kalambet/amabrowser/internal/stats"
	"github.com/kalambet/amabrowser/internal/storage"
)

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show latest | show previous <id> | show next <id>",
	Short: "Print a single document",
	Long: `Print a single document fetched from the API.

Examples:
  amabrowser show latest
  amabrowser show next 665f1c2e8b3e4a0012345678
  amabrowser show previous 665f1c2e8b3e4a0012345678 --format yaml`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"latest", "previous", "next"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		doc, err := fetchDocument(cmd.Context(), client, args)
		if err != nil {
			return err
		}
		return writeDocument(cmd.OutOrStdout(), doc, format, newRenderer())
	},
}

func init() {
	showCmd.Flags().StringP("format", "f", "text", "output format: text, json or yaml")
}

func fetchDocument(ctx context.Context, client navigator.API, args []string) (*document.Document, error) {
	which := args[0]
	var (
		doc *document.Document
		err error
	)
	switch which {
	case "latest":
		if len(args) != 1 {
			return nil, fmt.Errorf("show latest takes no id")
		}
		doc, err = client.Latest(ctx)
	case "previous", "next":
		if len(args) != 2 {
			return nil, fmt.Errorf("show %s requires a document id", which)
		}
		if which == "previous" {
			doc, err = client.Previous(ctx, args[1])
		} else {
			doc, err = client.Next(ctx, args[1])
		}
	default:
		return nil, fmt.Errorf("unknown direction %q (want latest, previous or next)", which)
	}
	if navigator.IsNotFound(err) {
		if which == "latest" {
			return nil, fmt.Errorf("no documents found")
		}
		return nil, fmt.Errorf("no %s document", which)
	}
	return doc, err
}

// --- delete ---

// confirmPrompt asks a yes/no question on the terminal. Tests replace it.
var confirmPrompt = func(label string) bool {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := p.Run()
	return err == nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(navigator.MsgConfirmDelete) {
			printWarning("Aborted, document %s kept", id)
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		err = client.Delete(cmd.Context(), id)
		if navigator.IsNotFound(err) {
			return fmt.Errorf("document %s not found", id)
		}
		if err != nil {
			return err
		}

		printSuccess("Deleted document %s", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import <file.jsonl|pattern>...",
	Short: "Load newline-delimited JSON documents into local storage",
	Long: `Load newline-delimited JSON documents into local storage.

Each line holds one document object. mongoexport output works as is: an "_id" of the
form {"$oid": "..."} is stored as its plain hex string. Documents without an id get a
new time-ordered one. Existing documents with the same id are replaced.

Arguments may be glob patterns, including "**":
  amabrowser import exports/ama_log.jsonl
  amabrowser import 'exports/**/*.jsonl'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandPaths(args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		var total importResult
		for _, path := range paths {
			printStep("Importing %s", path)
			res, err := importFile(store, path)
			if err != nil {
				return err
			}
			total.Imported += res.Imported
			total.Failed += res.Failed
		}

		printSuccess("Imported %d documents from %d files", total.Imported, len(paths))
		if total.Failed > 0 {
			printWarning("Skipped %d malformed lines", total.Failed)
		}
		return nil
	},
}

// expandPaths resolves glob patterns; plain paths pass through unchanged.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func importFile(store documentSaver, path string) (importResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return importResult{}, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()
	return importDocuments(store, f, stderr)
}

type documentSaver interface {
	Save(body []byte) (storage.Record, error)
}

type importResult struct {
	Imported int
	Failed   int
}

func importDocuments(store documentSaver, r io.Reader, progress io.Writer) (importResult, error) {
	var lines [][]byte
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return importResult{}, fmt.Errorf("reading import file: %w", err)
	}

	bar := progressbar.NewOptions(len(lines),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(color.BlueString("Importing")),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	var res importResult
	for i, line := range lines {
		if _, err := store.Save(line); err != nil {
			res.Failed++
			fmt.Fprintf(progress, "\nline %d: %v\n", i+1, err)
		} else {
			res.Imported++
		}
		bar.Add(1)
	}
	bar.Finish()
	fmt.Fprintln(progress)
	return res, nil
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count tags per category over recent documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		report, err := stats.Analyze(cmd.Context(), store, limit)
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), report, asJSON)
	},
}

func init() {
	statsCmd.Flags().Int("limit", stats.DefaultLimit, "number of most recent documents to analyze")
	statsCmd.Flags().Bool("json", false, "print the report as JSON")
}

func writeReport(w io.Writer, report stats.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Tag analysis (last %d documents)", report.Documents)))
	fmt.Fprintf(w, "Total tags: %d\n\n", report.TotalTags)
	for _, c := range report.Categories {
		fmt.Fprintf(w, "  %-28s %d\n", c.Path, c.Count)
	}
	return nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		infos, err := config.ShowAll()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", config.ConfigFilePath())
		for _, k := range infos {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  (%s)\n", bold(k.Key), k.Value, k.Source)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
