package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/store"
)

func init() {
	history := &cobra.Command{
		Use:   "history",
		Short: "Work with saved chat transcripts",
	}

	show := &cobra.Command{
		Use:   "show <course>",
		Short: "Print a course's saved transcript",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Export saved transcripts as JSON",
		Run:   runHistoryExport,
	}
	export.Flags().StringP("course", "c", "", "Filter by course")

	imp := &cobra.Command{
		Use:   "import [file]",
		Short: "Import transcripts from JSON",
		Long:  "Import transcripts (stdin or file). Expects the format produced by export.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistoryImport,
	}

	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search saved transcripts by keyword",
		Args:  cobra.MinimumNArgs(1),
		Run:   runHistorySearch,
	}
	search.Flags().StringP("course", "c", "", "Filter by course")
	search.Flags().IntP("limit", "l", 20, "Max results")

	history.AddCommand(show, export, imp, search)
	RootCmd.AddCommand(history)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	defer a.Close()

	recs, err := a.store.Transcript(cmd.Context(), args[0])
	if err != nil {
		exitErr("transcript", err)
	}
	printOut(recs, func() {
		if len(recs) == 0 {
			fmt.Printf("No saved messages for %s.\n", args[0])
		}
		for _, r := range recs {
			printMessage(r.Seq, r.Message())
		}
	})
}

func runHistoryExport(cmd *cobra.Command, args []string) {
	course, _ := cmd.Flags().GetString("course")

	a := mustApp(cmd)
	defer a.Close()

	recs, err := a.store.ExportAll(cmd.Context(), course)
	if err != nil {
		exitErr("export", err)
	}
	if recs == nil {
		recs = []store.Record{}
	}

	b, _ := json.MarshalIndent(recs, "", "  ")
	fmt.Println(string(b))
}

func runHistoryImport(cmd *cobra.Command, args []string) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open file", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		exitErr("read input", err)
	}

	var recs []store.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		exitErr("parse json", err)
	}

	a := mustApp(cmd)
	defer a.Close()

	imported, err := a.store.Import(cmd.Context(), recs)
	if err != nil {
		exitErr("import", err)
	}

	printOut(map[string]any{"ok": true, "imported": imported}, func() {
		fmt.Printf("%s imported %d messages\n", okLabel("✓"), imported)
	})
}

func runHistorySearch(cmd *cobra.Command, args []string) {
	course, _ := cmd.Flags().GetString("course")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a := mustApp(cmd)
	defer a.Close()

	results, err := a.store.Search(cmd.Context(), store.SearchParams{
		Course: course,
		Query:  query,
		Limit:  limit,
	})
	if err != nil {
		exitErr("search", err)
	}
	if results == nil {
		results = []store.Record{}
	}

	printOut(results, func() {
		if len(results) == 0 {
			fmt.Println("No matches.")
		}
		for _, r := range results {
			fmt.Printf("%s ", userColor(r.Course))
			printMessage(r.Seq, r.Message())
		}
	})
}
