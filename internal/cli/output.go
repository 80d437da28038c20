package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	errLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
	okLabel   = color.New(color.FgGreen).SprintFunc()
	userColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	botColor  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	dimColor  = color.New(color.Faint).SprintFunc()
)

// printOut writes v as JSON or YAML, or calls text for the text format.
func printOut(v any, text func()) {
	switch strings.ToLower(formatFlag) {
	case "json":
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			exitErr("encode yaml", err)
		}
		enc.Close()
	case "text", "":
		text()
	default:
		exitErr("format", fmt.Errorf("unknown format %q (use text, json or yaml)", formatFlag))
	}
}

func printOK(msg string) {
	printOut(map[string]any{"ok": true, "message": msg}, func() {
		fmt.Println(okLabel("✓"), msg)
	})
}
