package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/creator-sync/internal/filter"
	"github.com/pdiddy/creator-sync/internal/geo"
	"github.com/pdiddy/creator-sync/internal/normalize"
	"github.com/pdiddy/creator-sync/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show how saved raw records normalize and filter",
	Long: `Inspect reads raw producer records from a file (a JSON array or JSON
Lines) and shows, for each one, the normalized profile, the filter verdict
and which geography rule matched. Nothing is written to the ledger, the
store or the sink.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("file", "", "raw records file (JSON array or JSON Lines)")
	inspectCmd.Flags().String("format", "table", "output format: table or yaml")
	inspectCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(inspectCmd)
}

// inspection is one record's offline verdict.
type inspection struct {
	Profile   types.Profile `yaml:"profile"`
	Pass      bool          `yaml:"pass"`
	Reason    string        `yaml:"reason,omitempty"`
	GeoRule   string        `yaml:"geo_rule,omitempty"`
	Duplicate bool          `yaml:"duplicate,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := readRecords(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	results := inspect(records, cfg.Filter)
	w := cmd.OutOrStdout()
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(results)
	case "table":
		formatInspection(results, w)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use table or yaml", format)
	}
}

func inspect(records []types.RawRecord, cfg types.FilterConfig) []inspection {
	classifier := geo.NewClassifier(geo.UnitedStates)
	seen := make(map[string]bool)
	out := make([]inspection, 0, len(records))
	for _, raw := range records {
		p := normalize.Normalize(raw)
		in := inspection{Profile: p, GeoRule: string(classifier.Explain(p))}
		if !p.HasIdentity() {
			in.Reason = "no handle"
			out = append(out, in)
			continue
		}
		v := filter.Evaluate(p, cfg)
		in.Pass = v.Pass
		in.Reason = string(v.Reason)

		key := strings.ToLower(p.Handle)
		in.Duplicate = seen[key]
		seen[key] = true
		out = append(out, in)
	}
	return out
}

// readRecords accepts a JSON array of objects or one object per line.
func readRecords(r io.Reader) ([]types.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if data[0] == '[' {
		var records []types.RawRecord
		if err := dec.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []types.RawRecord
	for {
		var rec types.RawRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func formatInspection(results []inspection, w io.Writer) {
	fmt.Fprintf(w, "%-4s  %-30s  %10s  %-5s  %-14s  %-10s\n",
		"#", "HANDLE", "FOLLOWERS", "PASS", "REASON", "GEO")
	pass := 0
	for i, r := range results {
		handle := r.Profile.Handle
		if handle == "" {
			handle = "-"
		}
		if r.Duplicate {
			handle += " (dup)"
		}
		verdict := "no"
		if r.Pass {
			verdict = "yes"
			pass++
		}
		fmt.Fprintf(w, "%-4d  %-30s  %10d  %-5s  %-14s  %-10s\n",
			i+1, truncate(handle, 30), r.Profile.FollowerCount, verdict, r.Reason, r.GeoRule)
	}
	fmt.Fprintf(w, "\n%d records, %d pass the filter\n", len(results), pass)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
