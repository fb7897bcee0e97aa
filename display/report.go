package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/importer"
)

// WriteReport writes report as YAML
func WriteReport(w io.Writer, report *importer.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return errors.Wrap(err, "failed to encode import report")
	}
	return errors.Wrap(enc.Close(), "failed to finish import report")
}

// WriteReportFile writes report as YAML to path
func WriteReportFile(path string, report *importer.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create report %s", path)
	}
	if err := WriteReport(f, report); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "failed to close report %s", path)
}

// SummaryTable renders the counts of a report, one row per label and relationship type
func SummaryTable(report *importer.Report) (string, error) {
	data := pterm.TableData{{"Kind", "Name", "Count"}}
	data = append(data, countRows("label", report.NodeCounts)...)
	data = append(data, countRows("type", report.RelationshipCounts)...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

func countRows(kind string, counts map[string]int64) [][]string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{kind, name, fmt.Sprintf("%d", counts[name])}
	}
	return rows
}

// PrintSummary prints the outcome of an import to w
func PrintSummary(w io.Writer, report *importer.Report) error {
	pterm.Fprintln(w, pterm.Success.Sprintf("Imported %d nodes, %d relationships, %d properties in %s",
		report.Nodes, report.Relationships, report.Properties, report.Duration.Round(time.Millisecond)))
	pterm.Fprintln(w, pterm.Sprintf("  %s %s  %s %d",
		pterm.Gray("strategy:"), report.Strategy,
		pterm.Gray("dense nodes:"), report.DenseNodes))
	table, err := SummaryTable(report)
	if err != nil {
		return errors.Wrap(err, "failed to render summary")
	}
	pterm.Fprintln(w, table)
	return nil
}
