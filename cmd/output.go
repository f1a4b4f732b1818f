package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/hydrai/cli/internal/api"
	"github.com/hydrai/cli/internal/config"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	leakStyle   = cellStyle.Foreground(lipgloss.Color("196"))
)

// meterView is a flow meter as printed by the json and yaml formats
type meterView struct {
	api.FlowMeter `yaml:",inline"`
	Total         float64 `json:"total_consumption" yaml:"total_consumption"`
	Leak          bool    `json:"leak" yaml:"leak"`
}

func meterViews(meters []api.FlowMeter) []meterView {
	views := make([]meterView, 0, len(meters))
	for _, m := range meters {
		views = append(views, meterView{FlowMeter: m, Total: m.TotalConsumption(), Leak: m.HasLeak()})
	}
	return views
}

// printOutput prints the output in the specified structured format
func printOutput(w io.Writer, data interface{}, format config.OutputFormat) error {
	switch format {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// printJSON pretty prints a raw JSON document, highlighted on terminals
func printJSON(w io.Writer, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	buf.WriteByte('\n')

	if colorEnabled(w) {
		return quick.Highlight(w, buf.String(), "json", "terminal256", "monokai")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// renderMeters prints flow meters as a table followed by the overall consumption
func renderMeters(w io.Writer, meters []api.FlowMeter) error {
	if len(meters) == 0 {
		_, err := fmt.Fprintln(w, "No flow meters found")
		return err
	}

	leaks := make(map[int]bool, len(meters))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TYPE", "STATE", "MEASUREMENTS", "TOTAL (L)", "LEAK").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 6 && leaks[row]:
				return leakStyle
			default:
				return cellStyle
			}
		})

	var total float64
	for i, m := range meters {
		leak := ""
		if m.HasLeak() {
			leak = "yes"
			leaks[i] = true
		}
		total += m.TotalConsumption()
		t.Row(
			m.ID,
			m.Name,
			m.Type,
			m.State,
			strconv.Itoa(len(m.Measurements)),
			api.FormatLitres(m.TotalConsumption()),
			leak,
		)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total consumption: %s L across %d meters\n", api.FormatLitres(total), len(meters))
	return err
}

func colorEnabled(w io.Writer) bool {
	if session != nil && session.cfg.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
