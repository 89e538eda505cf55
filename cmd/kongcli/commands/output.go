package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/internal/view"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

var titleCaser = cases.Title(language.English)

func outputFormat() string {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable
	}

	return format
}

// render writes data as JSON or YAML, or table when the table format is
// selected. The empty message is printed instead of an empty table.
func render(cmd *cobra.Command, data interface{}, table view.Table, empty string) error {
	w := cmd.OutOrStdout()

	switch format := outputFormat(); format {
	case constants.FormatJSON:
		return writeJSON(w, data)
	case constants.FormatYAML:
		return writeYAML(w, data)
	case constants.FormatTable:
		if len(table.Rows) == 0 {
			if empty != "" {
				_, _ = fmt.Fprintln(w, empty)
			}

			return nil
		}

		return table.Render(w)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// renderRecord shows a single record as a property table.
func renderRecord(cmd *cobra.Command, record kong.Record) error {
	return render(cmd, record, view.PropertiesTable(view.Prepare(record)), "")
}

// renderRecords shows records with the given columns, all keys when none.
func renderRecords(cmd *cobra.Command, records []kong.Record, empty string, columns ...string) error {
	if records == nil {
		records = []kong.Record{}
	}

	return render(cmd, records, view.RecordsTable(view.PrepareAll(records), columns...), empty)
}

// section is one titled block of a multi-part table output.
type section struct {
	key     string
	title   string
	data    interface{}
	table   view.Table
	empty   string
	enabled bool
}

// renderSections writes several blocks. JSON and YAML combine the enabled
// sections into one document keyed by section key.
func renderSections(cmd *cobra.Command, sections ...section) error {
	format := outputFormat()

	if format == constants.FormatJSON || format == constants.FormatYAML {
		doc := make(map[string]interface{}, len(sections))
		for _, s := range sections {
			if s.enabled {
				doc[s.key] = s.data
			}
		}

		return render(cmd, doc, view.Table{}, "")
	}

	w := cmd.OutOrStdout()
	printed := false

	for _, s := range sections {
		if !s.enabled {
			continue
		}

		if printed {
			_, _ = fmt.Fprintln(w)
		}

		printed = true

		_, _ = fmt.Fprintf(w, "%s:\n", titleCaser.String(s.title))

		if err := render(cmd, s.data, s.table, s.empty); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(data)
}

func writeYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(constants.JSONIndentSize)

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}

	return encoder.Close()
}
