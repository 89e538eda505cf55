package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// Table is a grid of header and row cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes t to w. An empty table prints nothing.
func (t Table) Render(w io.Writer) error {
	if len(t.Rows) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)

	headers := make([]any, 0, len(t.Headers))
	for _, header := range t.Headers {
		headers = append(headers, header)
	}

	table.Header(headers...)

	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func join(values []string) string {
	return strings.Join(values, "\n")
}

// ServicesTable lays out service rows.
func ServicesTable(rows []ServiceRow) Table {
	t := Table{Headers: []string{"service_id", "name", "protocol", "host", "port", "path", "whitelist", "plugins"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ServiceID, r.Name, r.Protocol, r.Host, r.Port, r.Path, join(r.Whitelist), join(r.Plugins)})
	}

	return t
}

// RoutesTable lays out route rows.
func RoutesTable(rows []RouteRow) Table {
	t := Table{Headers: []string{"route_id", "service_name", "protocols", "hosts", "paths", "whitelist", "plugins"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.RouteID, r.ServiceName, join(r.Protocols), join(r.Hosts), join(r.Paths), join(r.Whitelist), join(r.Plugins)})
	}

	return t
}

// ConsumersTable lays out consumer rows.
func ConsumersTable(rows []ConsumerRow) Table {
	t := Table{Headers: []string{"custom_id", "username", "acl_groups", "plugins", "basic_auth", "key_auth"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.CustomID, r.Username, join(r.ACLGroups), join(r.Plugins), join(r.BasicAuth), join(r.KeyAuth)})
	}

	return t
}

// RecordsTable lays out arbitrary records. Without explicit columns the
// sorted union of all keys is used.
func RecordsTable(records []kong.Record, columns ...string) Table {
	if len(columns) == 0 {
		columns = Keys(records)
	}

	t := Table{Headers: columns}
	for _, r := range records {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, FormatValue(r[column]))
		}

		t.Rows = append(t.Rows, row)
	}

	return t
}

// PropertiesTable lays out a single record as key/value lines.
func PropertiesTable(record kong.Record) Table {
	t := Table{Headers: []string{"Property", "Value"}}
	for _, key := range Keys([]kong.Record{record}) {
		t.Rows = append(t.Rows, []string{key, FormatValue(record[key])})
	}

	return t
}
