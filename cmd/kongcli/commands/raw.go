package commands

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	konghttp "github.com/fivetwenty-io/kongcli/internal/http"
)

const dryRunMarker = "---<<== Done with dry-run. ==>>---"

var rawMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// NewRawCommand creates the raw command.
func NewRawCommand() *cobra.Command {
	var (
		headers []string
		data    []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "raw METHOD PATH",
		Short: "Perform raw HTTP requests to the admin API",
		Long: `Send an arbitrary request to the admin API and print the response.

The request and the response status line and headers are written to stderr,
the response body to stdout. The response is never validated.

Headers are given as -H 'Name: value'. The JSON body is built from -d flags:
  -d foo=bar            # => {"foo": "bar"}
  -d foo=true           # => {"foo": true}
  -d 'foo="true"'       # => {"foo": "true"}
  -d foo.bar.baz=2.3    # => {"foo": {"bar": {"baz": 2.3}}}
  -d name=bar -d 'config.methods=["GET", "POST"]'
                        # => {"name": "bar", "config": {"methods": ["GET", "POST"]}}

Each -d takes a single key=value argument. The older two-argument form
(-d key value) is no longer accepted.`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			if !rawMethods[method] {
				return fmt.Errorf("%w: %s", constants.ErrInvalidMethod, args[0])
			}

			extra, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			var body interface{}

			if len(data) > 0 {
				payload, err := parseData(data)
				if err != nil {
					return err
				}

				if len(payload) > 0 {
					body = payload
				}
			}

			gateway, err := CreateClient()
			if err != nil {
				return err
			}
			defer gateway.Close()

			session := gateway.HTTPClient()

			prepared, err := session.Prepare(&konghttp.Request{
				Method:  method,
				Path:    args[1],
				Body:    body,
				Headers: extra,
			})
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			printRequest(stderr, prepared)

			if dryRun {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), dryRunMarker)

				return nil
			}

			resp, err := session.Execute(commandContext(cmd), prepared)
			if err != nil {
				return err
			}

			printResponse(stderr, resp)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(resp.Body))

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "add a request header as 'Name: value'")
	addDataFlag(cmd, &data)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only build the request without sending it")

	return cmd
}

func parseHeaders(entries []string) (map[string]string, error) {
	headers := make(map[string]string, len(entries))

	for _, entry := range entries {
		name, value, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeader, entry)
		}

		headers[name] = strings.TrimSpace(value)
	}

	return headers, nil
}

func printRequest(w io.Writer, req *konghttp.PreparedRequest) {
	_, _ = fmt.Fprintf(w, "> %s %s\n", req.Method, req.URL)

	for _, line := range headerLines(req.Header) {
		_, _ = fmt.Fprintf(w, "> %s\n", line)
	}

	_, _ = fmt.Fprintln(w, ">")

	if req.Body != nil {
		_, _ = fmt.Fprintln(w, "> Body:")
		_, _ = fmt.Fprintf(w, "> %s\n", req.Body)
	}
}

func printResponse(w io.Writer, resp *konghttp.Response) {
	_, _ = fmt.Fprintf(w, "\n< %s %d %s\n", resp.Proto, resp.StatusCode, resp.Reason())

	for _, line := range headerLines(resp.Headers) {
		_, _ = fmt.Fprintf(w, "< %s\n", line)
	}

	_, _ = fmt.Fprintln(w)
}

func headerLines(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}

	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		for _, value := range header[name] {
			lines = append(lines, name+": "+value)
		}
	}

	return lines
}
