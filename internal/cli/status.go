package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"aigateway/internal/httpapi"
	"aigateway/pkg/types"
)

func newStatusCmd(opts *options) *cobra.Command {
	var (
		server string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show endpoint and model availability",
		Long: `Probe the configured candidates and check the required model.

With --server the status is read from a running aigateway instead.`,
		Example: `  aigateway status
  aigateway status --server http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				st  types.StatusResponse
				err error
			)
			if server != "" {
				st, err = fetchStatus(cmd.Context(), server)
			} else {
				st, err = localStatus(cmd, opts)
			}
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running aigateway")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func localStatus(cmd *cobra.Command, opts *options) (types.StatusResponse, error) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return types.StatusResponse{}, err
	}
	log, err := opts.logger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return types.StatusResponse{}, err
	}
	rt, err := newRuntime(cmd.Context(), cfg, log, false)
	if err != nil {
		return types.StatusResponse{}, err
	}
	defer rt.Close()
	return httpapi.ToStatus(rt.gateway.Reconnect(cmd.Context())), nil
}

func fetchStatus(ctx context.Context, server string) (types.StatusResponse, error) {
	var st types.StatusResponse
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	url := strings.TrimRight(server, "/") + "/v1/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("fetch status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printStatus(w io.Writer, st types.StatusResponse) {
	fmt.Fprintf(w, "Connected:  %s\n", yesNo(st.Connected))
	if st.ActiveEndpoint != "" {
		fmt.Fprintf(w, "Endpoint:   %s\n", st.ActiveEndpoint)
	}
	fmt.Fprintf(w, "Model:      %s (installed: %s)\n", st.RequiredModel, yesNo(st.ModelPresent))
	if len(st.InstalledModels) > 0 {
		fmt.Fprintf(w, "Installed:  %s\n", strings.Join(st.InstalledModels, ", "))
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "Last error: %s (%s)\n", st.LastError, st.LastReason)
	}
	if len(st.Endpoints) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tSTATUS\tLATENCY\tTRUST\tFAILURES\tACTIVE")
	for _, ep := range st.Endpoints {
		latency := "-"
		if ep.LastLatencyMs != nil {
			latency = fmt.Sprintf("%dms", *ep.LastLatencyMs)
		}
		status := ep.Status
		if ep.Demoted {
			status += " (demoted)"
		}
		active := ""
		if ep.Active {
			active = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%s\n", ep.Address, status, latency, ep.Trust, ep.Failures, active)
	}
	_ = tw.Flush()
}
