package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/yaegashi/botpressops/usecase/stack"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResources prints one line per resource.
func writeResources(w io.Writer, resources []stack.ResourceResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tURN\tMESSAGE")
	for _, r := range resources {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Action, r.URN, r.Message)
	}
	return tw.Flush()
}

func writeExports(w io.Writer, values map[string]string, pending []string, keys []string) {
	for _, k := range keys {
		if v, ok := values[k]; ok {
			fmt.Fprintf(w, "%s=%s\n", k, v)
		}
	}
	for _, k := range pending {
		fmt.Fprintf(w, "%s=(pending)\n", k)
	}
}
