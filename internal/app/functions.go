package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

type functionView struct {
	Name        string   `json:"name"`
	Signature   string   `json:"signature"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	Returns     string   `json:"returns"`
}

// ListFunctions writes the function catalog to w, as a table or, when
// format is "json", as a JSON array.
func (a *App) ListFunctions(w io.Writer, format string) error {
	entries := a.registry.Entries()

	views := make([]functionView, 0, len(entries))
	for _, e := range entries {
		v := functionView{
			Name:        e.Name,
			Signature:   e.Signature(),
			Description: e.Description,
			Params:      []string{},
			Returns:     e.ReturnType.FriendlyName(),
		}
		for _, p := range e.Params {
			v.Params = append(v.Params, p.Name)
		}
		views = append(views, v)
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIGNATURE\tDESCRIPTION")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, v.Signature, v.Description)
	}
	return tw.Flush()
}
