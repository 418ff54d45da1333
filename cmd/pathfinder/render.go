package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

func validOutput(format string) bool {
	switch format {
	case "text", "json", "yaml":
		return true
	}
	return false
}

// render writes v as json or yaml, or calls text for the default format
func (a *app) render(v any, text func(w io.Writer) error) error {
	switch a.format {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	return text(a.out)
}

// table writes aligned columns
func table(w io.Writer, header string, rows func(tw io.Writer)) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

// message is the structured form of a plain status line
type message struct {
	Message string `json:"message" yaml:"message"`
}

func (a *app) say(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return a.render(message{Message: msg}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}
