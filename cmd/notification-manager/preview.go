package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"synctask-notifications/internal/templates"
)

func newPreviewCommand() *cobra.Command {
	var (
		fields []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "preview <kind>",
		Short: "Render a notification email to stdout",
		Long: fmt.Sprintf("Render a notification email without sending it.\n\nKinds: %s",
			strings.Join(kindNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			email, err := templates.Render(templates.Kind(args[0]), values)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprintf(out, "Subject: %s\n\n%s\n", email.Subject, email.Text)
			case "html":
				fmt.Fprintln(out, email.HTML)
			default:
				return fmt.Errorf("unknown format %q (want text or html)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "template field as key=value (repeatable)")
	cmd.Flags().StringVar(&format, "format", "text", "output body: text or html")

	return cmd
}

func parseFields(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", pair)
		}
		values[key] = value
	}
	return values, nil
}

func kindNames() []string {
	kinds := templates.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
