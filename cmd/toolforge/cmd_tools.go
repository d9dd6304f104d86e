package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"toolforge/internal/forge"
)

var (
	submitDesc string
	invokeArgs string
)

var submitCmd = &cobra.Command{
	Use:   "submit [name] [file|-]",
	Short: "Validate and register a tool from Go source",
	Long: `Reads the source of a single Go function from a file (or stdin with "-"),
validates it and registers it under name.

Example:
  toolforge submit add_two add_two.go --desc "Add two integers"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		def, err := a.svc.Submit(cmd.Context(), args[0], source, submitDesc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s%s\n", def.Name, def.Signature)
		return nil
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke [name]",
	Short: "Invoke a registered tool",
	Long: `Runs a tool and prints its normalized JSON result.

Example:
  toolforge invoke add_two --args '{"a": 3, "b": 4}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseArgs(invokeArgs)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.svc.Invoke(cmd.Context(), args[0], params)
		if err != nil {
			_ = printJSON(cmd.OutOrStdout(), forge.ErrorResult(err))
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries with usage counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		reg := a.svc.Registry()
		out := cmd.OutOrStdout()
		for _, m := range reg.List() {
			marker := " "
			if _, ok := reg.Get(m.Name); !ok {
				marker = "!"
			}
			fmt.Fprintf(out, "%s %-20s %-8s uses=%-4d success=%-4d %s\n",
				marker, m.Name, m.Origin, m.Uses, m.Success, m.Description)
		}
		return nil
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the tool catalog as planner prompt text",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), a.svc.Registry().FormatForInjection())
		return nil
	},
}

var actCmd = &cobra.Command{
	Use:   "act [text|-]",
	Short: "Carry out the planner action found in text",
	Long: `Extracts a use_tool or propose_tool JSON object from planner output
and executes it. Reads stdin when the argument is "-" or missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := "-"
		if len(args) == 1 {
			text = args[0]
		}
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		a, err := openApp(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.Act(cmd.Context(), text)
		if err != nil {
			return err
		}
		if res.Definition != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s%s\n", res.Definition.Name, res.Definition.Signature)
			return nil
		}
		return printJSON(cmd.OutOrStdout(), res.Result)
	},
}

func readSource(stdin io.Reader, arg string) (string, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return string(data), nil
}

func parseArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
