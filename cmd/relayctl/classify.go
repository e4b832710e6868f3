package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"botrelay/internal/relay"
)

func classifyCmd() *cobra.Command {
	var attachment string
	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Show whether a message body would be delivered to bots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := relay.LoadRuleset(patternsFile)
			if err != nil {
				return err
			}
			return runClassify(cmd.OutOrStdout(), relay.NewClassifier(rules), strings.Join(args, " "), attachment)
		},
	}
	cmd.Flags().StringVar(&attachment, "attachment", "", "filename of an attached file")
	return cmd
}

func runClassify(w io.Writer, classifier *relay.Classifier, body, attachment string) error {
	verdict := classifier.ClassifyText(body, attachment != "", attachment)
	if verdict.Suppress {
		_, err := fmt.Fprintf(w, "suppress (%s)\n", verdict.Reason)
		return err
	}
	_, err := fmt.Fprintf(w, "deliver: %q\n", verdict.Body)
	return err
}

func patternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the suppression patterns in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := relay.LoadRuleset(patternsFile)
			if err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), rules)
		},
	}
}

func printRules(w io.Writer, rules *relay.Ruleset) error {
	for _, rule := range rules.Rules {
		state := "on"
		if !rule.IsEnabled() {
			state = "off"
		}
		if _, err := fmt.Fprintf(w, "%-22s %-3s %s\n", rule.Name, state, rule.Pattern); err != nil {
			return err
		}
	}
	return nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a pattern catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), data)
		},
	}
}

func runCheck(w io.Writer, data []byte) error {
	rules, err := relay.ParseRuleset(data)
	if err != nil {
		return err
	}
	enabled := 0
	for _, rule := range rules.Rules {
		if rule.IsEnabled() {
			enabled++
		}
	}
	_, err = fmt.Fprintf(w, "ok: %d rules, %d enabled\n", len(rules.Rules), enabled)
	return err
}
