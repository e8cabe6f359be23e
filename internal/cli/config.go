package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sukerxi/mpvbridge/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration fields with their current and default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := lo.Must(cmd.Flags().GetStringSlice("key"))
			asJSON := lo.Must(cmd.Flags().GetBool("json"))

			fields, err := selectFields(keys)
			if err != nil {
				return err
			}
			return printFields(cmd.OutOrStdout(), fields, asJSON)
		},
	}
	cmd.Flags().StringSliceP("key", "k", nil, "Only show these keys")
	cmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	lo.Must0(cmd.RegisterFlagCompletionFunc("key", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
	}))
	return cmd
}

func selectFields(keys []string) ([]config.Field, error) {
	if len(keys) == 0 {
		fields := lo.Values(config.Default)
		slices.SortFunc(fields, func(a, b config.Field) int { return strings.Compare(a.Key, b.Key) })
		return fields, nil
	}

	fields := make([]config.Field, 0, len(keys))
	for _, key := range keys {
		field, ok := config.Default[key]
		if !ok {
			return nil, fmt.Errorf("unknown key %q", key)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func printFields(w io.Writer, fields []config.Field, asJSON bool) error {
	if asJSON {
		ptrs := lo.ToSlicePtr(fields)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ptrs)
	}

	for _, f := range fields {
		desc := strings.ReplaceAll(f.Description, "\n", " ")
		if _, err := fmt.Fprintf(w, "%s = %v (default %v, env %s)\n    %s\n",
			f.Key, viper.Get(f.Key), f.Value, f.Env(), desc); err != nil {
			return err
		}
	}
	return nil
}
