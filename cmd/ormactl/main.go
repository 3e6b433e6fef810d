package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orma-app/orma/client"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "ormactl",
		Short: "CLI client for the marks service REST API",
	}
)

func sdk() *client.Client {
	if tokenFlag == "" {
		return client.NewWithDevMode(apiFlag)
	}
	return client.New(apiFlag, tokenFlag)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Marks service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token (defaults to the local dev token)")

	// post subcommand
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Drop a mark at a coordinate",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _ := cmd.Flags().GetString("text")
			lat, _ := cmd.Flags().GetFloat64("lat")
			lng, _ := cmd.Flags().GetFloat64("lng")
			return runPost(cmd.Context(), sdk(), text, lat, lng, os.Stdout)
		},
	}
	postCmd.Flags().String("text", "", "Mark text (required)")
	postCmd.Flags().Float64("lat", 0, "Latitude (required)")
	postCmd.Flags().Float64("lng", 0, "Longitude (required)")
	_ = postCmd.MarkFlagRequired("text")
	_ = postCmd.MarkFlagRequired("lat")
	_ = postCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(postCmd)

	// list subcommand
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent marks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runList(cmd.Context(), sdk(), limit, os.Stdout)
		},
	}
	listCmd.Flags().IntP("limit", "n", 20, "Maximum marks to list")
	rootCmd.AddCommand(listCmd)

	// quota subcommand
	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the advisory submission quota for this token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuota(cmd.Context(), sdk(), os.Stdout)
		},
	}
	rootCmd.AddCommand(quotaCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
