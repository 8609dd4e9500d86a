package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/countdown/internal/credential"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Manage the control API token"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the API token, creating one if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := credential.APIToken()
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rotate",
		Short: "Replace the API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := credential.RotateAPIToken()
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Remove the API token from the keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return credential.DeleteAPIToken()
		},
	})
	return cmd
}
