package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kotosiro/kotosiro/security"
)

func init() {
	RootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("secret", "", "signing secret shared with the controller")
	tokenCmd.Flags().String("account", "", "account name to mint the token for")
	tokenCmd.MarkFlagRequired("secret")
	tokenCmd.MarkFlagRequired("account")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "mint a short-lived service token for a runner",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		account, _ := cmd.Flags().GetString("account")

		signed, err := security.NewTokenService(secret).Mint(account)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}
