package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	account := &cobra.Command{
		Use:   "account",
		Short: "Manage the signed-in account",
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete the account",
		Run:   runAccountDelete,
	}
	del.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	account.AddCommand(del)
	RootCmd.AddCommand(account)
}

func runAccountDelete(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")

	a := mustApp(cmd)
	defer a.Close()
	requireLogin(a)

	if !yes {
		answer := promptIfEmpty("Delete your account and all chat history? Type 'delete' to confirm", "")
		if !strings.EqualFold(answer, "delete") {
			fmt.Fprintln(os.Stderr, "aborted")
			return
		}
	}

	if err := a.client.DeleteAccount(cmd.Context(), a.session); err != nil {
		exitErr("delete account", err)
	}
	if err := clearSession(cmd.Context(), a.store); err != nil {
		exitErr("clear session", err)
	}
	printOK("Account deleted")
}
