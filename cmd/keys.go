package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a BROWSER_STATE_SECRET value (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "export BROWSER_STATE_SECRET=%s\n", base64.StdEncoding.EncodeToString(secret))
			return nil
		},
	}
}
