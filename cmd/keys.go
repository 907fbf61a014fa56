package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	var asYAML bool

	c := &cobra.Command{
		Use:   "keys",
		Short: "Generate session cookie key material for the flightmenu web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := randomKey()
			if err != nil {
				return err
			}
			block, err := randomKey()
			if err != nil {
				return err
			}
			if asYAML {
				fmt.Println("# add to config.yaml next to the flightmenu server binary")
				fmt.Printf("COOKIE_HASH_KEY: %s\nCOOKIE_BLOCK_KEY: %s\n", hash, block)
				return nil
			}
			fmt.Printf("export COOKIE_HASH_KEY=%s\nexport COOKIE_BLOCK_KEY=%s\n", hash, block)
			return nil
		},
	}

	c.Flags().BoolVar(&asYAML, "yaml", false, "print config.yaml entries instead of shell exports")
	return c
}

// randomKey returns 32 bytes of key material in the base64 form
// config.CookieKeys decodes.
func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
