package cmd

import (
	"fmt"
	"log"

	"github.com/scribenet/scribe/foundation/nameservice"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the identities in the key directory",
	Run:   keysRun,
}

func init() {
	rootCmd.AddCommand(keysCmd)
}

func keysRun(cmd *cobra.Command, args []string) {
	ns, err := nameservice.New(keyPath)
	if err != nil {
		log.Fatal(err)
	}

	for identity, name := range ns.Copy() {
		fmt.Printf("%s\t%s\n", name, identity)
	}
}
