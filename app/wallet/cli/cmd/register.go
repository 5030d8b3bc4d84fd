package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/spf13/cobra"
)

var (
	registerMirrorURL string
	registerUsername  string
	registerName      string
	registerBlogName  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this wallet's identity with the mirror",
	Long:  "The mirror keys every draft, article and profile hash to a user row. Register once before the first publish.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := registerRun(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&registerMirrorURL, "mirror-url", "m", "http://localhost:3000", "Url of the mirror service.")
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username for the canonical article urls.")
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "Display name.")
	registerCmd.Flags().StringVarP(&registerBlogName, "blog-name", "b", "", "Name of the blog.")
	registerCmd.MarkFlagRequired("username")
}

func registerRun() error {
	w, err := openWallet()
	if err != nil {
		return err
	}

	sig, err := w.SignMessage([]byte(w.Identity()))
	if err != nil {
		return err
	}

	client := mirror.NewClient(mirror.Config{
		Endpoint: registerMirrorURL,
	})

	usr, err := client.CreateUser(context.Background(), mirror.UserRequest{
		PublicKey: w.Identity().String(),
		Username:  registerUsername,
		Name:      registerName,
		BlogName:  registerBlogName,
		Signature: sig,
	})
	if err != nil {
		return err
	}

	fmt.Printf("registered %s as %s\n", w.Identity(), usr.Username)
	return nil
}
