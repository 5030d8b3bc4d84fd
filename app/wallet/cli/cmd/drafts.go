package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/wallet"
	"github.com/spf13/cobra"
)

var (
	draftMirrorURL string
	draftID        uint
	deleteDraft    bool
	draftBlocks    string
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Save or delete a draft on the mirror",
	Run: func(cmd *cobra.Command, args []string) {
		if err := draftsRun(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.Flags().StringVarP(&draftMirrorURL, "mirror-url", "m", "http://localhost:3000", "Url of the mirror service.")
	draftsCmd.Flags().UintVarP(&draftID, "id", "i", 0, "Draft id. Zero creates a new draft.")
	draftsCmd.Flags().BoolVarP(&deleteDraft, "delete", "d", false, "Delete the draft instead of saving.")
	draftsCmd.Flags().StringVarP(&draftBlocks, "blocks", "f", "article.json", "Path to the editor blocks file.")
}

func draftsRun() error {
	w, err := openWallet()
	if err != nil {
		return err
	}

	sig, err := w.SignMessage([]byte(w.Identity()))
	if err != nil {
		return err
	}

	client := mirror.NewClient(mirror.Config{
		Endpoint: draftMirrorURL,
	})

	if deleteDraft {
		if draftID == 0 {
			return fmt.Errorf("--id is required with --delete")
		}
		if err := client.DeleteDraft(context.Background(), w.Identity(), draftID, sig); err != nil {
			return err
		}
		fmt.Printf("deleted draft %d\n", draftID)
		return nil
	}

	payload, err := loadBlocks(draftBlocks)
	if err != nil {
		return err
	}

	draft, err := client.SaveDraft(context.Background(), mirror.DraftRequest{
		DraftID:   draftID,
		PublicKey: w.Identity().String(),
		Blocks:    payload.Blocks,
		Signature: sig,
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved draft %d: %s\n", draft.ID, draft.Title)
	return nil
}

func openWallet() (*wallet.Wallet, error) {
	return wallet.Open(getPrivateKeyPath())
}
