package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/scribenet/scribe/business/core/publish"
	"github.com/scribenet/scribe/foundation/ledger"
	"github.com/scribenet/scribe/foundation/ledger/derive"
	"github.com/scribenet/scribe/foundation/mirror"
	"github.com/scribenet/scribe/foundation/storage/bundle"
	"github.com/spf13/cobra"
)

var (
	ledgerURL     string
	bundleURL     string
	mirrorURL     string
	programHex    string
	blocksFile    string
	articleID     uint
	existingPost  string
	fullResponse  bool
	confirmWithin time.Duration
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish an article from a blocks file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishRun(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVarP(&ledgerURL, "ledger-url", "l", "http://localhost:8899", "Url of the ledger node.")
	publishCmd.Flags().StringVarP(&bundleURL, "bundle-url", "b", "http://localhost:1984", "Url of the content store gateway.")
	publishCmd.Flags().StringVarP(&mirrorURL, "mirror-url", "m", "http://localhost:3000", "Url of the mirror service.")
	publishCmd.Flags().StringVarP(&programHex, "program", "g", "", "Hex id of the publishing program.")
	publishCmd.Flags().StringVarP(&blocksFile, "blocks", "f", "article.json", "Path to the editor blocks file.")
	publishCmd.Flags().UintVarP(&articleID, "article-id", "i", 0, "Mirror article id when editing.")
	publishCmd.Flags().StringVarP(&existingPost, "post", "o", "", "Existing post address when editing.")
	publishCmd.Flags().BoolVarP(&fullResponse, "full", "r", false, "Print the mirrored record.")
	publishCmd.Flags().DurationVarP(&confirmWithin, "confirm-timeout", "t", 30*time.Second, "How long to wait for confirmation.")
	publishCmd.MarkFlagRequired("program")
}

func publishRun() error {
	w, err := openWallet()
	if err != nil {
		return err
	}

	sig, err := w.SignMessage([]byte(w.Identity()))
	if err != nil {
		return err
	}

	program, err := derive.ToProgramID(programHex)
	if err != nil {
		return err
	}

	payload, err := loadBlocks(blocksFile)
	if err != nil {
		return err
	}

	opts := publish.Options{
		ArticleID:    articleID,
		FullResponse: fullResponse,
	}
	if existingPost != "" {
		post, err := derive.ToAccountAddress(existingPost)
		if err != nil {
			return err
		}
		opts.ExistingPost = post
	}

	coordinator := publish.NewCoordinator(publish.Config{
		Ledger: ledger.NewClient(ledger.Config{
			Endpoint: ledgerURL,
			Program:  program,
		}),
		Uploader: bundle.NewClient(bundle.Config{
			Gateway: bundleURL,
		}),
		Mirror: mirror.NewClient(mirror.Config{
			Endpoint: mirrorURL,
		}),
		ConfirmTimeout: confirmWithin,
		EvHandler: func(v string, args ...any) {
			fmt.Printf(v+"\n", args...)
		},
	})

	result, err := coordinator.PublishPost(context.Background(), payload, w, sig, opts)
	if err != nil {
		return err
	}

	fmt.Printf("tx: %s\npost: %s\n", result.TxID, result.Post)
	if result.Mirrored != nil {
		fmt.Printf("url: /%s/%s\n", result.Mirrored.Username, result.Mirrored.Article.Slug)
	}

	return nil
}

// loadBlocks reads an editor blocks file from disk. The file holds the raw
// block array, the same shape the autosave loop snapshots.
func loadBlocks(path string) (bundle.ContentPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bundle.ContentPayload{}, err
	}

	var blocks []bundle.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return bundle.ContentPayload{}, fmt.Errorf("parsing blocks file: %w", err)
	}

	return bundle.ContentPayload{
		Blocks:      blocks,
		ContentType: "blocks",
	}, nil
}
