package bundle

import "encoding/json"

// Block types recognized when extracting header content.
const (
	BlockHeader    = "header"
	BlockParagraph = "paragraph"
	BlockImage     = "image"
)

// Block represents a single editor block inside an article.
type Block struct {
	ID   string          `json:"id,omitempty"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ContentPayload is the serializable form of an article, the full set of
// editor blocks plus the content type tag the store records.
type ContentPayload struct {
	Blocks      []Block `json:"blocks"`
	ContentType string  `json:"content_type"`
}

// Header carries the presentation fields extracted from an article's blocks.
type Header struct {
	Title       string
	Description string
	ImageURL    string
}

// ExtractHeader walks the blocks and pulls the first header text as the
// title, the first paragraph as the description, and the first image URL.
// Missing blocks leave the corresponding field empty.
func ExtractHeader(blocks []Block) Header {
	var header Header

	for _, block := range blocks {
		switch block.Type {
		case BlockHeader:
			if header.Title != "" {
				continue
			}
			var data struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(block.Data, &data); err == nil {
				header.Title = data.Text
			}

		case BlockParagraph:
			if header.Description != "" {
				continue
			}
			var data struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(block.Data, &data); err == nil {
				header.Description = data.Text
			}

		case BlockImage:
			if header.ImageURL != "" {
				continue
			}
			var data struct {
				File struct {
					URL string `json:"url"`
				} `json:"file"`
			}
			if err := json.Unmarshal(block.Data, &data); err == nil {
				header.ImageURL = data.File.URL
			}
		}
	}

	return header
}
