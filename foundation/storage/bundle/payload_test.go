package bundle_test

import (
	"testing"

	"github.com/scribenet/scribe/foundation/storage/bundle"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_ExtractHeader(t *testing.T) {
	tests := []struct {
		name   string
		blocks []bundle.Block
		want   bundle.Header
	}{
		{
			name: "full article",
			blocks: []bundle.Block{
				{Type: bundle.BlockHeader, Data: []byte(`{"text":"The Title"}`)},
				{Type: bundle.BlockParagraph, Data: []byte(`{"text":"The opening paragraph."}`)},
				{Type: bundle.BlockImage, Data: []byte(`{"file":{"url":"https://img.example/x.png"}}`)},
			},
			want: bundle.Header{
				Title:       "The Title",
				Description: "The opening paragraph.",
				ImageURL:    "https://img.example/x.png",
			},
		},
		{
			name: "first of each wins",
			blocks: []bundle.Block{
				{Type: bundle.BlockHeader, Data: []byte(`{"text":"First"}`)},
				{Type: bundle.BlockHeader, Data: []byte(`{"text":"Second"}`)},
				{Type: bundle.BlockParagraph, Data: []byte(`{"text":"One."}`)},
				{Type: bundle.BlockParagraph, Data: []byte(`{"text":"Two."}`)},
			},
			want: bundle.Header{Title: "First", Description: "One."},
		},
		{
			name: "paragraph before header",
			blocks: []bundle.Block{
				{Type: bundle.BlockParagraph, Data: []byte(`{"text":"Lede first."}`)},
				{Type: bundle.BlockHeader, Data: []byte(`{"text":"Late Title"}`)},
			},
			want: bundle.Header{Title: "Late Title", Description: "Lede first."},
		},
		{
			name: "unknown and malformed blocks skipped",
			blocks: []bundle.Block{
				{Type: "code", Data: []byte(`{"code":"x := 1"}`)},
				{Type: bundle.BlockHeader, Data: []byte(`not json`)},
				{Type: bundle.BlockHeader, Data: []byte(`{"text":"Recovered"}`)},
			},
			want: bundle.Header{Title: "Recovered"},
		},
		{
			name:   "no blocks",
			blocks: nil,
			want:   bundle.Header{},
		},
	}

	t.Log("Given the need to extract presentation fields from editor blocks.")
	{
		for testID, tt := range tests {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tt.name)
			{
				got := bundle.ExtractHeader(tt.blocks)
				if got != tt.want {
					t.Fatalf("\t%s\tTest %d:\tShould extract the header: got %+v, exp %+v.", failed, testID, got, tt.want)
				}
				t.Logf("\t%s\tTest %d:\tShould extract the header.", success, testID)
			}
		}
	}
}
