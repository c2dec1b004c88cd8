package assets

import (
	"bytes"
	"testing"

	"github.com/dcgray/scriptle/internal/bible"
)

func TestIndexPage(t *testing.T) {
	page, err := IndexPage([]bible.Translation{{ID: 1, Abbreviation: "KJV", Name: "King James Version"}})
	if err != nil {
		t.Fatalf("IndexPage: %v", err)
	}
	if bytes.Contains(page, []byte(payloadMarker)) {
		t.Error("payload marker not replaced")
	}
	if !bytes.Contains(page, []byte(`"King James Version"`)) {
		t.Error("translations not injected")
	}
}

func TestSampleVerses(t *testing.T) {
	verses, err := SampleVerses()
	if err != nil {
		t.Fatalf("SampleVerses: %v", err)
	}
	if len(verses) == 0 {
		t.Fatal("empty sample corpus")
	}
	for _, v := range verses {
		if v.Book < 1 || v.Book > 66 || v.Chapter < 1 || v.Verse < 1 || v.Text == "" {
			t.Errorf("malformed sample verse %+v", v)
		}
	}
}
