// internal/assets/embed.go
//
// Embedded client page and a tiny sample corpus. The sample is seeded only
// when the corpus database has no verses at all, so the server can be poked
// at without a full translation import (which happens offline).

package assets

import (
	"bufio"
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dcgray/scriptle/internal/bible"
)

//go:embed index.html sample_verses.tsv
var FS embed.FS

// payloadMarker is replaced with the translations JSON when serving the page.
const payloadMarker = `'={ PAYLOAD }='`

// IndexPage renders the embedded index.html with the translation list
// injected in place of the payload marker.
func IndexPage(translations []bible.Translation) ([]byte, error) {
	raw, err := FS.ReadFile("index.html")
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(translations)
	if err != nil {
		return nil, err
	}
	return bytes.ReplaceAll(raw, []byte(payloadMarker), payload), nil
}

// SampleVerses parses the embedded tab-separated sample corpus:
// book, chapter, verse, text — one verse per line, KJV text.
func SampleVerses() ([]bible.Verse, error) {
	f, err := FS.Open("sample_verses.tsv")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []bible.Verse
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("assets: malformed sample line %q", line)
		}
		var nums [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(parts[i])
			if err != nil {
				return nil, fmt.Errorf("assets: malformed sample line %q", line)
			}
			nums[i] = n
		}
		out = append(out, bible.Verse{
			Translation: 1,
			Book:        nums[0],
			Chapter:     nums[1],
			Verse:       nums[2],
			Text:        parts[3],
		})
	}
	return out, sc.Err()
}
