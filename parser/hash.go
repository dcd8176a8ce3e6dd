package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"talabat-menusync/models"
)

// Fingerprint computes the stable per-item content hash used for change
// detection. The tuple deliberately excludes the source-assigned id and the
// rating: two scrapes that agree on every content field must match by
// fingerprint even when the source re-assigns ids, so that a match can
// backfill identifier metadata without being classified as a change.
//
// An absent old price is folded in as the -1 sentinel ("-1.00"); a source
// that later reports oldPrice: -1 is indistinguishable from "absent". That
// conflation is load-bearing for fingerprint stability across stored data.
func Fingerprint(it models.MenuItem) string {
	tuple := strings.Join([]string{
		strings.ToLower(it.Name),
		strings.ToLower(it.Description),
		fmt.Sprintf("%.2f", it.Price),
		fmt.Sprintf("%.2f", it.OldPrice),
		it.Image,
		it.OriginalImage,
		strconv.FormatBool(it.HasChoices),
		strings.ToLower(it.SectionName),
	}, "|")
	return sha256Hex(tuple)
}

// ComputeMenuHash hashes the sorted list of item fingerprints. Sorting makes
// the menu hash invariant to the source's item ordering, which is not stable
// across requests.
func ComputeMenuHash(items []models.MenuItem) string {
	hashes := make([]string, 0, len(items))
	for _, it := range items {
		hashes = append(hashes, it.ItemHash)
	}
	sort.Strings(hashes)
	return sha256Hex(strings.Join(hashes, "\n"))
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
