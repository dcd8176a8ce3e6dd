// Package diff classifies a fresh menu snapshot against previously stored
// item fingerprints. It is pure with respect to its inputs; persistence is
// the caller's job, inside a single transaction per menu.
package diff

import (
	"sort"

	"talabat-menusync/models"
	"talabat-menusync/parser"
)

// Result partitions a snapshot into disjoint sets over the prior fingerprint
// collection. Consumed immediately by the store within one reconciliation
// transaction.
type Result struct {
	MenuHash string
	// Unchanged short-circuits reconciliation: the menu hash matched the
	// stored one, so no per-item classification was performed.
	Unchanged bool
	// New items carry fingerprints never seen before.
	New []models.MenuItem
	// Matched items share a fingerprint with a stored record; by
	// construction that is an exact content match, so applying them is a
	// metadata touch-up only (e.g. source id backfill, re-availability).
	Matched []models.MenuItem
	// RemovedHashes are stored fingerprints absent from the snapshot; the
	// records are marked unavailable, never deleted, so historical
	// references stay valid.
	RemovedHashes []string
}

// Reconcile computes the menu hash and, unless it equals priorMenuHash,
// classifies every incoming item by strict fingerprint equality. Items whose
// fingerprints collide within the snapshot collapse to one logical item.
// Near-duplicate names with any differing normalized field are a new+removed
// pair on purpose; matching is never done by name similarity.
func Reconcile(items []models.MenuItem, priorMenuHash string, priorHashes map[string]struct{}) Result {
	menuHash := parser.ComputeMenuHash(items)
	if priorMenuHash != "" && priorMenuHash == menuHash {
		return Result{MenuHash: menuHash, Unchanged: true}
	}

	result := Result{MenuHash: menuHash}
	current := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := current[item.ItemHash]; dup {
			continue
		}
		current[item.ItemHash] = struct{}{}
		if _, known := priorHashes[item.ItemHash]; known {
			result.Matched = append(result.Matched, item)
		} else {
			result.New = append(result.New, item)
		}
	}

	for hash := range priorHashes {
		if _, present := current[hash]; !present {
			result.RemovedHashes = append(result.RemovedHashes, hash)
		}
	}
	sort.Strings(result.RemovedHashes)
	return result
}
