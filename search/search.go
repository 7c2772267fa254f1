package search

import (
	"sync"
	"sync/atomic"

	"github.com/lexandro/fastpick-mcp/index"
)

const defaultWorkers = 4

// Result is the ordered outcome of one query over one snapshot.
type Result struct {
	Items        []index.FileEntry `json:"items"`
	Scores       []Score           `json:"scores"`
	TotalMatched int               `json:"total_matched"`
	TotalFiles   int               `json:"total_files"`
}

// Search matches and ranks every entry of the snapshot against the query,
// returning at most maxResults items. Queries shorter than two runes rank by
// frecency alone. maxThreads bounds the scoring worker pool (default 4).
// A query never fails: an empty snapshot yields an empty result.
func Search(snap *index.Snapshot, query string, maxResults, maxThreads int) Result {
	if maxThreads <= 0 {
		maxThreads = defaultWorkers
	}
	if maxResults < 0 {
		maxResults = 0
	}

	result := Result{TotalFiles: snap.TotalFiles}
	if len(snap.Entries) == 0 {
		return result
	}

	ctx := newScoringContext(query, snap.CurrentFile)
	frecencyOnly := ctx.rawLen < 2

	workers := maxThreads
	if workers > len(snap.Entries) {
		workers = len(snap.Entries)
	}
	chunk := (len(snap.Entries) + workers - 1) / workers

	heaps := make([]*topK, workers)
	var matched atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, len(snap.Entries))
		local := newTopK(maxResults)
		heaps[w] = local

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for pos := lo; pos < hi; pos++ {
				entry := &snap.Entries[pos]

				var score Score
				if frecencyOnly {
					score = scoreByFrecency(entry, &ctx)
				} else {
					var ok bool
					score, ok = scoreCandidate(entry, &ctx)
					if !ok {
						continue
					}
				}

				matched.Add(1)
				local.offer(ranked{
					pos:      pos,
					score:    score,
					frecency: entry.TotalFrecencyScore,
					relPath:  entry.RelativePath,
				})
			}
		}(lo, hi)
	}
	wg.Wait()

	top := mergeTopK(maxResults, heaps)
	result.TotalMatched = int(matched.Load())
	result.Items = make([]index.FileEntry, len(top))
	result.Scores = make([]Score, len(top))
	for i, r := range top {
		result.Items[i] = snap.Entries[r.pos]
		result.Scores[i] = r.score
	}
	return result
}
