package history

import (
	"sort"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

// MergeResult carries the merged log plus tallies of how many rows were
// collapsed. Duplicates counts exact repeats within a single source, Resolved
// counts historical rows displaced by a live row inside the tolerance window.
type MergeResult struct {
	Plays      []models.Play
	Duplicates int
	Resolved   int
}

// Merge combines the historical and live event sets into one deduplicated,
// time-ordered log. When a historical and a live play share a track and their
// played-at times differ by no more than tolerance, the live play wins. The
// output is sorted by played-at ascending with a deterministic tie-break, so
// merging the same inputs twice yields the same log.
func Merge(historical, live []models.Play, tolerance time.Duration) MergeResult {
	result := MergeResult{}

	historical, dropped := collapseExact(historical)
	result.Duplicates += dropped

	live, dropped = collapseExact(live)
	result.Duplicates += dropped

	liveTimes := make(map[string][]time.Time, len(live))
	for _, play := range live {
		key := trackKey(play)
		liveTimes[key] = append(liveTimes[key], play.PlayedAt)
	}
	for key := range liveTimes {
		times := liveTimes[key]
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}

	merged := make([]models.Play, 0, len(historical)+len(live))
	merged = append(merged, live...)

	for _, play := range historical {
		if withinTolerance(liveTimes[trackKey(play)], play.PlayedAt, tolerance) {
			result.Resolved++
			continue
		}
		merged = append(merged, play)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].PlayedAt.Equal(merged[j].PlayedAt) {
			return merged[i].PlayedAt.Before(merged[j].PlayedAt)
		}
		if merged[i].Source != merged[j].Source {
			return merged[i].Source == models.SourceLive
		}
		return trackKey(merged[i]) < trackKey(merged[j])
	})

	result.Plays = merged
	return result
}

// collapseExact drops repeat rows sharing a track key and played-at time,
// keeping the first occurrence.
func collapseExact(plays []models.Play) ([]models.Play, int) {
	if len(plays) == 0 {
		return plays, 0
	}

	type exactKey struct {
		track    string
		playedAt int64
	}

	seen := make(map[exactKey]bool, len(plays))
	kept := make([]models.Play, 0, len(plays))
	dropped := 0

	for _, play := range plays {
		key := exactKey{track: trackKey(play), playedAt: play.PlayedAt.UnixNano()}
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		kept = append(kept, play)
	}

	return kept, dropped
}

// withinTolerance reports whether any timestamp in the sorted slice is at
// most tolerance away from t.
func withinTolerance(times []time.Time, t time.Time, tolerance time.Duration) bool {
	if len(times) == 0 {
		return false
	}

	idx := sort.Search(len(times), func(i int) bool { return !times[i].Before(t) })

	if idx < len(times) && times[idx].Sub(t) <= tolerance {
		return true
	}
	if idx > 0 && t.Sub(times[idx-1]) <= tolerance {
		return true
	}
	return false
}

// trackKey identifies a track for dedup purposes: the Spotify ID when the
// play carries one, otherwise the normalized title and artist pair.
func trackKey(play models.Play) string {
	if play.TrackID != "" {
		return "id:" + play.TrackID
	}
	return shared.NormalizeTrackKey(play.TrackName, play.ArtistName)
}
