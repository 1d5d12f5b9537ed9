package stats

import (
	"sort"
	"time"

	"github.com/desertthunder/replayed/internal/models"
	"github.com/desertthunder/replayed/internal/shared"
)

// Compute derives the full summary set from an event log. An empty log
// yields a summary with zero-row tables.
func Compute(plays []models.Play, opts Options) *Summary {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	summary := &Summary{}
	if len(plays) == 0 {
		return summary
	}

	summary.Overview = computeOverview(plays)
	summary.YearlyTopArtists = computeYearlyTopArtists(plays, opts.TopN)
	summary.TopTracks = computeTopTracks(plays, opts.TopN)
	summary.HourlyPlays = computeHourlyPlays(plays)
	summary.WeekdayPlays = computeWeekdayPlays(plays, summary.Overview.FirstPlayedAt, summary.Overview.LastPlayedAt)
	summary.MonthlyPlays = computeMonthlyPlays(plays)
	summary.SeasonalPlays = computeSeasonalPlays(plays)
	summary.ArtistFirstSeen, summary.YearDiscoveries = computeArtistFirstSeen(plays)

	return summary
}

func computeOverview(plays []models.Play) Overview {
	tracks := make(map[string]bool)
	artists := make(map[string]bool)

	overview := Overview{
		TotalPlays:    len(plays),
		FirstPlayedAt: plays[0].PlayedAt,
		LastPlayedAt:  plays[0].PlayedAt,
	}

	totalMS := 0
	for _, play := range plays {
		tracks[trackKey(play)] = true
		if play.ArtistName != "" {
			artists[play.ArtistName] = true
		}
		totalMS += play.MsPlayed

		if play.PlayedAt.Before(overview.FirstPlayedAt) {
			overview.FirstPlayedAt = play.PlayedAt
		}
		if play.PlayedAt.After(overview.LastPlayedAt) {
			overview.LastPlayedAt = play.PlayedAt
		}
	}

	overview.UniqueTracks = len(tracks)
	overview.UniqueArtists = len(artists)
	overview.TotalHours = float64(totalMS) / float64(time.Hour/time.Millisecond)
	overview.Years = overview.LastPlayedAt.Year() - overview.FirstPlayedAt.Year() + 1

	return overview
}

func computeYearlyTopArtists(plays []models.Play, topN int) []ArtistYearCount {
	counts := make(map[int]map[string]int)
	for _, play := range plays {
		if play.ArtistName == "" {
			continue
		}
		year := play.PlayedAt.Year()
		if counts[year] == nil {
			counts[year] = make(map[string]int)
		}
		counts[year][play.ArtistName]++
	}

	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)

	rows := make([]ArtistYearCount, 0, len(years)*topN)
	for _, year := range years {
		ranked := rankCounts(counts[year], topN)
		for i, entry := range ranked {
			rows = append(rows, ArtistYearCount{
				Year:   year,
				Rank:   i + 1,
				Artist: entry.name,
				Plays:  entry.count,
			})
		}
	}

	return rows
}

func computeTopTracks(plays []models.Play, topN int) []TrackCount {
	counts := make(map[string]int)
	display := make(map[string]models.Play)
	for _, play := range plays {
		key := trackKey(play)
		counts[key]++
		if _, ok := display[key]; !ok {
			display[key] = play
		}
	}

	ranked := rankCounts(counts, topN)

	rows := make([]TrackCount, 0, len(ranked))
	for i, entry := range ranked {
		play := display[entry.name]
		rows = append(rows, TrackCount{
			Rank:   i + 1,
			Track:  play.TrackName,
			Artist: play.ArtistName,
			Plays:  entry.count,
		})
	}

	return rows
}

func computeHourlyPlays(plays []models.Play) []HourCount {
	rows := make([]HourCount, 24)
	for hour := range rows {
		rows[hour].Hour = hour
	}
	for _, play := range plays {
		rows[play.PlayedAt.Hour()].Plays++
	}
	return rows
}

func computeWeekdayPlays(plays []models.Play, first, last time.Time) []WeekdayCount {
	counts := make(map[time.Weekday]int)
	for _, play := range plays {
		counts[play.PlayedAt.Weekday()]++
	}

	occurrences := weekdayOccurrences(first, last)

	rows := make([]WeekdayCount, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		row := WeekdayCount{Weekday: day.String(), Plays: counts[day]}
		if occurrences[day] > 0 {
			row.Average = float64(row.Plays) / float64(occurrences[day])
		}
		rows = append(rows, row)
	}

	return rows
}

// weekdayOccurrences counts how many times each weekday falls in the
// inclusive date range.
func weekdayOccurrences(first, last time.Time) map[time.Weekday]int {
	occurrences := make(map[time.Weekday]int, 7)

	start := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)

	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return occurrences
	}

	weeks := days / 7
	for day := time.Sunday; day <= time.Saturday; day++ {
		occurrences[day] = weeks
	}
	for i := 0; i < days%7; i++ {
		occurrences[start.AddDate(0, 0, weeks*7+i).Weekday()]++
	}

	return occurrences
}

func computeMonthlyPlays(plays []models.Play) []MonthCount {
	type monthKey struct {
		year  int
		month int
	}

	counts := make(map[monthKey]int)
	for _, play := range plays {
		counts[monthKey{year: play.PlayedAt.Year(), month: int(play.PlayedAt.Month())}]++
	}

	keys := make([]monthKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	rows := make([]MonthCount, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, MonthCount{Year: key.year, Month: key.month, Plays: counts[key]})
	}

	return rows
}

// Season labels in display order.
var seasons = []string{"Winter", "Spring", "Summer", "Fall"}

// seasonOf maps a month to its meteorological season.
func seasonOf(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Fall"
	}
}

func computeSeasonalPlays(plays []models.Play) []SeasonCount {
	counts := make(map[string]int, 4)
	for _, play := range plays {
		counts[seasonOf(play.PlayedAt.Month())]++
	}

	rows := make([]SeasonCount, 0, len(seasons))
	for _, season := range seasons {
		rows = append(rows, SeasonCount{Season: season, Plays: counts[season]})
	}

	return rows
}

func computeArtistFirstSeen(plays []models.Play) ([]ArtistDebut, []YearDiscoveries) {
	firstSeen := make(map[string]time.Time)
	for _, play := range plays {
		if play.ArtistName == "" {
			continue
		}
		seen, ok := firstSeen[play.ArtistName]
		if !ok || play.PlayedAt.Before(seen) {
			firstSeen[play.ArtistName] = play.PlayedAt
		}
	}

	debuts := make([]ArtistDebut, 0, len(firstSeen))
	for artist, playedAt := range firstSeen {
		debuts = append(debuts, ArtistDebut{
			Artist:        artist,
			FirstPlayedAt: playedAt,
			Year:          playedAt.Year(),
		})
	}
	sort.Slice(debuts, func(i, j int) bool {
		if !debuts[i].FirstPlayedAt.Equal(debuts[j].FirstPlayedAt) {
			return debuts[i].FirstPlayedAt.Before(debuts[j].FirstPlayedAt)
		}
		return debuts[i].Artist < debuts[j].Artist
	})

	perYear := make(map[int]int)
	for _, debut := range debuts {
		perYear[debut.Year]++
	}

	years := make([]int, 0, len(perYear))
	for year := range perYear {
		years = append(years, year)
	}
	sort.Ints(years)

	discoveries := make([]YearDiscoveries, 0, len(years))
	for _, year := range years {
		discoveries = append(discoveries, YearDiscoveries{Year: year, NewArtists: perYear[year]})
	}

	return debuts, discoveries
}

type rankedEntry struct {
	name  string
	count int
}

// rankCounts orders a count map by count descending then name ascending and
// keeps the top n entries.
func rankCounts(counts map[string]int, n int) []rankedEntry {
	entries := make([]rankedEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, rankedEntry{name: name, count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// trackKey groups plays of one track across sources, falling back to the
// normalized title and artist when the export row had no URI.
func trackKey(play models.Play) string {
	if play.TrackID != "" {
		return "id:" + play.TrackID
	}
	return shared.NormalizeTrackKey(play.TrackName, play.ArtistName)
}
