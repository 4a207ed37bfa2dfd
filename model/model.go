// Package model defines the typed attendance snapshot and the statistics
// derived from it. A Snapshot is built once per poll cycle from the raw
// upstream payload and never mutated; everything downstream (rendering,
// summaries, change detection) operates on these types only.
package model

import (
	"sort"
	"time"
)

// Member is one Knesset member as reported by a single snapshot.
type Member struct {
	ID          int
	FirstName   string
	LastName    string
	Faction     string
	Coalition   bool
	Present     bool
	PortraitURL string
}

// Snapshot is one fetched attendance dataset for all members.
type Snapshot struct {
	Members   []Member
	FetchedAt time.Time
}

// Present returns the members marked present, in payload order.
func (s *Snapshot) Present() []Member {
	var out []Member
	for _, m := range s.Members {
		if m.Present {
			out = append(out, m)
		}
	}
	return out
}

// PresentIDs returns the set of identifiers of present members.
func (s *Snapshot) PresentIDs() map[int]struct{} {
	ids := make(map[int]struct{})
	for _, m := range s.Members {
		if m.Present {
			ids[m.ID] = struct{}{}
		}
	}
	return ids
}

// FactionStat holds per-faction presence counts. Percentage is computed
// against the faction's full roster, present and absent alike.
type FactionStat struct {
	Name       string
	Present    int
	Total      int
	Percentage float64
}

// FactionStats returns presence stats for factions with at least one present
// member, sorted by descending percentage then ascending faction name.
func (s *Snapshot) FactionStats() []FactionStat {
	present := make(map[string]int)
	total := make(map[string]int)
	for _, m := range s.Members {
		total[m.Faction]++
		if m.Present {
			present[m.Faction]++
		}
	}
	var stats []FactionStat
	for name, tot := range total {
		p := present[name]
		if p == 0 {
			continue
		}
		stats = append(stats, FactionStat{
			Name:       name,
			Present:    p,
			Total:      tot,
			Percentage: float64(p) / float64(tot) * 100,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Percentage != stats[j].Percentage {
			return stats[i].Percentage > stats[j].Percentage
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// BlocStats holds aggregate presence for the coalition and opposition blocs.
type BlocStats struct {
	CoalitionPresent  int
	CoalitionTotal    int
	OppositionPresent int
	OppositionTotal   int
}

// BlocStats partitions all members into coalition/opposition and counts
// present versus total for each bloc.
func (s *Snapshot) BlocStats() BlocStats {
	var b BlocStats
	for _, m := range s.Members {
		if m.Coalition {
			b.CoalitionTotal++
			if m.Present {
				b.CoalitionPresent++
			}
		} else {
			b.OppositionTotal++
			if m.Present {
				b.OppositionPresent++
			}
		}
	}
	return b
}
