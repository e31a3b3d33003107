package service

import (
	"sort"

	"optionsync/internal/domain"
)

// Rank returns the display order of options and marks the single highest
// voted one. The input slice is not modified.
//
// Order: the highest option when the viewer owns it, then the viewer's own
// options, options the viewer supports, options created by subscribers and
// everything else, each group by descending vote count. An option that
// qualifies for several groups shows up once, at its earliest position.
func Rank(options []domain.Option, rc domain.RankContext) []domain.Option {
	if len(options) == 0 {
		return []domain.Option{}
	}

	items := make([]domain.Option, len(options))
	for i, opt := range options {
		items[i] = opt.Clone()
		items[i].IsHighest = false
	}

	highest := findHighest(items)

	// Each option lands in its highest-priority group only, which is what
	// concatenating overlapping groups and keeping first occurrences yields.
	var mine, supported, bySubscribers, rest []domain.Option
	for _, opt := range items {
		switch {
		case opt.IsCreatedBy(rc.ViewerID, rc.PostAuthorID):
			mine = append(mine, opt)
		case opt.IsSupportedByMe:
			supported = append(supported, opt)
		case opt.IsCreatedBySubscriber:
			bySubscribers = append(bySubscribers, opt)
		default:
			rest = append(rest, opt)
		}
	}

	sortByVotes(mine)
	sortByVotes(supported)
	sortByVotes(bySubscribers)
	sortByVotes(rest)

	ordered := make([]domain.Option, 0, len(items)+1)
	highestIsMine := highest.IsCreatedBy(rc.ViewerID, rc.PostAuthorID)
	if highestIsMine {
		ordered = append(ordered, highest)
	}
	ordered = append(ordered, mine...)
	ordered = append(ordered, supported...)
	ordered = append(ordered, bySubscribers...)
	ordered = append(ordered, rest...)
	if !highestIsMine {
		ordered = append(ordered, highest)
	}

	result := make([]domain.Option, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, opt := range ordered {
		if _, dup := seen[opt.ID]; dup {
			continue
		}
		seen[opt.ID] = struct{}{}
		if opt.ID == highest.ID {
			opt.IsHighest = true
		}
		result = append(result, opt)
	}

	return result
}

// findHighest picks the max vote count, lowest id on ties
func findHighest(items []domain.Option) domain.Option {
	best := items[0]
	for _, opt := range items[1:] {
		if opt.VoteCount > best.VoteCount || (opt.VoteCount == best.VoteCount && opt.ID < best.ID) {
			best = opt
		}
	}
	return best
}

func sortByVotes(items []domain.Option) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].VoteCount != items[j].VoteCount {
			return items[i].VoteCount > items[j].VoteCount
		}
		return items[i].ID < items[j].ID
	})
}
