package draw

import (
	crand "crypto/rand"
	"errors"
	"math/big"
	"sort"

	"github.com/nantokaworks/draw-bot/internal/types"
)

var errInvalidTicketsTotal = errors.New("invalid total tickets")

// weightedEntry is one entry in the cumulative-weight selection list.
type weightedEntry struct {
	Entry         types.Entry
	Tickets       int
	CumulativeSum int
}

var drawRandomInt = secureRandomInt

// findUnanimousChoice returns a choice name picked by every distinct
// entrant currently in the pool, if one exists. With more than one such
// name the lexicographically smallest wins, so resolution order is stable.
func findUnanimousChoice(pool []types.Entry) (string, bool) {
	entrants := map[int64]bool{}
	pickers := map[string]map[int64]bool{}
	for _, entry := range pool {
		entrants[entry.UserID] = true
		if pickers[entry.Name] == nil {
			pickers[entry.Name] = map[int64]bool{}
		}
		pickers[entry.Name][entry.UserID] = true
	}
	if len(entrants) == 0 {
		return "", false
	}

	names := make([]string, 0, len(pickers))
	for name, users := range pickers {
		if len(users) == len(entrants) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return names[0], true
}

// buildWeightedEntries builds the weighted draw list. First-choice entries
// carry two tickets unless a unanimous pick has already happened this run,
// after which every entry carries one.
func buildWeightedEntries(pool []types.Entry, hadUnanimous bool) ([]weightedEntry, int) {
	weighted := make([]weightedEntry, 0, len(pool))
	totalTickets := 0

	for _, entry := range pool {
		tickets := 1
		if entry.First && !hadUnanimous {
			tickets = 2
		}
		totalTickets += tickets
		weighted = append(weighted, weightedEntry{
			Entry:         entry,
			Tickets:       tickets,
			CumulativeSum: totalTickets,
		})
	}

	return weighted, totalTickets
}

// pickWeighted selects one entry from the pool, uniformly over tickets.
func pickWeighted(pool []types.Entry, hadUnanimous bool) (types.Entry, error) {
	weighted, totalTickets := buildWeightedEntries(pool, hadUnanimous)
	if len(weighted) == 0 || totalTickets <= 0 {
		return types.Entry{}, errInvalidTicketsTotal
	}

	picked, err := drawRandomInt(totalTickets)
	if err != nil {
		return types.Entry{}, err
	}

	target := picked + 1 // 1-based index
	idx := sort.Search(len(weighted), func(i int) bool {
		return weighted[i].CumulativeSum >= target
	})
	if idx >= len(weighted) {
		return types.Entry{}, errInvalidTicketsTotal
	}

	return weighted[idx].Entry, nil
}

// pruneAfterWin removes the winner's entrant and the winner's choice name
// from the pool: a user wins at most once per run, and a choice name cannot
// win twice even for a different entrant.
func pruneAfterWin(pool []types.Entry, winner types.Entry) []types.Entry {
	remaining := make([]types.Entry, 0, len(pool))
	for _, entry := range pool {
		if entry.UserID == winner.UserID || entry.Name == winner.Name {
			continue
		}
		remaining = append(remaining, entry)
	}
	return remaining
}

// removeChoice removes every entry with the given choice name.
func removeChoice(pool []types.Entry, name string) []types.Entry {
	remaining := make([]types.Entry, 0, len(pool))
	for _, entry := range pool {
		if entry.Name == name {
			continue
		}
		remaining = append(remaining, entry)
	}
	return remaining
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidTicketsTotal
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
