package stats

import ws "github.com/gokatarajesh/finlit-quiz/pkg/http/ws"

func toLevelEntries(entries []Entry) []ws.LevelEntry {
	result := make([]ws.LevelEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LevelEntry{
			Rank:        i + 1,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			BestScore:   e.BestScore,
			Attempts:    e.Attempts,
		}
	}
	return result
}
