package trust

import "time"

const (
	// FlagTemporalBurst marks reviews unusually concentrated in time.
	FlagTemporalBurst = "temporal_burst"
	// FlagLowUserDiversity marks too few distinct reviewer identities.
	FlagLowUserDiversity = "low_user_diversity"

	burstDayFracThreshold  = 0.30
	diversityFracThreshold = 0.20
	burstPenalty           = 0.35
	diversityPenalty       = 0.35

	dayLayout = "2006-01-02"
)

// BurstSignal computes an aggregate suspicion penalty from review
// timestamps and reviewer identities. Coordinated campaigns concentrate
// in time and reuse few identities; each signal is necessary but not
// sufficient, so the two penalties add rather than multiply. Pure and
// total: no reviews or no timestamps yields the zero signal.
func BurstSignal(reviews []Review) AggregateSignal {
	var s AggregateSignal
	if len(reviews) == 0 {
		return s
	}

	anyTime := false
	for _, r := range reviews {
		if r.Timestamp > 0 {
			anyTime = true
			break
		}
	}
	if !anyTime {
		return s
	}

	// Reviews without a timestamp share one bucket so the busiest-day
	// fraction stays relative to the full batch.
	days := make(map[string]int, len(reviews))
	for _, r := range reviews {
		day := "NA"
		if r.Timestamp > 0 {
			day = time.Unix(r.Timestamp, 0).Format(dayLayout)
		}
		days[day]++
	}
	maxDay := 0
	for _, n := range days {
		if n > maxDay {
			maxDay = n
		}
	}
	if float64(maxDay)/float64(len(reviews)) > burstDayFracThreshold {
		s.Flags = append(s.Flags, FlagTemporalBurst)
		s.Penalty += burstPenalty
	}

	users := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		id := r.ReviewerID
		if id == "" {
			id = "unknown"
		}
		users[id] = true
	}
	if float64(len(users))/float64(len(reviews)) < diversityFracThreshold {
		s.Flags = append(s.Flags, FlagLowUserDiversity)
		s.Penalty += diversityPenalty
	}

	s.Penalty = clamp01(s.Penalty)
	return s
}
