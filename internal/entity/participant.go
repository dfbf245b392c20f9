package entity

// Participant holds one side's score and reaction history. Latencies are
// recorded only for correct, in-time responses.
type Participant struct {
	Role          Role    `json:"role"`
	Score         int     `json:"score"`
	ReactionTimes []int64 `json:"reaction_times"`
	AvgReaction   int64   `json:"avg_reaction"`
}

func NewParticipant(role Role) *Participant {
	return &Participant{Role: role}
}

func (that *Participant) AwardPoint() {
	that.Score++
}

// RecordReaction appends a correct-response latency in milliseconds and
// refreshes the running average.
func (that *Participant) RecordReaction(ms int64) {
	that.ReactionTimes = append(that.ReactionTimes, ms)

	var sum int64
	for _, rt := range that.ReactionTimes {
		sum += rt
	}
	that.AvgReaction = sum / int64(len(that.ReactionTimes))
}

// FastestReaction returns the lowest recorded latency, or 0 when none exist.
func (that *Participant) FastestReaction() int64 {
	var fastest int64
	for _, rt := range that.ReactionTimes {
		if fastest == 0 || rt < fastest {
			fastest = rt
		}
	}
	return fastest
}
