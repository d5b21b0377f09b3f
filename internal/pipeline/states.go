package pipeline

// State is a step of the per-company state machine.
type State string

// States a company passes through, in order. ChallengeWait may occur after any
// navigation, any number of times.
const (
	StateDomainLookup    State = "domain_lookup"
	StateCandidateSearch State = "candidate_search"
	StateChallengeWait   State = "challenge_wait"
	StateRanking         State = "ranking"
	StateRecorded        State = "recorded"
)
