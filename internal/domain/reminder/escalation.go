package reminder

import "task_reminder_engine/internal/domain/policy"

// Decision is the outcome of evaluating one attempt against a policy:
// which channels to dispatch on, whether the state is at its terminal
// boundary, and whether this dispatch is a parent escalation.
type Decision struct {
	Channels   []policy.Channel
	Terminal   bool
	Escalation bool
}

// Decide selects the channel set for the given attempt number.
//
// While attempts remain (attemptsSoFar <= maxRetries) every configured
// non-escalation channel fires; level is descriptive metadata for the
// dashboard and never gates channel selection. Past the retry budget
// the decision is terminal: a single parent escalation if both the
// escalation flag and the parentEscalation channel are enabled,
// otherwise a silent exhaustion with no channels. The scheduler calls
// the terminal branch exactly once per state.
func Decide(p policy.Effective, attemptsSoFar int) Decision {
	if attemptsSoFar > p.MaxRetries {
		if p.EscalationEnabled && p.Channels.ParentEscalation {
			return Decision{
				Channels:   []policy.Channel{policy.ChannelParentEscalation},
				Terminal:   true,
				Escalation: true,
			}
		}
		return Decision{Terminal: true}
	}
	return Decision{Channels: p.Channels.Delivery()}
}
