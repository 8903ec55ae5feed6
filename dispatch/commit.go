package dispatch

// decideReset implements the reset_on_commit decision table of
// spec.md §4.3:
//
//	HA state      | Condition                    | Client kind        | reset?
//	TO_BE_STANDBY | has_updated                   | NORMAL             | yes
//	STANDBY       | conn.reset_on_commit was set  | NORMAL             | yes (clears latch)
//	ACTIVE        | --                             | SLAVE_ONLY_BROKER  | yes
//	STANDBY       | --                             | BROKER             | yes
//	otherwise     | --                             | --                 | no
//
// ignoreHasUpdated preserves the asymmetric quirk flagged as an Open
// Question: CommitHandler passes true, so a TO_BE_STANDBY commit still
// flips reset_on_commit for an untouched (has_updated == false)
// transaction; AbortHandler passes false, so the same untouched
// transaction does not flip it on abort. This is implemented as the
// original behaves, not "fixed" -- see DESIGN.md.
func decideReset(ha HAState, hasUpdated, latchWasSet bool, client ClientKind, ignoreHasUpdated bool) (reset, newLatch bool) {
	newLatch = latchWasSet
	switch {
	case ha == HAToBeStandby && client == ClientNormal && (hasUpdated || ignoreHasUpdated):
		reset = true
		newLatch = true
	case ha == HAStandby && latchWasSet && client == ClientNormal:
		reset = true
		newLatch = false // consumed
	case ha == HAActive && client == ClientSlaveOnlyBroker:
		reset = true
	case ha == HAStandby && client == ClientBroker:
		reset = true
	}
	return reset, newLatch
}

// CommitHandler applies the reset_on_commit decision table on a normal
// COMMIT. See decideReset for the TO_BE_STANDBY/untouched-transaction
// quirk this preserves.
func CommitHandler(ctx *RequestContext) error {
	reset, latch := decideReset(ctx.State.HA, ctx.State.HasUpdated, ctx.State.ResetOnCommit, ctx.State.Client, true)
	ctx.State.ResetOnCommit = latch
	ctx.State.HasUpdated = false
	return ctx.Conn.SendReply(ctx.Rid, replyBool(reset))
}

// AbortHandler applies the same decision table on ABORT, without the
// has_updated override CommitHandler uses.
func AbortHandler(ctx *RequestContext) error {
	reset, latch := decideReset(ctx.State.HA, ctx.State.HasUpdated, ctx.State.ResetOnCommit, ctx.State.Client, false)
	ctx.State.ResetOnCommit = latch
	ctx.State.HasUpdated = false
	return ctx.Conn.SendReply(ctx.Rid, replyBool(reset))
}

func replyBool(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}
