package engine

// DetermineEnforcementStrategy maps a behavior profile, an app category
// and a time context onto a stable enforcement style. The mapping is
// deterministic: same inputs, same strategy.
//
// Low self-control or a heavy recent violation history escalates toward
// immediate blocking with firm wording; a motivated user with a clean
// week relaxes toward reminders. Late night always forces an immediate
// cooldown block: sleep protection overrides personalization.
func (e *Engine) DetermineEnforcementStrategy(profile UserBehaviorProfile, category AppCategory, tc TimeContext) EnforcementStrategy {
	s := EnforcementStrategy{
		PrimaryAction:    ActionSuggestBreak,
		EscalationAction: ActionBlockImmediately,
		WarningStyle:     StyleNeutral,
		CooldownBehavior: CooldownDelayedBlock,
		OfferExtensions:  true,
	}
	switch {
	case profile.SelfControlScore < 0.3 || profile.RecentViolations > 5:
		s.PrimaryAction = ActionBlockImmediately
		s.WarningStyle = StyleFirm
		s.OfferExtensions = profile.RecentViolations <= 8
	case profile.MotivationLevel > 0.7 && profile.RecentViolations <= 2:
		s.PrimaryAction = ActionAllowWithReminder
		s.WarningStyle = StyleMotivational
		s.CooldownBehavior = CooldownWarnOnly
	}
	// Entertainment in the evening doesn't get the fully relaxed path.
	if tc.Segment == SegmentEvening && s.PrimaryAction == ActionAllowWithReminder {
		switch category {
		case CategorySocial, CategoryGame, CategoryVideo:
			s.PrimaryAction = ActionSuggestBreak
		}
	}
	if tc.Segment == SegmentLateNight {
		s.CooldownBehavior = CooldownImmediateBlock
	}
	return s
}
