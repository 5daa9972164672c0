/*
Copyright 2025 Adjudex Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package adjudex

import "github.com/studykit/adjudex/model"

// statusRule pairs a predicate over the flag set with the status it assigns.
type statusRule struct {
	applies func(model.RejectionFlagSet) bool
	status  model.ParticipantStatus
}

// statusRules is the priority-ordered rule list. The first matching rule
// wins; later rules are not consulted. Audit-only flags never appear here.
var statusRules = []statusRule{
	{func(f model.RejectionFlagSet) bool { return f.FailedTwoPlusAttentionChecks }, model.StatusRejected},
	{func(f model.RejectionFlagSet) bool { return f.DidNotGiveConsent }, model.StatusNoConsent},
	{func(f model.RejectionFlagSet) bool { return f.DidNotUnderstandTasks }, model.StatusScreenedOut},
	{func(f model.RejectionFlagSet) bool { return f.InsufficientWorkExperience }, model.StatusScreenedOut},
	{func(f model.RejectionFlagSet) bool { return f.OccupationNotConfirmed }, model.StatusScreenedOut},
	{func(f model.RejectionFlagSet) bool { return f.IncompleteSurveyOtherReasons }, model.StatusScreenedOut},
}

// ResolveStatus collapses a flag set into exactly one participant status.
// A participant who trips no rule is approved; the function is total and
// returns a status for every possible flag set.
func ResolveStatus(flags model.RejectionFlagSet) model.ParticipantStatus {
	for _, rule := range statusRules {
		if rule.applies(flags) {
			return rule.status
		}
	}
	return model.StatusApproved
}
