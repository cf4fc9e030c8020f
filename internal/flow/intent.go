// Package flow implements the banking conversation state machine.
//
// This file defines intent classification over raw utterances. Matching is
// substring/regex based and case-insensitive; within a state, candidate
// intents are evaluated first-match-wins in the order the state lists them.
package flow

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Intent word stems. A stem matches any token that begins with it, so
// "existing", "current account", and "returning" all classify as the
// existing-customer intent.
var (
	existingIntentRe = regexp.MustCompile(`(?i)\b(exist|current|old|return)\w*`)
	newIntentRe      = regexp.MustCompile(`(?i)\b(new|sign|open|join)\w*`)
	exitIntentRe     = regexp.MustCompile(`(?i)\b(bye|exit|close|thank)\w*`)
)

// affirmativeReplies is the fixed set of bare affirmations recognized inside
// authenticated states. The looser leading-"y" rule applies only in the
// exit-confirmation state.
var affirmativeReplies = map[string]struct{}{
	"yes":        {},
	"yes please": {},
	"yep":        {},
	"y":          {},
}

// matchesExistingIntent reports whether the utterance selects the
// existing-customer path.
func matchesExistingIntent(low string) bool {
	return existingIntentRe.MatchString(low)
}

// matchesNewIntent reports whether the utterance selects the new-customer path.
func matchesNewIntent(low string) bool {
	return newIntentRe.MatchString(low)
}

// matchesExitIntent reports whether the utterance asks to end the session.
func matchesExitIntent(low string) bool {
	return exitIntentRe.MatchString(low)
}

// matchesAffirmative reports whether the utterance is a bare affirmation.
func matchesAffirmative(low string) bool {
	_, ok := affirmativeReplies[strings.TrimSpace(low)]
	return ok
}

// matchesConfirmation applies the exit-confirmation rule: any reply with a
// leading "y" confirms.
func matchesConfirmation(low string) bool {
	return strings.HasPrefix(strings.TrimSpace(low), "y")
}

// titleCase capitalizes the first rune of each space-separated word,
// lowercasing the rest, for prospect name display.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
