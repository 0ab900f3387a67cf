package agent

import (
	"strings"

	"lifelog_agent/pkg"
)

// Keyword heuristics run on every user turn, independent of what the model
// tags. They catch category mentions the model missed and are the only signal
// when the model call fails.

var categoryKeywords = map[pkg.Category][]string{
	pkg.CategoryTask: {
		"finish", "complete", "done", "work", "task", "project",
		"deadline", "submit", "deliver", "to-do", "assignment",
	},
	pkg.CategoryExpense: {
		"buy", "bought", "spend", "spent", "pay", "paid", "cost",
		"money", "price", "purchase", "lunch", "dinner", "coffee",
		"taxi", "grocery",
	},
	pkg.CategoryEvent: {
		"meet", "meeting", "appointment", "call", "lunch with",
		"dinner with", "party", "event", "visit", "doctor", "dentist",
	},
	pkg.CategoryJournal: {
		"feel", "feeling", "felt", "mood", "happy", "sad", "angry",
		"stressed", "anxious", "excited", "grateful", "tired",
		"rough", "amazing",
	},
}

var endPhrases = []string{
	"that's all", "that's it", "i'm done", "nothing else",
	"no more", "we're done", "finish", "end", "bye", "thanks",
}

// DetectCategories returns the categories whose keywords appear in text.
func DetectCategories(text string) []pkg.Category {
	lower := strings.ToLower(text)
	var mentioned []pkg.Category
	for _, category := range pkg.AllCategories {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				mentioned = append(mentioned, category)
				break
			}
		}
	}
	return mentioned
}

// wantsToEnd reports whether the user's message contains a termination phrase.
func wantsToEnd(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range endPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// isComplete applies the session-end rule: an explicit termination phrase, or
// every category touched at least once.
func isComplete(covered map[pkg.Category]bool, userMessage string) bool {
	if wantsToEnd(userMessage) {
		return true
	}
	for _, category := range pkg.AllCategories {
		if !covered[category] {
			return false
		}
	}
	return true
}

// MissingCategoryPrompt returns a nudge about one category not yet covered.
func MissingCategoryPrompt(covered []pkg.Category) string {
	seen := map[pkg.Category]bool{}
	for _, category := range covered {
		seen[category] = true
	}
	for _, category := range pkg.AllCategories {
		if !seen[category] {
			return missingCategoryPrompts[string(category)]
		}
	}
	return "Anything else you'd like to add?"
}
