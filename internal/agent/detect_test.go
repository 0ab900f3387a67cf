package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lifelog_agent/pkg"
)

func TestDetectCategories(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []pkg.Category
	}{
		{
			name: "task keywords",
			text: "I finished the quarterly report before the deadline",
			want: []pkg.Category{pkg.CategoryTask},
		},
		{
			name: "expense keywords",
			text: "Bought coffee and paid for a taxi",
			want: []pkg.Category{pkg.CategoryExpense},
		},
		{
			name: "event keywords",
			text: "Had a doctor appointment in the afternoon",
			want: []pkg.Category{pkg.CategoryEvent},
		},
		{
			name: "journal keywords",
			text: "Feeling pretty stressed and tired",
			want: []pkg.Category{pkg.CategoryJournal},
		},
		{
			name: "multiple categories in one message",
			text: "Finished the project, spent 300 on dinner, feeling grateful",
			want: []pkg.Category{pkg.CategoryTask, pkg.CategoryExpense, pkg.CategoryJournal},
		},
		{
			name: "case insensitive",
			text: "LUNCH WITH the team",
			want: []pkg.Category{pkg.CategoryExpense, pkg.CategoryEvent},
		},
		{
			name: "no keywords",
			text: "hello there",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCategories(tt.text))
		})
	}
}

func TestWantsToEnd(t *testing.T) {
	assert.True(t, wantsToEnd("I think that's all"))
	assert.True(t, wantsToEnd("Nothing else, thanks!"))
	assert.True(t, wantsToEnd("We're DONE here"))
	assert.False(t, wantsToEnd("I went to the gym"))
}

func TestIsComplete(t *testing.T) {
	partial := map[pkg.Category]bool{pkg.CategoryTask: true, pkg.CategoryExpense: true}
	assert.False(t, isComplete(partial, "also met a colleague"))
	assert.True(t, isComplete(partial, "that's it for today"))

	full := map[pkg.Category]bool{}
	for _, c := range pkg.AllCategories {
		full[c] = true
	}
	assert.True(t, isComplete(full, "also met a colleague"))
}

func TestMissingCategoryPrompt(t *testing.T) {
	assert.Equal(t, "Did you complete any tasks or have any work updates?", MissingCategoryPrompt(nil))
	assert.Equal(t, "Any expenses today?", MissingCategoryPrompt([]pkg.Category{pkg.CategoryTask}))
	assert.Equal(t, "How are you feeling overall today?",
		MissingCategoryPrompt([]pkg.Category{pkg.CategoryTask, pkg.CategoryExpense, pkg.CategoryEvent}))
	assert.Equal(t, "Anything else you'd like to add?", MissingCategoryPrompt(pkg.AllCategories))
}
