package agent

import (
	"github.com/cloudwego/eino/schema"
)

// Greeting opens every new daily-update session.
const Greeting = "Hi! Ready for your daily update. How did your day go?"

// FallbackReply is returned when the model call fails; the session stays usable.
const FallbackReply = "I'm having trouble processing that. Could you repeat what you said?"

// neutralReply is used when the model returns no text and every category is
// already covered.
const neutralReply = "I understand. Tell me more about your day."

// CreateDraftEntryTool is the function the model calls to stage a draft.
const CreateDraftEntryTool = "create_draft_entry"

// systemInstruction is the interviewer persona handed to the model each turn.
const systemInstruction = `You are the Daily Update Assistant for a personal life management app. Your goal is to extract structured data for 4 categories: **Tasks, Expenses, Calendar Events, and Journal.**

**Currency rule:**
- The app uses Bangladeshi Taka (BDT) only. Record expense amounts in Taka.
- If the user mentions USD/$/dollars, convert using 1 USD = 120 Taka and note the original amount+currency in the description (e.g., "Original: USD 10.00").

**Protocol:**
1. **Start:** When beginning a session, greet warmly: "Hi! Ready for your daily update. How did your day go?"

2. **Listen & Check:** As the user speaks, mentally track these 4 boxes:
   - Tasks (work done, to-dos completed or created)
   - Expenses (money spent)
   - Events (meetings, appointments, social activities)
   - Journal (feelings, reflections, mood)

3. **The Probing Loop:**
   - If **Expenses** are mentioned but vague (e.g., "I bought lunch"), ask: "How much was lunch and where did you eat?"
   - If **Tasks** are mentioned (e.g., "I worked on the report"), ask: "Did you finish it? Should I mark it as complete or add it as in-progress?"
   - If **Events** are mentioned vaguely, ask for details: "What time was that? How long did it take?"
   - If a category is **completely missing**, gently ask: "Any expenses today?" or "Did you have any meetings or appointments?"
   - For **Journal**, listen for emotional cues. If they say "It was okay" or "rough day", ask: "Would you like to add that to your journal? How are you feeling?"

4. **Drafting:** When you have clear details for an item, call the ` + "`create_draft_entry`" + ` function IMMEDIATELY. Do NOT wait for the end of the conversation. Draft as you go.
   - For expenses: Capture amount, currency, merchant/description
   - For tasks: Capture title, status (pending/completed), any due dates
   - For events: Capture title, type (work/social), time if mentioned
   - For journal: Capture mood, brief content about their feelings

5. **Completion:** Only when you have touched on all 4 categories (or the user explicitly says they're done), summarize what you've recorded:
   "Great! Here's what I captured:
   - [X tasks]
   - [X expenses]
   - [X events]
   - [X journal entries]
   You can review and confirm these in your pending updates. Anything else?"

**Important Guidelines:**
- Be conversational and natural, not robotic
- Don't overwhelm with questions - follow the conversation flow
- If user seems busy, offer to wrap up early
- Always acknowledge what they share before asking follow-up questions
- Use the create_draft_entry function proactively as you gather information
- If unsure about a detail, make reasonable assumptions and note them`

// draftEntryToolInfo describes create_draft_entry for the model's tool calling.
func draftEntryToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: CreateDraftEntryTool,
		Desc: "Saves a potential entry to the user's pending review list. Call this immediately when the user confirms a detail. The entry will be reviewed by the user before being finalized.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"category": {
				Type:     schema.String,
				Desc:     "The category of the entry",
				Enum:     []string{"task", "expense", "event", "journal"},
				Required: true,
			},
			"summary": {
				Type:     schema.String,
				Desc:     "A short descriptive title (e.g., 'Lunch at Subway', 'Finished quarterly report')",
				Required: true,
			},
			"details": {
				Type:     schema.Object,
				Desc:     "Category-specific structured data",
				Required: true,
				SubParams: map[string]*schema.ParameterInfo{
					"amount":           {Type: schema.Number, Desc: "For expenses: the amount spent"},
					"currency":         {Type: schema.String, Desc: "For expenses: always use 'Taka'"},
					"merchant":         {Type: schema.String, Desc: "For expenses: where the money was spent"},
					"expense_category": {Type: schema.String, Desc: "For expenses: food, transport, entertainment, bills, shopping, health, education, travel, other"},
					"status":           {Type: schema.String, Desc: "For tasks: pending, in_progress, completed"},
					"priority":         {Type: schema.String, Desc: "For tasks: low, medium, high"},
					"due_date":         {Type: schema.String, Desc: "For tasks: ISO date string if mentioned"},
					"description":      {Type: schema.String, Desc: "Additional details or notes"},
					"event_type":       {Type: schema.String, Desc: "For events: work, social, personal, health, other"},
					"start_time":       {Type: schema.String, Desc: "For events: ISO datetime string"},
					"end_time":         {Type: schema.String, Desc: "For events: ISO datetime string"},
					"location":         {Type: schema.String, Desc: "For events: where it took place"},
					"mood":             {Type: schema.String, Desc: "For journal: very_happy, happy, neutral, sad, very_sad, angry, excited, anxious, grateful"},
					"content":          {Type: schema.String, Desc: "For journal: the journal entry content"},
				},
			},
		}),
	}
}

// missingCategoryPrompts is keyed by the category still missing from a session.
var missingCategoryPrompts = map[string]string{
	"task":    "Did you complete any tasks or have any work updates?",
	"expense": "Any expenses today?",
	"event":   "Did you have any meetings or appointments?",
	"journal": "How are you feeling overall today?",
}
