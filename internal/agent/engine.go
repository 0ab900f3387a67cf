package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"lifelog_agent/internal/config"
	"lifelog_agent/internal/logger"
	"lifelog_agent/pkg"
)

// Engine runs one conversation turn: user message in, reply plus zero or more
// draft entries out.
type Engine struct {
	model model.ToolCallingChatModel
}

// NewEngine binds the draft-entry tool to the given chat model.
func NewEngine(chatModel model.ToolCallingChatModel) (*Engine, error) {
	bound, err := chatModel.WithTools([]*schema.ToolInfo{draftEntryToolInfo()})
	if err != nil {
		return nil, fmt.Errorf("error binding draft entry tool: %w", err)
	}
	return &Engine{model: bound}, nil
}

// NewOpenAIEngine builds an engine on an OpenAI-compatible endpoint.
func NewOpenAIEngine(ctx context.Context, cfg config.ModelConfig) (*Engine, error) {
	maxTokens := cfg.MaxTokens
	temperature := float32(cfg.Temperature)

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Name,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return NewEngine(chatModel)
}

// Execute processes one user turn. A model failure is never fatal: the result
// carries a fallback reply and the error string, and the caller can keep the
// session going.
func (e *Engine) Execute(ctx context.Context, request pkg.ExtractionRequest) *pkg.ExtractionResult {
	covered := map[pkg.Category]bool{}
	for _, category := range request.CategoriesCovered {
		covered[category] = true
	}

	messages := e.buildMessages(request)

	turnStart := time.Now()
	out, err := e.model.Generate(ctx, messages)
	if err != nil {
		logger.Error().Err(err).Msg("daily update model call failed")
		return &pkg.ExtractionResult{
			Reply:             FallbackReply,
			Drafts:            []pkg.DraftEntry{},
			CategoriesCovered: setToList(covered),
			IsComplete:        false,
			Err:               err.Error(),
		}
	}

	drafts := e.extractDrafts(out)
	mentioned := DetectCategories(request.UserMessage)
	for _, category := range mentioned {
		covered[category] = true
	}
	for _, draft := range drafts {
		covered[draft.Category] = true
	}

	complete := isComplete(covered, request.UserMessage)

	// Silent turns happen when the model only emits tool calls. Probe for an
	// uncovered category instead of returning an empty reply.
	reply := out.Content
	if reply == "" {
		if complete {
			reply = neutralReply
		} else {
			reply = MissingCategoryPrompt(setToList(covered))
		}
	}

	logger.Debug().
		Int("drafts", len(drafts)).
		Int("covered", len(covered)).
		Dur("turn_time", time.Since(turnStart)).
		Msg("daily update turn completed")

	return &pkg.ExtractionResult{
		Reply:               reply,
		Drafts:              drafts,
		CategoriesMentioned: mentioned,
		CategoriesCovered:   setToList(covered),
		IsComplete:          complete,
	}
}

// buildMessages assembles the persona, prior turns and the current message.
func (e *Engine) buildMessages(request pkg.ExtractionRequest) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(systemInstruction),
	}
	for _, msg := range request.History {
		switch msg.Role {
		case "assistant":
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		default:
			messages = append(messages, schema.UserMessage(msg.Content))
		}
	}
	if request.UserMessage != "" {
		messages = append(messages, schema.UserMessage(request.UserMessage))
	}
	return messages
}

type draftPayload struct {
	Category string         `json:"category"`
	Summary  string         `json:"summary"`
	Details  map[string]any `json:"details"`
}

// extractDrafts decodes create_draft_entry tool calls. Malformed calls are
// logged and skipped, never surfaced to the user.
func (e *Engine) extractDrafts(out *schema.Message) []pkg.DraftEntry {
	drafts := []pkg.DraftEntry{}
	for _, call := range out.ToolCalls {
		if call.Function.Name != CreateDraftEntryTool {
			continue
		}
		var payload draftPayload
		if err := sonic.UnmarshalString(call.Function.Arguments, &payload); err != nil {
			logger.Warn().Err(err).Str("arguments", call.Function.Arguments).
				Msg("failed to decode draft entry tool call")
			continue
		}
		category := pkg.Category(payload.Category)
		if !pkg.ValidCategory(category) || payload.Summary == "" {
			logger.Warn().Str("category", payload.Category).
				Msg("dropping draft entry with invalid category or empty summary")
			continue
		}
		details := payload.Details
		if details == nil {
			details = map[string]any{}
		}
		drafts = append(drafts, pkg.DraftEntry{
			Category: category,
			Summary:  payload.Summary,
			Details:  details,
		})
	}
	return drafts
}

func setToList(set map[pkg.Category]bool) []pkg.Category {
	list := make([]pkg.Category, 0, len(set))
	for _, category := range pkg.AllCategories {
		if set[category] {
			list = append(list, category)
		}
	}
	return list
}
