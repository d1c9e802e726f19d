// Package chat covers the metered pre-chat features: AI icebreaker
// suggestions and the opener that starts a conversation in a match.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdugdh24/mpit2026-discovery/internal/domain"
	"github.com/gdugdh24/mpit2026-discovery/internal/logging"
	"github.com/gdugdh24/mpit2026-discovery/internal/repository"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/compatibility"
	"github.com/gdugdh24/mpit2026-discovery/internal/usecase/entitlement"
)

const maxOpenerLength = 500

type ChatUseCase struct {
	profileRepo repository.ProfileRepository
	matchRepo   repository.MatchRepository
	openerRepo  repository.OpenerRepository
	gate        *entitlement.Gate
	ai          compatibility.TextGenerator
	log         logging.Logger
}

func NewChatUseCase(
	profileRepo repository.ProfileRepository,
	matchRepo repository.MatchRepository,
	openerRepo repository.OpenerRepository,
	gate *entitlement.Gate,
	ai compatibility.TextGenerator,
	log logging.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		profileRepo: profileRepo,
		matchRepo:   matchRepo,
		openerRepo:  openerRepo,
		gate:        gate,
		ai:          ai,
		log:         log,
	}
}

// IcebreakerResponse is an AI-suggested opening line.
type IcebreakerResponse struct {
	CandidateID string `json:"candidate_id"`
	Suggestion  string `json:"suggestion"`
}

// SuggestIcebreaker asks the AI for an opening line from viewer to candidate.
// It costs one ai_prompts unit, charged only when a suggestion was produced.
func (uc *ChatUseCase) SuggestIcebreaker(ctx context.Context, viewerID, candidateID, day string) (*IcebreakerResponse, error) {
	viewer, err := uc.profileRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	candidate, err := uc.profileRepo.GetByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	var suggestion string
	err = uc.gate.Consume(ctx, viewerID, day, domain.UsageAIPrompts, func(ctx context.Context) error {
		if uc.ai == nil {
			return fmt.Errorf("%w: no AI provider configured", domain.ErrScoringUnavailable)
		}
		raw, err := uc.ai.GenerateText(ctx, icebreakerPrompt(viewer, candidate))
		if err != nil {
			uc.log.Warn(ctx, "icebreaker generation failed", "viewer_id", viewerID, "error", err)
			return fmt.Errorf("%w: %w", domain.ErrScoringUnavailable, err)
		}
		suggestion = cleanSuggestion(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &IcebreakerResponse{CandidateID: candidateID, Suggestion: suggestion}, nil
}

// SendOpener stores the first message of a match on behalf of sender.
// It costs one openers unit.
func (uc *ChatUseCase) SendOpener(ctx context.Context, senderID, matchID, body, day string) (*domain.Opener, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len([]rune(body)) > maxOpenerLength {
		body = string([]rune(body)[:maxOpenerLength])
	}

	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasProfile(senderID) {
		return nil, domain.ErrNotMatchParticipant
	}

	opener := &domain.Opener{MatchID: match.ID, SenderID: senderID, Body: body}
	err = uc.gate.Consume(ctx, senderID, day, domain.UsageOpeners, func(ctx context.Context) error {
		if err := uc.openerRepo.Create(ctx, opener); err != nil {
			return fmt.Errorf("failed to save opener: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info(ctx, "opener sent", "match_id", match.ID, "sender_id", senderID)
	return opener, nil
}

func icebreakerPrompt(viewer, candidate *domain.Profile) string {
	return fmt.Sprintf(`Write one short, friendly first message that %s could send to %s on a dating app.
%s's interests: %s
%s's interests: %s
Mention something they share if possible. Reply with the message text only.`,
		viewer.DisplayName, candidate.DisplayName,
		viewer.DisplayName, strings.Join(viewer.Interests, ", "),
		candidate.DisplayName, strings.Join(candidate.Interests, ", "))
}

// cleanSuggestion strips quotes and fences models like to add.
func cleanSuggestion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"“”`)
	s = strings.TrimSpace(s)
	if s == "" {
		return compatibility.DefaultIcebreaker
	}
	return s
}
