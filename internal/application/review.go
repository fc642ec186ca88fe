package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
)

// SuggestRelationship records an inferred, unverified relationship and a
// review flag so a human confirms it before it counts as verified.
func (s *InventoryService) SuggestRelationship(ctx context.Context, sourceID, targetID, kind, reasoning, flaggedBy string) (domain.Relationship, domain.ReviewFlag, error) {
	parsedKind, err := domain.ParseRelationshipKind(kind)
	if err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	}
	source, err := s.repo.GetAssetByID(ctx, sourceID)
	if err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	}
	target, err := s.repo.GetAssetByID(ctx, targetID)
	if err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	}
	if existing, found, err := s.repo.FindRelationship(ctx, sourceID, targetID, parsedKind); err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	} else if found {
		return existing, domain.ReviewFlag{}, fmt.Errorf("relationship %s already exists", existing.ID)
	}

	description := fmt.Sprintf("Suggested: %s", reasoning)
	created, err := s.repo.CreateRelationship(ctx, domain.Relationship{
		ID:            uuid.NewString(),
		SourceAssetID: sourceID,
		TargetAssetID: targetID,
		Kind:          parsedKind,
		Inferred:      true,
		Description:   &description,
	})
	if err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	}

	flag, err := s.repo.CreateReviewFlag(ctx, domain.ReviewFlag{
		ID:             uuid.NewString(),
		RelationshipID: &created.ID,
		Type:           domain.FlagSuggestedRelationship,
		Description: fmt.Sprintf("Suggested %s relationship: %s -> %s. Reasoning: %s",
			parsedKind, source.Name, target.Name, reasoning),
		Severity:  domain.CriticalityMedium,
		Status:    domain.FlagStatusOpen,
		FlaggedBy: defaultString(flaggedBy, "system"),
	})
	if err != nil {
		return domain.Relationship{}, domain.ReviewFlag{}, err
	}

	s.WriteAudit(ctx, actorFrom(ctx), "review.suggest_relationship", "relationship", created.ID, reasoning)
	return created, flag, nil
}

func (s *InventoryService) FlagForReview(ctx context.Context, assetID, flagType, description, severity, flaggedBy string) (domain.ReviewFlag, error) {
	parsedType, err := domain.ParseFlagType(flagType)
	if err != nil {
		return domain.ReviewFlag{}, err
	}
	if strings.TrimSpace(description) == "" {
		return domain.ReviewFlag{}, errors.New("flag description is required")
	}
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return domain.ReviewFlag{}, err
	}
	parsedSeverity, err := domain.ParseCriticality(severity)
	if err != nil || parsedSeverity == "" {
		parsedSeverity = domain.CriticalityMedium
	}

	flag, err := s.repo.CreateReviewFlag(ctx, domain.ReviewFlag{
		ID:          uuid.NewString(),
		AssetID:     &asset.ID,
		Type:        parsedType,
		Description: description,
		Severity:    parsedSeverity,
		Status:      domain.FlagStatusOpen,
		FlaggedBy:   defaultString(flaggedBy, "system"),
	})
	if err != nil {
		return domain.ReviewFlag{}, err
	}

	s.WriteAudit(ctx, actorFrom(ctx), "review.flag", "asset", asset.ID, string(parsedType))
	return flag, nil
}

func (s *InventoryService) ListReviewFlags(ctx context.Context, filter domain.FlagFilter) ([]domain.ReviewFlag, error) {
	if filter.Status == "" {
		filter.Status = domain.FlagStatusOpen
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return s.repo.ListReviewFlags(ctx, filter)
}

// ResolveFlag closes a review flag. Resolving a suggested relationship
// also verifies the relationship it proposed.
func (s *InventoryService) ResolveFlag(ctx context.Context, flagID, resolution, resolvedBy string, notes *string) (domain.ReviewFlag, error) {
	if resolution != domain.FlagStatusResolved && resolution != domain.FlagStatusDismissed {
		return domain.ReviewFlag{}, fmt.Errorf("resolution must be %q or %q", domain.FlagStatusResolved, domain.FlagStatusDismissed)
	}
	flag, err := s.repo.GetReviewFlagByID(ctx, flagID)
	if err != nil {
		return domain.ReviewFlag{}, err
	}
	if flag.Status != domain.FlagStatusOpen && flag.Status != domain.FlagStatusInReview {
		return domain.ReviewFlag{}, fmt.Errorf("flag is already %s", flag.Status)
	}

	resolvedBy = defaultString(resolvedBy, "user")
	now := time.Now().UTC()
	updated, err := s.repo.ResolveReviewFlag(ctx, flagID, resolution, resolvedBy, now, notes)
	if err != nil {
		return domain.ReviewFlag{}, err
	}

	if flag.Type == domain.FlagSuggestedRelationship && resolution == domain.FlagStatusResolved && flag.RelationshipID != nil {
		if _, err := s.repo.VerifyRelationship(ctx, *flag.RelationshipID, resolvedBy, now); err != nil {
			return domain.ReviewFlag{}, err
		}
	}

	s.WriteAudit(ctx, actorFrom(ctx), "review.resolve", "review_flag", flagID, resolution)
	return updated, nil
}
