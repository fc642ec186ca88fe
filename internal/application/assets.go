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

// AssetDetail bundles an asset with its graph edges, compliance gaps and
// open review flags.
type AssetDetail struct {
	Asset     domain.Asset
	Outgoing  []domain.Relationship
	Incoming  []domain.Relationship
	Gaps      []domain.GapType
	OpenFlags []domain.ReviewFlag
}

type InventoryCounts struct {
	TotalAssets   int64
	ByType        []domain.TypeCount
	ByCriticality []domain.TypeCount
}

func (s *InventoryService) CreateAsset(ctx context.Context, asset domain.Asset) (domain.Asset, error) {
	asset.Name = strings.TrimSpace(asset.Name)
	if asset.Name == "" {
		return domain.Asset{}, errors.New("asset name is required")
	}
	if _, err := domain.ParseAssetType(string(asset.Type)); err != nil {
		return domain.Asset{}, err
	}
	if _, err := domain.ParseCriticality(string(asset.Criticality)); err != nil {
		return domain.Asset{}, err
	}
	asset.ID = strings.TrimSpace(asset.ID)
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}

	created, err := s.repo.CreateAsset(ctx, asset)
	if err != nil {
		return domain.Asset{}, err
	}
	s.WriteAudit(ctx, actorFrom(ctx), "asset.create", "asset", created.ID, created.Name)
	return created, nil
}

func (s *InventoryService) GetAssetDetail(ctx context.Context, id string) (AssetDetail, error) {
	asset, err := s.repo.GetAssetByID(ctx, id)
	if err != nil {
		return AssetDetail{}, err
	}

	outgoing, err := s.repo.ListRelationships(ctx, domain.RelationshipFilter{SourceAssetID: &id})
	if err != nil {
		return AssetDetail{}, err
	}
	incoming, err := s.repo.ListRelationships(ctx, domain.RelationshipFilter{TargetAssetID: &id})
	if err != nil {
		return AssetDetail{}, err
	}
	flags, err := s.repo.ListReviewFlags(ctx, domain.FlagFilter{Status: domain.FlagStatusOpen, AssetID: &id, Limit: 50})
	if err != nil {
		return AssetDetail{}, err
	}

	return AssetDetail{
		Asset:     asset,
		Outgoing:  outgoing,
		Incoming:  incoming,
		Gaps:      gapsForAsset(asset, time.Now().UTC()),
		OpenFlags: flags,
	}, nil
}

func (s *InventoryService) ListAssets(ctx context.Context, filter domain.AssetFilter) ([]domain.Asset, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	assets, err := s.repo.ListAssets(ctx, filter)
	if err != nil || !filter.HasGaps {
		return assets, err
	}
	// Gap evaluation depends on verification windows, so it runs here
	// rather than in SQL.
	now := time.Now().UTC()
	withGaps := assets[:0]
	for _, asset := range assets {
		if len(gapsForAsset(asset, now)) > 0 {
			withGaps = append(withGaps, asset)
		}
	}
	return withGaps, nil
}

func (s *InventoryService) SearchAssets(ctx context.Context, query string, limit int) ([]domain.Asset, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.SearchAssets(ctx, query, limit)
}

func (s *InventoryService) GetInventoryCounts(ctx context.Context) (InventoryCounts, error) {
	total, err := s.repo.CountAssets(ctx)
	if err != nil {
		return InventoryCounts{}, err
	}
	byType, err := s.repo.CountAssetsByType(ctx)
	if err != nil {
		return InventoryCounts{}, err
	}
	byCriticality, err := s.repo.CountAssetsByCriticality(ctx)
	if err != nil {
		return InventoryCounts{}, err
	}
	return InventoryCounts{TotalAssets: total, ByType: byType, ByCriticality: byCriticality}, nil
}

func (s *InventoryService) AddRelationship(ctx context.Context, sourceID, targetID, kind string, description *string, inferred bool) (domain.Relationship, error) {
	parsedKind, err := domain.ParseRelationshipKind(kind)
	if err != nil {
		return domain.Relationship{}, err
	}
	sourceID = strings.TrimSpace(sourceID)
	targetID = strings.TrimSpace(targetID)
	if sourceID == "" || targetID == "" {
		return domain.Relationship{}, errors.New("source and target asset ids are required")
	}
	if sourceID == targetID {
		return domain.Relationship{}, fmt.Errorf("relationship cannot loop asset %q onto itself", sourceID)
	}
	if _, err := s.repo.GetAssetByID(ctx, sourceID); err != nil {
		return domain.Relationship{}, err
	}
	if _, err := s.repo.GetAssetByID(ctx, targetID); err != nil {
		return domain.Relationship{}, err
	}
	if existing, found, err := s.repo.FindRelationship(ctx, sourceID, targetID, parsedKind); err != nil {
		return domain.Relationship{}, err
	} else if found {
		return existing, fmt.Errorf("relationship %s already exists", existing.ID)
	}

	created, err := s.repo.CreateRelationship(ctx, domain.Relationship{
		ID:            uuid.NewString(),
		SourceAssetID: sourceID,
		TargetAssetID: targetID,
		Kind:          parsedKind,
		Inferred:      inferred,
		Description:   description,
	})
	if err != nil {
		return domain.Relationship{}, err
	}
	s.WriteAudit(ctx, actorFrom(ctx), "relationship.create", "relationship", created.ID,
		fmt.Sprintf("%s %s %s", sourceID, parsedKind, targetID))
	return created, nil
}

func (s *InventoryService) ListRelationships(ctx context.Context, filter domain.RelationshipFilter) ([]domain.Relationship, error) {
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	if filter.Limit > 2000 {
		filter.Limit = 2000
	}
	return s.repo.ListRelationships(ctx, filter)
}

func (s *InventoryService) VerifyRelationship(ctx context.Context, id, verifiedBy string) (domain.Relationship, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Relationship{}, errors.New("relationship id is required")
	}
	verified, err := s.repo.VerifyRelationship(ctx, id, defaultString(verifiedBy, "user"), time.Now().UTC())
	if err != nil {
		return domain.Relationship{}, err
	}
	s.WriteAudit(ctx, actorFrom(ctx), "relationship.verify", "relationship", id, verifiedBy)
	return verified, nil
}

func (s *InventoryService) RelationshipKindSummary(ctx context.Context) ([]domain.KindCount, error) {
	return s.repo.CountRelationshipsByKind(ctx)
}

func (s *InventoryService) ListProcessAreas(ctx context.Context, siteID *string) ([]domain.ProcessAreaSummary, error) {
	return s.repo.ListProcessAreas(ctx, siteID)
}

// ProcessAreaDetail is a process area with its site, member assets and
// compliance summary.
type ProcessAreaDetail struct {
	Area       domain.ProcessArea
	Site       domain.Site
	Assets     []domain.Asset
	Compliance ComplianceStats
}

func (s *InventoryService) GetProcessAreaDetail(ctx context.Context, id string) (ProcessAreaDetail, error) {
	area, err := s.repo.GetProcessAreaByID(ctx, id)
	if err != nil {
		return ProcessAreaDetail{}, err
	}
	site, err := s.repo.GetSiteByID(ctx, area.SiteID)
	if err != nil {
		return ProcessAreaDetail{}, err
	}
	assets, err := s.repo.ListAssets(ctx, domain.AssetFilter{ProcessAreaID: &id, Limit: 1000})
	if err != nil {
		return ProcessAreaDetail{}, err
	}
	return ProcessAreaDetail{
		Area:       area,
		Site:       site,
		Assets:     assets,
		Compliance: complianceStatsFor(assets),
	}, nil
}

func (s *InventoryService) ListEnvironments(ctx context.Context) ([]domain.Environment, error) {
	return s.repo.ListEnvironments(ctx)
}

type actorKey struct{}

// WithActor tags a context with the acting user for audit attribution.
func WithActor(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFrom(ctx context.Context) *uint {
	if id, ok := ctx.Value(actorKey{}).(uint); ok {
		return &id
	}
	return nil
}
