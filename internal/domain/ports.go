package domain

import (
	"context"
	"time"
)

// Snapshot is a point-in-time read of the whole inventory, consumed by the
// graph index. It carries copies, never live storage handles.
type Snapshot struct {
	Assets        []Asset
	Relationships []Relationship
}

type AssetFilter struct {
	Type          *AssetType
	ProcessAreaID *string
	SiteID        *string
	Criticality   *Criticality
	Owner         *string
	// HasGaps keeps only assets with open compliance gaps. Evaluated by
	// the service, not the store.
	HasGaps bool
	Limit   int
}

type RelationshipFilter struct {
	AssetID       *string
	SourceAssetID *string
	TargetAssetID *string
	Kind          *RelationshipKind
	VerifiedOnly  bool
	Limit         int
}

type FlagFilter struct {
	Status   string
	Type     *FlagType
	AssetID  *string
	Severity *Criticality
	Limit    int
}

type TypeCount struct {
	Key   string
	Count int64
}

type ProcessAreaSummary struct {
	ProcessArea ProcessArea
	SiteName    string
	AssetCount  int64
	ByType      map[string]int64
	ByCritical  map[string]int64
}

type KindCount struct {
	Kind     RelationshipKind
	Total    int64
	Verified int64
	Inferred int64
}

type InventoryRepository interface {
	CreateAsset(ctx context.Context, value Asset) (Asset, error)
	GetAssetByID(ctx context.Context, id string) (Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]Asset, error)
	SearchAssets(ctx context.Context, query string, limit int) ([]Asset, error)
	CountAssets(ctx context.Context) (int64, error)
	CountAssetsByType(ctx context.Context) ([]TypeCount, error)
	CountAssetsByCriticality(ctx context.Context) ([]TypeCount, error)

	CreateRelationship(ctx context.Context, value Relationship) (Relationship, error)
	GetRelationshipByID(ctx context.Context, id string) (Relationship, error)
	FindRelationship(ctx context.Context, sourceID, targetID string, kind RelationshipKind) (Relationship, bool, error)
	ListRelationships(ctx context.Context, filter RelationshipFilter) ([]Relationship, error)
	VerifyRelationship(ctx context.Context, id, verifiedBy string, at time.Time) (Relationship, error)
	CountRelationshipsByKind(ctx context.Context) ([]KindCount, error)

	LoadSnapshot(ctx context.Context) (Snapshot, error)

	ListProcessAreas(ctx context.Context, siteID *string) ([]ProcessAreaSummary, error)
	GetProcessAreaByID(ctx context.Context, id string) (ProcessArea, error)
	GetSiteByID(ctx context.Context, id string) (Site, error)
	ListEnvironments(ctx context.Context) ([]Environment, error)

	CreateReviewFlag(ctx context.Context, value ReviewFlag) (ReviewFlag, error)
	GetReviewFlagByID(ctx context.Context, id string) (ReviewFlag, error)
	ListReviewFlags(ctx context.Context, filter FlagFilter) ([]ReviewFlag, error)
	ResolveReviewFlag(ctx context.Context, id, status, resolvedBy string, at time.Time, notes *string) (ReviewFlag, error)

	CreateUser(ctx context.Context, value User) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	CreateAPIToken(ctx context.Context, value APIToken) (APIToken, error)
	GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (APIToken, error)
	CreateAuditEntry(ctx context.Context, value AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]AuditRecord, error)
}
