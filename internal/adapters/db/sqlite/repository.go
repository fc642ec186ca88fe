package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type InventoryRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeList(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func assetToModel(value domain.Asset) AssetModel {
	return AssetModel{
		ID:              value.ID,
		Name:            value.Name,
		Type:            string(value.Type),
		Manufacturer:    value.Manufacturer,
		Model:           value.Model,
		SerialNumber:    value.SerialNumber,
		FirmwareVersion: value.FirmwareVersion,
		SiteID:          value.SiteID,
		Building:        value.Building,
		Area:            value.Area,
		Zone:            value.Zone,
		ProcessAreaID:   value.ProcessAreaID,
		IPAddress:       value.IPAddress,
		MACAddress:      value.MACAddress,
		VLAN:            value.VLAN,
		Protocols:       encodeList(value.Protocols),
		Function:        value.Function,
		Owner:           value.Owner,
		Maintainer:      value.Maintainer,
		LastVerified:    value.LastVerified,
		InCMMS:          value.InCMMS,
		Documented:      value.Documented,
		SecurityPolicyApplied: value.SecurityPolicyApplied,
		Criticality:           string(value.Criticality),
		Notes:                 value.Notes,
		Tags:                  encodeList(value.Tags),
	}
}

func assetToDomain(m AssetModel) domain.Asset {
	return domain.Asset{
		ID:              m.ID,
		Name:            m.Name,
		Type:            domain.AssetType(m.Type),
		Manufacturer:    m.Manufacturer,
		Model:           m.Model,
		SerialNumber:    m.SerialNumber,
		FirmwareVersion: m.FirmwareVersion,
		SiteID:          m.SiteID,
		Building:        m.Building,
		Area:            m.Area,
		Zone:            m.Zone,
		ProcessAreaID:   m.ProcessAreaID,
		IPAddress:       m.IPAddress,
		MACAddress:      m.MACAddress,
		VLAN:            m.VLAN,
		Protocols:       decodeList(m.Protocols),
		Function:        m.Function,
		Owner:           m.Owner,
		Maintainer:      m.Maintainer,
		LastVerified:    m.LastVerified,
		InCMMS:          m.InCMMS,
		Documented:      m.Documented,
		SecurityPolicyApplied: m.SecurityPolicyApplied,
		Criticality:           domain.Criticality(m.Criticality),
		Notes:                 m.Notes,
		Tags:                  decodeList(m.Tags),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func relationshipToDomain(m RelationshipModel) domain.Relationship {
	return domain.Relationship{
		ID:            m.ID,
		SourceAssetID: m.SourceAssetID,
		TargetAssetID: m.TargetAssetID,
		Kind:          domain.RelationshipKind(m.Kind),
		Inferred:      m.Inferred,
		Verified:      m.Verified,
		VerifiedBy:    m.VerifiedBy,
		VerifiedAt:    m.VerifiedAt,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}

func (r *InventoryRepository) CreateAsset(ctx context.Context, value domain.Asset) (domain.Asset, error) {
	m := assetToModel(value)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Asset{}, err
	}
	return assetToDomain(m), nil
}

func (r *InventoryRepository) GetAssetByID(ctx context.Context, id string) (domain.Asset, error) {
	var m AssetModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Asset{}, notFound(err, "asset", id)
	}
	return assetToDomain(m), nil
}

func (r *InventoryRepository) ListAssets(ctx context.Context, filter domain.AssetFilter) ([]domain.Asset, error) {
	q := r.db.WithContext(ctx).Model(&AssetModel{})
	if filter.Type != nil {
		q = q.Where("type = ?", string(*filter.Type))
	}
	if filter.ProcessAreaID != nil {
		q = q.Where("process_area_id = ?", *filter.ProcessAreaID)
	}
	if filter.SiteID != nil {
		q = q.Where("site_id = ?", *filter.SiteID)
	}
	if filter.Criticality != nil {
		q = q.Where("criticality = ?", string(*filter.Criticality))
	}
	if filter.Owner != nil {
		q = q.Where("owner = ?", *filter.Owner)
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	rows := make([]AssetModel, 0)
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Asset, 0, len(rows))
	for _, m := range rows {
		result = append(result, assetToDomain(m))
	}
	return result, nil
}

// SearchAssets matches free text across the descriptive columns, name
// matches first.
func (r *InventoryRepository) SearchAssets(ctx context.Context, query string, limit int) ([]domain.Asset, error) {
	like := "%" + strings.TrimSpace(query) + "%"
	rows := make([]AssetModel, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT *
FROM assets
WHERE id LIKE ?
   OR name LIKE ?
   OR manufacturer LIKE ?
   OR model LIKE ?
   OR function LIKE ?
   OR notes LIKE ?
ORDER BY CASE WHEN name LIKE ? THEN 0 ELSE 1 END, name ASC
LIMIT ?
`, like, like, like, like, like, like, like, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.Asset, 0, len(rows))
	for _, m := range rows {
		result = append(result, assetToDomain(m))
	}
	return result, nil
}

func (r *InventoryRepository) CountAssets(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&AssetModel{}).Count(&count).Error
	return count, err
}

func (r *InventoryRepository) CountAssetsByType(ctx context.Context) ([]domain.TypeCount, error) {
	return r.countGrouped(ctx, "type")
}

func (r *InventoryRepository) CountAssetsByCriticality(ctx context.Context) ([]domain.TypeCount, error) {
	return r.countGrouped(ctx, "criticality")
}

func (r *InventoryRepository) countGrouped(ctx context.Context, column string) ([]domain.TypeCount, error) {
	type row struct {
		Key   string
		Count int64
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(NULLIF(` + column + `, ''), 'unassigned') AS key, COUNT(*) AS count
FROM assets
GROUP BY key
ORDER BY count DESC, key ASC
`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.TypeCount, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.TypeCount{Key: m.Key, Count: m.Count})
	}
	return result, nil
}

func (r *InventoryRepository) CreateRelationship(ctx context.Context, value domain.Relationship) (domain.Relationship, error) {
	m := RelationshipModel{
		ID:            value.ID,
		SourceAssetID: value.SourceAssetID,
		TargetAssetID: value.TargetAssetID,
		Kind:          string(value.Kind),
		Inferred:      value.Inferred,
		Verified:      value.Verified,
		VerifiedBy:    value.VerifiedBy,
		VerifiedAt:    value.VerifiedAt,
		Description:   value.Description,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Relationship{}, err
	}
	return relationshipToDomain(m), nil
}

func (r *InventoryRepository) GetRelationshipByID(ctx context.Context, id string) (domain.Relationship, error) {
	var m RelationshipModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Relationship{}, notFound(err, "relationship", id)
	}
	return relationshipToDomain(m), nil
}

func (r *InventoryRepository) FindRelationship(ctx context.Context, sourceID, targetID string, kind domain.RelationshipKind) (domain.Relationship, bool, error) {
	var m RelationshipModel
	err := r.db.WithContext(ctx).
		Where("source_asset_id = ? AND target_asset_id = ? AND relationship_type = ?", sourceID, targetID, string(kind)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Relationship{}, false, nil
	}
	if err != nil {
		return domain.Relationship{}, false, err
	}
	return relationshipToDomain(m), true, nil
}

func (r *InventoryRepository) ListRelationships(ctx context.Context, filter domain.RelationshipFilter) ([]domain.Relationship, error) {
	q := r.db.WithContext(ctx).Model(&RelationshipModel{})
	if filter.AssetID != nil {
		q = q.Where("source_asset_id = ? OR target_asset_id = ?", *filter.AssetID, *filter.AssetID)
	}
	if filter.SourceAssetID != nil {
		q = q.Where("source_asset_id = ?", *filter.SourceAssetID)
	}
	if filter.TargetAssetID != nil {
		q = q.Where("target_asset_id = ?", *filter.TargetAssetID)
	}
	if filter.Kind != nil {
		q = q.Where("relationship_type = ?", string(*filter.Kind))
	}
	if filter.VerifiedOnly {
		q = q.Where("verified = ?", true)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	rows := make([]RelationshipModel, 0)
	if err := q.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Relationship, 0, len(rows))
	for _, m := range rows {
		result = append(result, relationshipToDomain(m))
	}
	return result, nil
}

func (r *InventoryRepository) VerifyRelationship(ctx context.Context, id, verifiedBy string, at time.Time) (domain.Relationship, error) {
	updates := map[string]any{"verified": true, "verified_by": verifiedBy, "verified_at": at, "inferred": false}
	res := r.db.WithContext(ctx).Model(&RelationshipModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.Relationship{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Relationship{}, domain.NotFoundError{Kind: "relationship", ID: id}
	}
	return r.GetRelationshipByID(ctx, id)
}

func (r *InventoryRepository) CountRelationshipsByKind(ctx context.Context) ([]domain.KindCount, error) {
	type row struct {
		Kind     string
		Total    int64
		Verified int64
		Inferred int64
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT relationship_type AS kind,
       COUNT(*) AS total,
       SUM(CASE WHEN verified THEN 1 ELSE 0 END) AS verified,
       SUM(CASE WHEN inferred THEN 1 ELSE 0 END) AS inferred
FROM relationships
GROUP BY relationship_type
ORDER BY total DESC, kind ASC
`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.KindCount, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.KindCount{
			Kind:     domain.RelationshipKind(m.Kind),
			Total:    m.Total,
			Verified: m.Verified,
			Inferred: m.Inferred,
		})
	}
	return result, nil
}

// LoadSnapshot reads the whole inventory in insertion order for graph
// index builds.
func (r *InventoryRepository) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	assetRows := make([]AssetModel, 0)
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&assetRows).Error; err != nil {
		return domain.Snapshot{}, err
	}
	relRows := make([]RelationshipModel, 0)
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&relRows).Error; err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.Snapshot{
		Assets:        make([]domain.Asset, 0, len(assetRows)),
		Relationships: make([]domain.Relationship, 0, len(relRows)),
	}
	for _, m := range assetRows {
		snapshot.Assets = append(snapshot.Assets, assetToDomain(m))
	}
	for _, m := range relRows {
		snapshot.Relationships = append(snapshot.Relationships, relationshipToDomain(m))
	}
	return snapshot, nil
}

func (r *InventoryRepository) ListProcessAreas(ctx context.Context, siteID *string) ([]domain.ProcessAreaSummary, error) {
	type row struct {
		ID          string
		SiteID      string
		Name        string
		Description *string
		Function    *string
		SiteName    string
		AssetCount  int64
	}
	q := `
SELECT pa.id,
       pa.site_id,
       pa.name,
       pa.description,
       pa.function,
       s.name AS site_name,
       COUNT(a.id) AS asset_count
FROM process_areas pa
JOIN sites s ON s.id = pa.site_id
LEFT JOIN assets a ON a.process_area_id = pa.id
`
	args := []any{}
	if siteID != nil {
		q += "WHERE pa.site_id = ?\n"
		args = append(args, *siteID)
	}
	q += "GROUP BY pa.id ORDER BY s.name, pa.name"

	rows := make([]row, 0)
	if err := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]domain.ProcessAreaSummary, 0, len(rows))
	for _, m := range rows {
		summary := domain.ProcessAreaSummary{
			ProcessArea: domain.ProcessArea{
				ID:          m.ID,
				SiteID:      m.SiteID,
				Name:        m.Name,
				Description: m.Description,
				Function:    m.Function,
			},
			SiteName:   m.SiteName,
			AssetCount: m.AssetCount,
			ByType:     make(map[string]int64),
			ByCritical: make(map[string]int64),
		}
		if err := r.fillAreaBreakdowns(ctx, &summary); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, nil
}

func (r *InventoryRepository) fillAreaBreakdowns(ctx context.Context, summary *domain.ProcessAreaSummary) error {
	type row struct {
		Key   string
		Count int64
	}
	rows := make([]row, 0)
	if err := r.db.WithContext(ctx).Raw(`
SELECT type AS key, COUNT(*) AS count FROM assets WHERE process_area_id = ? GROUP BY type
`, summary.ProcessArea.ID).Scan(&rows).Error; err != nil {
		return err
	}
	for _, m := range rows {
		summary.ByType[m.Key] = m.Count
	}

	rows = rows[:0]
	if err := r.db.WithContext(ctx).Raw(`
SELECT COALESCE(NULLIF(criticality, ''), 'unassigned') AS key, COUNT(*) AS count
FROM assets WHERE process_area_id = ? GROUP BY key
`, summary.ProcessArea.ID).Scan(&rows).Error; err != nil {
		return err
	}
	for _, m := range rows {
		summary.ByCritical[m.Key] = m.Count
	}
	return nil
}

func (r *InventoryRepository) GetProcessAreaByID(ctx context.Context, id string) (domain.ProcessArea, error) {
	var m ProcessAreaModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.ProcessArea{}, notFound(err, "process area", id)
	}
	return domain.ProcessArea{ID: m.ID, SiteID: m.SiteID, Name: m.Name, Description: m.Description, Function: m.Function}, nil
}

func (r *InventoryRepository) GetSiteByID(ctx context.Context, id string) (domain.Site, error) {
	var m SiteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.Site{}, notFound(err, "site", id)
	}
	return domain.Site{ID: m.ID, EnvironmentID: m.EnvironmentID, Name: m.Name, Address: m.Address, Timezone: m.Timezone}, nil
}

func (r *InventoryRepository) ListEnvironments(ctx context.Context) ([]domain.Environment, error) {
	rows := make([]EnvironmentModel, 0)
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Environment, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.Environment{ID: m.ID, Name: m.Name, Type: m.Type, Description: m.Description})
	}
	return result, nil
}

func flagToDomain(m ReviewFlagModel) domain.ReviewFlag {
	return domain.ReviewFlag{
		ID:              m.ID,
		AssetID:         m.AssetID,
		RelationshipID:  m.RelationshipID,
		Type:            domain.FlagType(m.FlagType),
		Description:     m.Description,
		Severity:        domain.Criticality(m.Severity),
		Status:          m.Status,
		FlaggedBy:       m.FlaggedBy,
		FlaggedAt:       m.FlaggedAt,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
		ResolutionNotes: m.ResolutionNotes,
	}
}

func (r *InventoryRepository) CreateReviewFlag(ctx context.Context, value domain.ReviewFlag) (domain.ReviewFlag, error) {
	m := ReviewFlagModel{
		ID:             value.ID,
		AssetID:        value.AssetID,
		RelationshipID: value.RelationshipID,
		FlagType:       string(value.Type),
		Description:    value.Description,
		Severity:       string(value.Severity),
		Status:         value.Status,
		FlaggedBy:      value.FlaggedBy,
		FlaggedAt:      time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.ReviewFlag{}, err
	}
	return flagToDomain(m), nil
}

func (r *InventoryRepository) GetReviewFlagByID(ctx context.Context, id string) (domain.ReviewFlag, error) {
	var m ReviewFlagModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return domain.ReviewFlag{}, notFound(err, "review flag", id)
	}
	return flagToDomain(m), nil
}

func (r *InventoryRepository) ListReviewFlags(ctx context.Context, filter domain.FlagFilter) ([]domain.ReviewFlag, error) {
	q := r.db.WithContext(ctx).Model(&ReviewFlagModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != nil {
		q = q.Where("flag_type = ?", string(*filter.Type))
	}
	if filter.AssetID != nil {
		q = q.Where("asset_id = ?", *filter.AssetID)
	}
	if filter.Severity != nil {
		q = q.Where("severity = ?", string(*filter.Severity))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	rows := make([]ReviewFlagModel, 0)
	err := q.Order(`
CASE severity
    WHEN 'critical' THEN 1
    WHEN 'high' THEN 2
    WHEN 'medium' THEN 3
    WHEN 'low' THEN 4
END, flagged_at DESC
`).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.ReviewFlag, 0, len(rows))
	for _, m := range rows {
		result = append(result, flagToDomain(m))
	}
	return result, nil
}

func (r *InventoryRepository) ResolveReviewFlag(ctx context.Context, id, status, resolvedBy string, at time.Time, notes *string) (domain.ReviewFlag, error) {
	updates := map[string]any{"status": status, "resolved_by": resolvedBy, "resolved_at": at, "resolution_notes": notes}
	res := r.db.WithContext(ctx).Model(&ReviewFlagModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.ReviewFlag{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ReviewFlag{}, domain.NotFoundError{Kind: "review flag", ID: id}
	}
	return r.GetReviewFlagByID(ctx, id)
}

func (r *InventoryRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Email: strings.ToLower(strings.TrimSpace(value.Email)), PasswordHash: value.PasswordHash, Role: value.Role}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, Role: m.Role, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

func (r *InventoryRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

func (r *InventoryRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error; err != nil {
		return domain.User{}, notFound(err, "user", email)
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, Role: m.Role, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

func (r *InventoryRepository) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, Role: m.Role, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

func (r *InventoryRepository) CreateAPIToken(ctx context.Context, value domain.APIToken) (domain.APIToken, error) {
	m := APITokenModel{UserID: value.UserID, Name: value.Name, TokenHash: value.TokenHash, ExpiresAt: value.ExpiresAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *InventoryRepository) GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (domain.APIToken, error) {
	var m APITokenModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		return domain.APIToken{}, err
	}
	return domain.APIToken{ID: m.ID, UserID: m.UserID, Name: m.Name, TokenHash: m.TokenHash, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *InventoryRepository) CreateAuditEntry(ctx context.Context, value domain.AuditEntry) error {
	m := AuditLogModel{ActorUserID: value.ActorUserID, Action: value.Action, TargetType: value.TargetType, TargetID: value.TargetID, Metadata: value.Metadata}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *InventoryRepository) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	type row struct {
		ID             uint
		ActorUserID    *uint
		ActorUserEmail string
		Action         string
		TargetType     string
		TargetID       string
		Metadata       string
		CreatedAt      time.Time
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT a.id,
       a.actor_user_id,
       COALESCE(u.email, '') AS actor_user_email,
       a.action,
       a.target_type,
       a.target_id,
       a.metadata,
       a.created_at
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_user_id
ORDER BY a.id DESC
LIMIT ?
`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.AuditRecord, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.AuditRecord{
			ID:             m.ID,
			ActorUserID:    m.ActorUserID,
			ActorUserEmail: m.ActorUserEmail,
			Action:         m.Action,
			TargetType:     m.TargetType,
			TargetID:       m.TargetID,
			Metadata:       m.Metadata,
			CreatedAt:      m.CreatedAt,
		})
	}
	return result, nil
}
