package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"gorm.io/gorm"
)

func openTestRepo(t *testing.T) (*InventoryRepository, *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "inventory_test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewInventoryRepository(db), db
}

func strptr(s string) *string { return &s }

func TestAssetRoundTripAndSearch(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	verified := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created, err := repo.CreateAsset(ctx, domain.Asset{
		ID:           "PLC-201",
		Name:         "Dosing PLC",
		Type:         domain.AssetPLC,
		Manufacturer: strptr("Siemens"),
		Protocols:    []string{"profinet", "s7comm"},
		Owner:        strptr("M. Okafor"),
		LastVerified: &verified,
		InCMMS:       true,
		Criticality:  domain.CriticalityCritical,
		Tags:         []string{"dosing"},
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if created.ID != "PLC-201" {
		t.Fatalf("unexpected id %q", created.ID)
	}

	got, err := repo.GetAssetByID(ctx, "PLC-201")
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if len(got.Protocols) != 2 || got.Protocols[0] != "profinet" {
		t.Fatalf("protocols did not survive round trip: %v", got.Protocols)
	}
	if got.Criticality != domain.CriticalityCritical {
		t.Fatalf("unexpected criticality %q", got.Criticality)
	}

	if _, err := repo.GetAssetByID(ctx, "PLC-999"); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	hits, err := repo.SearchAssets(ctx, "dosing", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "PLC-201" {
		t.Fatalf("expected PLC-201 from search, got %v", hits)
	}
}

func TestListAssetsFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	mustCreateAsset(t, repo, domain.Asset{ID: "A-1", Name: "Sensor One", Type: domain.AssetSensor, Criticality: domain.CriticalityLow})
	mustCreateAsset(t, repo, domain.Asset{ID: "A-2", Name: "Sensor Two", Type: domain.AssetSensor, Criticality: domain.CriticalityHigh})
	mustCreateAsset(t, repo, domain.Asset{ID: "A-3", Name: "Panel", Type: domain.AssetHMI, Criticality: domain.CriticalityHigh})

	sensor := domain.AssetSensor
	byType, err := repo.ListAssets(ctx, domain.AssetFilter{Type: &sensor})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expected 2 sensors, got %d", len(byType))
	}

	high := domain.CriticalityHigh
	byCrit, err := repo.ListAssets(ctx, domain.AssetFilter{Criticality: &high, Limit: 1})
	if err != nil {
		t.Fatalf("list by criticality: %v", err)
	}
	if len(byCrit) != 1 {
		t.Fatalf("limit not applied, got %d rows", len(byCrit))
	}

	counts, err := repo.CountAssetsByType(ctx)
	if err != nil {
		t.Fatalf("count by type: %v", err)
	}
	if counts[0].Key != "sensor" || counts[0].Count != 2 {
		t.Fatalf("unexpected type counts: %+v", counts)
	}
}

func TestRelationshipLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	mustCreateAsset(t, repo, domain.Asset{ID: "LT-1", Name: "Level Transmitter", Type: domain.AssetSensor})
	mustCreateAsset(t, repo, domain.Asset{ID: "PLC-1", Name: "Controller", Type: domain.AssetPLC})

	created, err := repo.CreateRelationship(ctx, domain.Relationship{
		ID:            "REL-1",
		SourceAssetID: "LT-1",
		TargetAssetID: "PLC-1",
		Kind:          domain.KindFeedsDataTo,
		Inferred:      true,
	})
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	found, ok, err := repo.FindRelationship(ctx, "LT-1", "PLC-1", domain.KindFeedsDataTo)
	if err != nil || !ok {
		t.Fatalf("find relationship: ok=%v err=%v", ok, err)
	}
	if found.ID != created.ID {
		t.Fatalf("found wrong relationship %q", found.ID)
	}
	if _, ok, _ := repo.FindRelationship(ctx, "LT-1", "PLC-1", domain.KindControls); ok {
		t.Fatal("kind mismatch should not match")
	}

	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	verified, err := repo.VerifyRelationship(ctx, "REL-1", "operator@plant", at)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verified.Verified || verified.Inferred {
		t.Fatalf("verify did not update flags: %+v", verified)
	}
	if verified.VerifiedBy == nil || *verified.VerifiedBy != "operator@plant" {
		t.Fatalf("verified_by not recorded: %+v", verified.VerifiedBy)
	}

	if _, err := repo.VerifyRelationship(ctx, "REL-404", "x", at); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	assetID := "LT-1"
	rels, err := repo.ListRelationships(ctx, domain.RelationshipFilter{AssetID: &assetID})
	if err != nil {
		t.Fatalf("list relationships: %v", err)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(rels))
	}

	kinds, err := repo.CountRelationshipsByKind(ctx)
	if err != nil {
		t.Fatalf("count kinds: %v", err)
	}
	if len(kinds) != 1 || kinds[0].Kind != domain.KindFeedsDataTo || kinds[0].Verified != 1 {
		t.Fatalf("unexpected kind counts: %+v", kinds)
	}
}

func TestReviewFlagLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	mustCreateAsset(t, repo, domain.Asset{ID: "HMI-1", Name: "Panel", Type: domain.AssetHMI})

	assetID := "HMI-1"
	flag, err := repo.CreateReviewFlag(ctx, domain.ReviewFlag{
		ID:          "FLAG-1",
		AssetID:     &assetID,
		Type:        domain.FlagMissingData,
		Description: "No owner recorded",
		Severity:    domain.CriticalityMedium,
		Status:      domain.FlagStatusOpen,
		FlaggedBy:   "system",
	})
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	open, err := repo.ListReviewFlags(ctx, domain.FlagFilter{Status: domain.FlagStatusOpen})
	if err != nil {
		t.Fatalf("list flags: %v", err)
	}
	if len(open) != 1 || open[0].ID != flag.ID {
		t.Fatalf("expected the open flag, got %+v", open)
	}

	notes := "Owner assigned in CMMS"
	resolved, err := repo.ResolveReviewFlag(ctx, flag.ID, domain.FlagStatusResolved, "auditor", time.Now().UTC(), &notes)
	if err != nil {
		t.Fatalf("resolve flag: %v", err)
	}
	if resolved.Status != domain.FlagStatusResolved || resolved.ResolvedBy == nil {
		t.Fatalf("resolution not persisted: %+v", resolved)
	}

	open, err = repo.ListReviewFlags(ctx, domain.FlagFilter{Status: domain.FlagStatusOpen})
	if err != nil {
		t.Fatalf("list flags after resolve: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("resolved flag still listed as open")
	}
}

func TestSeedLoadsSampleFacilityOnce(t *testing.T) {
	ctx := context.Background()
	repo, db := openTestRepo(t)

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	count, err := repo.CountAssets(ctx)
	if err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if count == 0 {
		t.Fatal("seed loaded no assets")
	}

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	again, _ := repo.CountAssets(ctx)
	if again != count {
		t.Fatalf("seed is not idempotent: %d then %d", count, again)
	}

	plc, err := repo.GetAssetByID(ctx, "PLC-101")
	if err != nil {
		t.Fatalf("sample data missing PLC-101: %v", err)
	}
	if plc.Criticality != domain.CriticalityCritical {
		t.Fatalf("PLC-101 should be critical, got %q", plc.Criticality)
	}

	snapshot, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snapshot.Relationships) == 0 {
		t.Fatal("snapshot has no relationships")
	}
	kinds := make(map[domain.RelationshipKind]bool)
	for _, relationship := range snapshot.Relationships {
		kinds[relationship.Kind] = true
	}
	for _, kind := range domain.RelationshipKinds {
		if !kinds[kind] {
			t.Fatalf("sample facility has no %s relationship", kind)
		}
	}
	for _, seeded := range snapshot.Assets {
		if _, err := domain.ParseAssetType(string(seeded.Type)); err != nil {
			t.Fatalf("seeded asset %s: %v", seeded.ID, err)
		}
	}

	areas, err := repo.ListProcessAreas(ctx, nil)
	if err != nil {
		t.Fatalf("list process areas: %v", err)
	}
	if len(areas) != 5 {
		t.Fatalf("expected 5 process areas, got %d", len(areas))
	}
	for _, area := range areas {
		if area.SiteName == "" {
			t.Fatalf("area %s missing site name", area.ProcessArea.ID)
		}
	}
}

func TestUserTokenAndAudit(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	user, err := repo.CreateUser(ctx, domain.User{Email: "Admin@Plant.example", PasswordHash: "x", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "admin@plant.example")
	if err != nil {
		t.Fatalf("emails should be case-insensitive on lookup: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("lookup returned wrong user")
	}

	token, err := repo.CreateAPIToken(ctx, domain.APIToken{UserID: user.ID, Name: "cli", TokenHash: "hash-1"})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	got, err := repo.GetAPITokenByTokenHash(ctx, "hash-1")
	if err != nil || got.ID != token.ID {
		t.Fatalf("token lookup failed: %v", err)
	}

	if err := repo.CreateAuditEntry(ctx, domain.AuditEntry{ActorUserID: &user.ID, Action: "assets.create", TargetType: "asset", TargetID: "PLC-1"}); err != nil {
		t.Fatalf("create audit entry: %v", err)
	}
	entries, err := repo.ListAuditEntries(ctx, 10)
	if err != nil {
		t.Fatalf("list audit entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorUserEmail != "admin@plant.example" {
		t.Fatalf("audit join missing actor email: %+v", entries)
	}
}

func mustCreateAsset(t *testing.T, repo *InventoryRepository, value domain.Asset) {
	t.Helper()
	if _, err := repo.CreateAsset(context.Background(), value); err != nil {
		t.Fatalf("create asset %s: %v", value.ID, err)
	}
}
