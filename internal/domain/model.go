package domain

import (
	"fmt"
	"time"
)

// AssetType classifies an OT asset. The set mirrors what plants actually
// run; anything exotic goes in as its closest match plus tags.
type AssetType string

const (
	AssetPLC         AssetType = "PLC"
	AssetHMI         AssetType = "HMI"
	AssetSensor      AssetType = "Sensor"
	AssetActuator    AssetType = "Actuator"
	AssetRTU         AssetType = "RTU"
	AssetGateway     AssetType = "Gateway"
	AssetSwitch      AssetType = "Switch"
	AssetServer      AssetType = "Server"
	AssetWorkstation AssetType = "Workstation"
)

var assetTypes = map[AssetType]struct{}{
	AssetPLC: {}, AssetHMI: {}, AssetSensor: {}, AssetActuator: {},
	AssetRTU: {}, AssetGateway: {}, AssetSwitch: {}, AssetServer: {},
	AssetWorkstation: {},
}

func ParseAssetType(value string) (AssetType, error) {
	t := AssetType(value)
	if _, ok := assetTypes[t]; !ok {
		return "", fmt.Errorf("unknown asset type %q", value)
	}
	return t, nil
}

// Criticality is an ordered scale. The zero value means unassigned and
// ranks below low.
type Criticality string

const (
	CriticalityLow      Criticality = "low"
	CriticalityMedium   Criticality = "medium"
	CriticalityHigh     Criticality = "high"
	CriticalityCritical Criticality = "critical"
)

var criticalityRank = map[Criticality]int{
	"":                  0,
	CriticalityLow:      1,
	CriticalityMedium:   2,
	CriticalityHigh:     3,
	CriticalityCritical: 4,
}

// Rank returns the ordering position; higher is more critical.
func (c Criticality) Rank() int { return criticalityRank[c] }

// AtLeast reports whether c ranks at or above other.
func (c Criticality) AtLeast(other Criticality) bool { return c.Rank() >= other.Rank() }

func ParseCriticality(value string) (Criticality, error) {
	if value == "" {
		return "", nil
	}
	c := Criticality(value)
	if _, ok := criticalityRank[c]; !ok {
		return "", fmt.Errorf("unknown criticality %q", value)
	}
	return c, nil
}

// MaxCriticality returns the higher-ranked of a and b.
func MaxCriticality(a, b Criticality) Criticality {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RelationshipKind names the directed dependency semantics between two
// assets. Source is upstream, target is downstream.
type RelationshipKind string

const (
	KindFeedsDataTo        RelationshipKind = "feeds_data_to"
	KindControls           RelationshipKind = "controls"
	KindMonitors           RelationshipKind = "monitors"
	KindSafetyInterlockFor RelationshipKind = "safety_interlock_for"
	KindDependsOn          RelationshipKind = "depends_on"
	KindRedundantWith      RelationshipKind = "redundant_with"
	KindCommunicatesWith   RelationshipKind = "communicates_with"
	KindPowers             RelationshipKind = "powers"
	KindBacksUp            RelationshipKind = "backs_up"
)

// RelationshipKinds lists every kind in a stable presentation order.
var RelationshipKinds = []RelationshipKind{
	KindFeedsDataTo, KindControls, KindMonitors, KindSafetyInterlockFor,
	KindDependsOn, KindRedundantWith, KindCommunicatesWith, KindPowers,
	KindBacksUp,
}

func ParseRelationshipKind(value string) (RelationshipKind, error) {
	k := RelationshipKind(value)
	for _, known := range RelationshipKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown relationship kind %q", value)
}

type Asset struct {
	ID              string
	Name            string
	Type            AssetType
	Manufacturer    *string
	Model           *string
	SerialNumber    *string
	FirmwareVersion *string

	SiteID        *string
	Building      *string
	Area          *string
	Zone          *string
	ProcessAreaID *string

	IPAddress  *string
	MACAddress *string
	VLAN       *string
	Protocols  []string

	Function *string

	Owner        *string
	Maintainer   *string
	LastVerified *time.Time

	InCMMS                bool
	Documented            bool
	SecurityPolicyApplied bool

	Criticality Criticality
	Notes       *string
	Tags        []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Relationship struct {
	ID            string
	SourceAssetID string
	TargetAssetID string
	Kind          RelationshipKind
	Inferred      bool
	Verified      bool
	VerifiedBy    *string
	VerifiedAt    *time.Time
	Description   *string
	CreatedAt     time.Time
}

type Environment struct {
	ID          string
	Name        string
	Type        string
	Description *string
}

type Site struct {
	ID            string
	EnvironmentID string
	Name          string
	Address       *string
	Timezone      *string
}

type ProcessArea struct {
	ID          string
	SiteID      string
	Name        string
	Description *string
	Function    *string
}

// FlagType categorizes review flags raised against assets or suggested
// relationships.
type FlagType string

const (
	FlagMissingData           FlagType = "missing_data"
	FlagNeedsVerification     FlagType = "needs_verification"
	FlagPotentialIssue        FlagType = "potential_issue"
	FlagSuggestedRelationship FlagType = "suggested_relationship"
	FlagComplianceGap         FlagType = "compliance_gap"
	FlagOwnershipUnknown      FlagType = "ownership_unknown"
)

var flagTypes = map[FlagType]struct{}{
	FlagMissingData: {}, FlagNeedsVerification: {}, FlagPotentialIssue: {},
	FlagSuggestedRelationship: {}, FlagComplianceGap: {}, FlagOwnershipUnknown: {},
}

func ParseFlagType(value string) (FlagType, error) {
	t := FlagType(value)
	if _, ok := flagTypes[t]; !ok {
		return "", fmt.Errorf("unknown flag type %q", value)
	}
	return t, nil
}

const (
	FlagStatusOpen      = "open"
	FlagStatusInReview  = "in_review"
	FlagStatusResolved  = "resolved"
	FlagStatusDismissed = "dismissed"
)

type ReviewFlag struct {
	ID              string
	AssetID         *string
	RelationshipID  *string
	Type            FlagType
	Description     string
	Severity        Criticality
	Status          string
	FlaggedBy       string
	FlaggedAt       time.Time
	ResolvedBy      *string
	ResolvedAt      *time.Time
	ResolutionNotes *string
}

// GapType names a compliance shortfall on an asset.
type GapType string

const (
	GapNoOwner           GapType = "no_owner"
	GapNotInCMMS         GapType = "not_in_cmms"
	GapUndocumented      GapType = "undocumented"
	GapNoSecurityPolicy  GapType = "no_security_policy"
	GapUnverified        GapType = "unverified"
	GapStaleVerification GapType = "stale_verification"
)

var gapTypes = map[GapType]struct{}{
	GapNoOwner: {}, GapNotInCMMS: {}, GapUndocumented: {},
	GapNoSecurityPolicy: {}, GapUnverified: {}, GapStaleVerification: {},
}

func ParseGapType(value string) (GapType, error) {
	g := GapType(value)
	if _, ok := gapTypes[g]; !ok {
		return "", fmt.Errorf("unknown gap type %q", value)
	}
	return g, nil
}

type ComplianceGap struct {
	Asset Asset
	Gaps  []GapType
}

type User struct {
	ID           uint
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

type APIToken struct {
	ID        uint
	UserID    uint
	Name      string
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type AuditEntry struct {
	ID          uint
	ActorUserID *uint
	Action      string
	TargetType  string
	TargetID    string
	Metadata    string
	CreatedAt   time.Time
}

type AuditRecord struct {
	ID             uint
	ActorUserID    *uint
	ActorUserEmail string
	Action         string
	TargetType     string
	TargetID       string
	Metadata       string
	CreatedAt      time.Time
}

type Identity struct {
	User        User
	Permissions map[string]struct{}
}

// NotFoundError distinguishes a missing record from an empty result.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(NotFoundError)
	return ok
}
