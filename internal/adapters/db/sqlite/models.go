package sqlite

import "time"

type AssetModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null;index"`
	Type            string `gorm:"not null;index"`
	Manufacturer    *string
	Model           *string
	SerialNumber    *string
	FirmwareVersion *string

	SiteID        *string `gorm:"index"`
	Building      *string
	Area          *string
	Zone          *string
	ProcessAreaID *string `gorm:"index"`

	IPAddress  *string
	MACAddress *string
	VLAN       *string
	// JSON-encoded string list.
	Protocols string `gorm:"not null;default:'[]'"`

	Function *string

	Owner        *string
	Maintainer   *string
	LastVerified *time.Time

	InCMMS                bool `gorm:"column:in_cmms;not null;default:false"`
	Documented            bool `gorm:"not null;default:false"`
	SecurityPolicyApplied bool `gorm:"not null;default:false"`

	Criticality string `gorm:"not null;default:'';index"`
	Notes       *string
	// JSON-encoded string list.
	Tags string `gorm:"not null;default:'[]'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AssetModel) TableName() string { return "assets" }

type RelationshipModel struct {
	ID            string `gorm:"primaryKey"`
	SourceAssetID string `gorm:"not null;index"`
	TargetAssetID string `gorm:"not null;index"`
	Kind          string `gorm:"column:relationship_type;not null;index"`
	Inferred      bool   `gorm:"not null;default:false"`
	Verified      bool   `gorm:"not null;default:false"`
	VerifiedBy    *string
	VerifiedAt    *time.Time
	Description   *string
	CreatedAt     time.Time
}

func (RelationshipModel) TableName() string { return "relationships" }

type EnvironmentModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Type        string `gorm:"not null"`
	Description *string
}

func (EnvironmentModel) TableName() string { return "environments" }

type SiteModel struct {
	ID            string `gorm:"primaryKey"`
	EnvironmentID string `gorm:"not null;index"`
	Name          string `gorm:"not null"`
	Address       *string
	Timezone      *string
}

func (SiteModel) TableName() string { return "sites" }

type ProcessAreaModel struct {
	ID          string `gorm:"primaryKey"`
	SiteID      string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description *string
	Function    *string
}

func (ProcessAreaModel) TableName() string { return "process_areas" }

type ReviewFlagModel struct {
	ID              string  `gorm:"primaryKey"`
	AssetID         *string `gorm:"index"`
	RelationshipID  *string `gorm:"index"`
	FlagType        string  `gorm:"not null;index"`
	Description     string  `gorm:"not null"`
	Severity        string  `gorm:"not null;default:'medium'"`
	Status          string  `gorm:"not null;default:'open';index"`
	FlaggedBy       string  `gorm:"not null;default:'system'"`
	FlaggedAt       time.Time
	ResolvedBy      *string
	ResolvedAt      *time.Time
	ResolutionNotes *string
}

func (ReviewFlagModel) TableName() string { return "review_flags" }

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:'viewer'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type APITokenModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (APITokenModel) TableName() string { return "api_tokens" }

type AuditLogModel struct {
	ID          uint `gorm:"primaryKey"`
	ActorUserID *uint
	Action      string `gorm:"not null;index"`
	TargetType  string `gorm:"not null;index"`
	TargetID    string `gorm:"not null;default:''"`
	Metadata    string
	CreatedAt   time.Time
}

func (AuditLogModel) TableName() string { return "audit_logs" }
