package sqlite

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:embed sample_data.json
var sampleData embed.FS

type seedFile struct {
	Environments []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Type        string  `json:"type"`
		Description *string `json:"description"`
	} `json:"environments"`
	Sites []struct {
		ID            string  `json:"id"`
		EnvironmentID string  `json:"environment_id"`
		Name          string  `json:"name"`
		Address       *string `json:"address"`
		Timezone      *string `json:"timezone"`
	} `json:"sites"`
	ProcessAreas []struct {
		ID          string  `json:"id"`
		SiteID      string  `json:"site_id"`
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Function    *string `json:"function"`
	} `json:"process_areas"`
	Assets []struct {
		ID                    string     `json:"id"`
		Name                  string     `json:"name"`
		Type                  string     `json:"type"`
		Manufacturer          *string    `json:"manufacturer"`
		Model                 *string    `json:"model"`
		SerialNumber          *string    `json:"serial_number"`
		FirmwareVersion       *string    `json:"firmware_version"`
		SiteID                *string    `json:"site_id"`
		Building              *string    `json:"building"`
		Area                  *string    `json:"area"`
		Zone                  *string    `json:"zone"`
		ProcessAreaID         *string    `json:"process_area_id"`
		IPAddress             *string    `json:"ip_address"`
		MACAddress            *string    `json:"mac_address"`
		VLAN                  *string    `json:"vlan"`
		Protocols             []string   `json:"protocols"`
		Function              *string    `json:"function"`
		Owner                 *string    `json:"owner"`
		Maintainer            *string    `json:"maintainer"`
		LastVerified          *time.Time `json:"last_verified"`
		InCMMS                bool       `json:"in_cmms"`
		Documented            bool       `json:"documented"`
		SecurityPolicyApplied bool       `json:"security_policy_applied"`
		Criticality           string     `json:"criticality"`
		Notes                 *string    `json:"notes"`
		Tags                  []string   `json:"tags"`
	} `json:"assets"`
	Relationships []struct {
		ID            string  `json:"id"`
		SourceAssetID string  `json:"source_asset_id"`
		TargetAssetID string  `json:"target_asset_id"`
		Kind          string  `json:"relationship_type"`
		Inferred      bool    `json:"inferred"`
		Verified      bool    `json:"verified"`
		Description   *string `json:"description"`
	} `json:"relationships"`
}

// Seed loads the bundled sample facility into an empty database. A
// database that already holds assets is left alone.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&AssetModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := sampleData.ReadFile("sample_data.json")
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, env := range data.Environments {
			m := EnvironmentModel{ID: env.ID, Name: env.Name, Type: env.Type, Description: env.Description}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		for _, site := range data.Sites {
			m := SiteModel{ID: site.ID, EnvironmentID: site.EnvironmentID, Name: site.Name, Address: site.Address, Timezone: site.Timezone}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		for _, pa := range data.ProcessAreas {
			m := ProcessAreaModel{ID: pa.ID, SiteID: pa.SiteID, Name: pa.Name, Description: pa.Description, Function: pa.Function}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		for _, a := range data.Assets {
			m := AssetModel{
				ID:              a.ID,
				Name:            a.Name,
				Type:            a.Type,
				Manufacturer:    a.Manufacturer,
				Model:           a.Model,
				SerialNumber:    a.SerialNumber,
				FirmwareVersion: a.FirmwareVersion,
				SiteID:          a.SiteID,
				Building:        a.Building,
				Area:            a.Area,
				Zone:            a.Zone,
				ProcessAreaID:   a.ProcessAreaID,
				IPAddress:       a.IPAddress,
				MACAddress:      a.MACAddress,
				VLAN:            a.VLAN,
				Protocols:       encodeList(a.Protocols),
				Function:        a.Function,
				Owner:           a.Owner,
				Maintainer:      a.Maintainer,
				LastVerified:    a.LastVerified,
				InCMMS:          a.InCMMS,
				Documented:      a.Documented,
				SecurityPolicyApplied: a.SecurityPolicyApplied,
				Criticality:           a.Criticality,
				Notes:                 a.Notes,
				Tags:                  encodeList(a.Tags),
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		for _, rel := range data.Relationships {
			id := rel.ID
			if id == "" {
				id = uuid.NewString()
			}
			m := RelationshipModel{
				ID:            id,
				SourceAssetID: rel.SourceAssetID,
				TargetAssetID: rel.TargetAssetID,
				Kind:          rel.Kind,
				Inferred:      rel.Inferred,
				Verified:      rel.Verified,
				Description:   rel.Description,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
