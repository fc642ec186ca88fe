package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// InventoryService is the application core: it validates input, talks to
// the repository, and runs graph analysis over snapshots.
type InventoryService struct {
	repo domain.InventoryRepository
}

func NewInventoryService(repo domain.InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// rolePermissions maps a user role to its permission set. Admin implies
// everything.
var rolePermissions = map[string][]string{
	domain.RoleAdmin:    {"read", "write", "admin"},
	domain.RoleOperator: {"read", "write"},
	domain.RoleViewer:   {"read"},
}

func (s *InventoryService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return errors.New("bootstrap admin email and password are required")
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	u, err := s.repo.CreateUser(ctx, domain.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		return err
	}

	s.WriteAudit(ctx, &u.ID, "auth.bootstrap_admin", "user", u.Email, "initial admin created")
	return nil
}

func (s *InventoryService) CreateUser(ctx context.Context, email, password, role string) (domain.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, errors.New("email and password are required")
	}
	if _, ok := rolePermissions[role]; !ok {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	return s.repo.CreateUser(ctx, domain.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         role,
	})
}

// Login verifies credentials and issues an API token. The plaintext token
// is returned once; only its sha256 hash is stored.
func (s *InventoryService) Login(ctx context.Context, email, password, tokenName string, ttl *time.Duration) (domain.User, string, error) {
	u, err := s.authenticateEmailPassword(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.User{}, "", err
	}

	var expiresAt *time.Time
	if ttl != nil {
		t := time.Now().UTC().Add(*ttl)
		expiresAt = &t
	}

	_, err = s.repo.CreateAPIToken(ctx, domain.APIToken{
		UserID:    u.ID,
		Name:      defaultString(tokenName, "cli"),
		TokenHash: hash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	s.WriteAudit(ctx, &u.ID, "auth.login", "user", u.Email, "api token issued")
	return u, plain, nil
}

func (s *InventoryService) AuthenticateBearerToken(ctx context.Context, token string) (domain.Identity, error) {
	apit, err := s.repo.GetAPITokenByTokenHash(ctx, hashToken(token))
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	if apit.ExpiresAt != nil && apit.ExpiresAt.Before(time.Now().UTC()) {
		return domain.Identity{}, errors.New("token expired")
	}

	u, err := s.repo.GetUserByID(ctx, apit.UserID)
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	perms := make(map[string]struct{})
	for _, p := range rolePermissions[u.Role] {
		perms[p] = struct{}{}
	}
	return domain.Identity{User: u, Permissions: perms}, nil
}

func (s *InventoryService) Can(identity domain.Identity, permission string) bool {
	if _, ok := identity.Permissions["admin"]; ok {
		return true
	}
	_, ok := identity.Permissions[permission]
	return ok
}

func (s *InventoryService) WriteAudit(ctx context.Context, actorUserID *uint, action, targetType, targetID, metadata string) {
	_ = s.repo.CreateAuditEntry(ctx, domain.AuditEntry{
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    metadata,
	})
}

func (s *InventoryService) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	if limit > 2000 {
		limit = 2000
	}
	return s.repo.ListAuditEntries(ctx, limit)
}

func (s *InventoryService) authenticateEmailPassword(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, errors.New("invalid credentials")
	}
	return u, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
