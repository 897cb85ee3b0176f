package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/tollgate/internal/auth/domain"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
)

// seedFile is the YAML document read from AUTH_SEED_FILE:
//
//	clients:
//	  - client_id: reporting-svc
//	    client_secret: change-me
//	    client_name: Reporting
//	    tenant_id: t1
//	    scopes: [read:data]
//	    status: ACTIVE        # optional; SUSPENDED keeps the client from getting tokens
type seedFile struct {
	Clients []seedClient `yaml:"clients"`
}

type seedClient struct {
	ClientID                   string   `yaml:"client_id"`
	ClientSecret               string   `yaml:"client_secret"`
	ClientName                 string   `yaml:"client_name"`
	TenantID                   string   `yaml:"tenant_id"`
	Scopes                     []string `yaml:"scopes"`
	GrantTypes                 []string `yaml:"grant_types"`
	AccessTokenValiditySeconds *int     `yaml:"access_token_validity_seconds"`
	ContactEmail               string   `yaml:"contact_email"`
	Description                string   `yaml:"description"`
	Status                     string   `yaml:"status"`
}

// LoadSeedFile parses the seed clients at path.
func LoadSeedFile(path string) ([]service.SeedClient, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	seeds := make([]service.SeedClient, 0, len(doc.Clients))
	for _, c := range doc.Clients {
		seeds = append(seeds, service.SeedClient{
			ID:     c.ClientID,
			Secret: os.ExpandEnv(c.ClientSecret),
			Status: domain.ClientStatus(strings.ToUpper(strings.TrimSpace(c.Status))),
			Spec: service.ClientSpec{
				Name:                  c.ClientName,
				TenantID:              c.TenantID,
				Scopes:                c.Scopes,
				GrantTypes:            c.GrantTypes,
				AccessTokenTTLSeconds: c.AccessTokenValiditySeconds,
				ContactEmail:          c.ContactEmail,
				Description:           c.Description,
			},
		})
	}
	return seeds, nil
}

// SeedClients registers every client in the seed file that does not exist
// yet. A missing path is a no-op.
func SeedClients(ctx context.Context, path string, registry *service.Registry) (int, error) {
	if path == "" {
		return 0, nil
	}
	seeds, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	return registry.Seed(ctx, seeds)
}
