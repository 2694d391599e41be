// Package seed installs the default domain/field catalog and the bootstrap
// admin user. Seeding is idempotent: existing domains and fields are left
// untouched, missing ones are created.
package seed

import (
	"context"
	_ "embed"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cellgrid/packdb/internal/config"
	"github.com/cellgrid/packdb/internal/model"
	"github.com/cellgrid/packdb/internal/store"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogField struct {
	Name          string   `yaml:"name"`
	DisplayName   string   `yaml:"display_name"`
	Unit          *string  `yaml:"unit"`
	DataType      string   `yaml:"data_type"`
	SelectOptions []string `yaml:"select_options"`
	SortOrder     int      `yaml:"sort_order"`
}

type catalogDomain struct {
	Name      string         `yaml:"name"`
	SortOrder int            `yaml:"sort_order"`
	Fields    []catalogField `yaml:"fields"`
}

// Catalog is the parsed default catalog.
type Catalog struct {
	Domains []catalogDomain `yaml:"domains"`
}

// LoadCatalog parses the embedded default catalog.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, eris.Wrap(err, "seed: parse catalog")
	}
	return &c, nil
}

// Run seeds the catalog and ensures the bootstrap admin exists.
func Run(ctx context.Context, st store.Store, cfg config.SeedConfig) error {
	cat, err := LoadCatalog()
	if err != nil {
		return err
	}
	if err := seedCatalog(ctx, st, cat); err != nil {
		return err
	}
	return seedAdmin(ctx, st, cfg)
}

func seedCatalog(ctx context.Context, st store.Store, cat *Catalog) error {
	existing, err := st.ListDomains(ctx)
	if err != nil {
		return eris.Wrap(err, "seed: list domains")
	}
	domainsByName := make(map[string]model.Domain, len(existing))
	for _, d := range existing {
		domainsByName[d.Name] = d
	}

	for _, cd := range cat.Domains {
		domain, ok := domainsByName[cd.Name]
		if !ok {
			created := model.Domain{Name: cd.Name, SortOrder: cd.SortOrder, IsDefault: true}
			if err := st.CreateDomain(ctx, &created); err != nil {
				return eris.Wrapf(err, "seed: create domain %s", cd.Name)
			}
			domain = created
			zap.L().Info("seeded domain", zap.String("name", cd.Name))
		}

		fields, err := st.ListFields(ctx, domain.ID)
		if err != nil {
			return eris.Wrapf(err, "seed: list fields for %s", cd.Name)
		}
		have := make(map[string]bool, len(fields))
		for _, f := range fields {
			have[f.Name] = true
		}

		for _, cf := range cd.Fields {
			if have[cf.Name] {
				continue
			}
			field := model.Field{
				DomainID:      domain.ID,
				Name:          cf.Name,
				DisplayName:   cf.DisplayName,
				Unit:          cf.Unit,
				DataType:      cf.DataType,
				SelectOptions: cf.SelectOptions,
				SortOrder:     cf.SortOrder,
			}
			if err := st.CreateField(ctx, &field); err != nil {
				return eris.Wrapf(err, "seed: create field %s.%s", cd.Name, cf.Name)
			}
			zap.L().Info("seeded field", zap.String("domain", cd.Name), zap.String("name", cf.Name))
		}
	}
	return nil
}

// seedAdmin creates the bootstrap admin if no user holds the configured
// email. The token is taken from config or generated and logged once.
func seedAdmin(ctx context.Context, st store.Store, cfg config.SeedConfig) error {
	if _, err := st.GetUserByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	}
	token := cfg.AdminToken
	generated := false
	if token == "" {
		token = uuid.NewString()
		generated = true
	}
	admin := model.User{
		Email:       cfg.AdminEmail,
		DisplayName: cfg.AdminName,
		Role:        model.RoleAdmin,
		APIToken:    token,
	}
	if err := st.CreateUser(ctx, &admin); err != nil {
		return eris.Wrap(err, "seed: create admin")
	}
	if generated {
		zap.L().Info("created bootstrap admin",
			zap.String("email", admin.Email),
			zap.String("api_token", token),
		)
	} else {
		zap.L().Info("created bootstrap admin", zap.String("email", admin.Email))
	}
	return nil
}
