package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"maremio_backend/internal/catalog/repository"
	"maremio_backend/platform/apperr"
)

// MenuSeed is the YAML layout accepted by cmd/seed-menu:
//
//	categories:
//	  - name: crudi
//	    label: Crudi
//	    products:
//	      - name: Crudo di gamberi
//	        price: 18
//	        unit: pezzo
type MenuSeed struct {
	Categories []SeedCategory `yaml:"categories"`
}

type SeedCategory struct {
	Name     string        `yaml:"name"`
	Label    string        `yaml:"label"`
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Unit        string  `yaml:"unit"`
	Available   *bool   `yaml:"available"`
}

// SeedReport counts what SeedMenu changed.
type SeedReport struct {
	Categories int
	Created    int
	Updated    int
}

// ParseMenuSeed decodes and checks a YAML menu.
func ParseMenuSeed(r io.Reader) (MenuSeed, error) {
	var seed MenuSeed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return MenuSeed{}, fmt.Errorf("decode menu seed: %w", err)
	}

	for i, c := range seed.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return MenuSeed{}, apperr.Validation(fmt.Sprintf("category %d has no name", i+1))
		}
		for _, p := range c.Products {
			if strings.TrimSpace(p.Name) == "" {
				return MenuSeed{}, apperr.Validation(fmt.Sprintf("category %q has a product without name", c.Name))
			}
			if p.Price < 0 {
				return MenuSeed{}, apperr.Validation(fmt.Sprintf("product %q has a negative price", p.Name))
			}
		}
	}
	return seed, nil
}

// SeedMenu upserts categories and products by name. Existing products keep
// their id and sort order so past order lines stay linked.
func (s *Service) SeedMenu(ctx context.Context, seed MenuSeed) (SeedReport, error) {
	var report SeedReport
	for i, c := range seed.Categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		label := strings.TrimSpace(c.Label)
		if label == "" {
			label = c.Name
		}
		position := i + 1
		if _, err := s.repo.UpsertCategory(ctx, repository.UpsertCategoryParams{Name: name, Label: label, SortOrder: &position}); err != nil {
			return report, err
		}
		report.Categories++

		for _, p := range c.Products {
			created, err := s.seedProduct(ctx, name, p)
			if err != nil {
				return report, err
			}
			if created {
				report.Created++
			} else {
				report.Updated++
			}
		}
	}

	s.invalidate(ctx)
	s.log.Info("menu seeded", "categories", report.Categories, "created", report.Created, "updated", report.Updated)
	return report, nil
}

func (s *Service) seedProduct(ctx context.Context, category string, p SeedProduct) (bool, error) {
	name := strings.TrimSpace(p.Name)
	unit := strings.TrimSpace(p.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	var description *string
	if d := strings.TrimSpace(p.Description); d != "" {
		description = &d
	}
	available := true
	if p.Available != nil {
		available = *p.Available
	}

	existing, err := s.repo.GetProductByName(ctx, name)
	switch {
	case err == nil:
		price := p.Price
		_, err := s.repo.UpdateProduct(ctx, repository.UpdateProductParams{
			ID:          existing.ID,
			Description: description,
			Price:       &price,
			Unit:        &unit,
			Category:    &category,
			Available:   &available,
		})
		return false, err
	case apperr.Is(err, apperr.KindNotFound):
		sortOrder, err := s.repo.NextSortOrder(ctx, category)
		if err != nil {
			return false, err
		}
		_, err = s.repo.CreateProduct(ctx, repository.CreateProductParams{
			Name:        name,
			Description: description,
			Price:       p.Price,
			Unit:        unit,
			Category:    category,
			Available:   available,
			SortOrder:   sortOrder,
		})
		return err == nil, err
	default:
		return false, err
	}
}
