// Package seed loads partner organizations from a YAML fixture.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed organizations.yaml
var defaultFixture []byte

// Organization is one fixture entry
type Organization struct {
	Slug                string   `yaml:"slug"`
	Name                string   `yaml:"name"`
	Latitude            float64  `yaml:"latitude"`
	Longitude           float64  `yaml:"longitude"`
	Address             string   `yaml:"address"`
	Phone               string   `yaml:"phone"`
	Email               string   `yaml:"email"`
	TotalCapacityKg     float64  `yaml:"total_capacity_kg"`
	FoodCategories      []string `yaml:"food_categories"`
	ResponseTimeMinutes int      `yaml:"response_time_minutes"`
	Inactive            bool     `yaml:"inactive"`
	Description         string   `yaml:"description"`
	Rating              *float64 `yaml:"rating"`
}

type fixtureFile struct {
	Organizations []Organization `yaml:"organizations"`
}

// Load parses and validates a fixture
func Load(r io.Reader) ([]*models.Organization, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fixtureFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed fixture is empty")
		}
		return nil, fmt.Errorf("failed to parse seed fixture: %w", err)
	}

	seen := make(map[string]bool, len(f.Organizations))
	orgs := make([]*models.Organization, 0, len(f.Organizations))
	for i, entry := range f.Organizations {
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("organization %d (%s): %w", i, entry.Slug, err)
		}
		if seen[entry.Slug] {
			return nil, fmt.Errorf("organization %d: duplicate slug %q", i, entry.Slug)
		}
		seen[entry.Slug] = true
		orgs = append(orgs, entry.toModel())
	}
	return orgs, nil
}

// LoadFile parses the fixture at path
func LoadFile(path string) ([]*models.Organization, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed fixture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded fixture
func Default() ([]*models.Organization, error) {
	return Load(bytes.NewReader(defaultFixture))
}

// Apply upserts orgs. Existing organizations keep their current load.
func Apply(ctx context.Context, repo repositories.OrganizationRepository, orgs []*models.Organization, logger *zap.Logger) error {
	for _, org := range orgs {
		if err := repo.Upsert(ctx, org); err != nil {
			return fmt.Errorf("failed to upsert organization %s: %w", org.Slug, err)
		}
	}
	logger.Info("organizations seeded", zap.Int("count", len(orgs)))
	return nil
}

func (o Organization) validate() error {
	switch {
	case o.Slug == "":
		return errors.New("slug is required")
	case o.Name == "":
		return errors.New("name is required")
	case o.Latitude < -90 || o.Latitude > 90:
		return fmt.Errorf("latitude %v out of range", o.Latitude)
	case o.Longitude < -180 || o.Longitude > 180:
		return fmt.Errorf("longitude %v out of range", o.Longitude)
	case o.TotalCapacityKg < 0:
		return fmt.Errorf("total_capacity_kg must not be negative")
	case o.ResponseTimeMinutes < 0:
		return fmt.Errorf("response_time_minutes must not be negative")
	case o.Rating != nil && (*o.Rating < 0 || *o.Rating > 5):
		return fmt.Errorf("rating %v out of range", *o.Rating)
	}
	for _, c := range o.FoodCategories {
		if !models.IsValidCategory(c) {
			return fmt.Errorf("unknown food category %q", c)
		}
	}
	return nil
}

func (o Organization) toModel() *models.Organization {
	org := models.NewOrganization(o.Slug, o.Name, o.Latitude, o.Longitude, o.TotalCapacityKg, o.FoodCategories)
	org.Address = o.Address
	org.Phone = o.Phone
	org.Email = o.Email
	org.Description = o.Description
	org.ResponseTimeMinutes = o.ResponseTimeMinutes
	org.IsActive = !o.Inactive
	org.Rating = o.Rating
	return org
}
