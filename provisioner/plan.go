package provisioner

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

// ProductPlan is a product to provision
type ProductPlan struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TablePlan is a table to provision
type TablePlan struct {
	ID      string        `json:"id" yaml:"id"`
	Variant SchemaVariant `json:"variant" yaml:"variant"`
}

// Plan is the content of a setup file: the configuration and the resources to provision in one run
type Plan struct {
	Config   Config        `json:"config" yaml:"config"`
	Products []ProductPlan `json:"products" yaml:"products"`
	Tables   []TablePlan   `json:"tables" yaml:"tables"`
}

// Result of a Setup
type Result struct {
	Products []string `json:"products"`
	Tables   []string `json:"tables"`
}

// LoadPlan reads a setup file (yaml or json).
// The fields of the configuration that are not defined in the file are taken from defaults.
func LoadPlan(path string, defaults Config) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("LoadPlan.ReadFile: %w", err)
	}
	return ParsePlan(data, defaults)
}

// ParsePlan decodes a setup file (yaml or json)
func ParsePlan(data []byte, defaults Config) (Plan, error) {
	plan := Plan{Config: defaults}
	// yaml decodes into the existing map: the defaults of the caller must not be modified
	plan.Config.TableNames = maps.Clone(defaults.TableNames)
	plan.Config.Tags = slices.Clone(defaults.Tags)
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("ParsePlan: %w", err)
	}
	ids := service.NewStringSet()
	for _, pr := range plan.Products {
		if pr.ID == "" {
			return Plan{}, fmt.Errorf("ParsePlan: product without id")
		}
		if ids.Exists(pr.ID) {
			return Plan{}, fmt.Errorf("ParsePlan: duplicate product %s", pr.ID)
		}
		ids.Push(pr.ID)
	}
	ids = service.NewStringSet()
	for _, t := range plan.Tables {
		if t.ID == "" {
			return Plan{}, fmt.Errorf("ParsePlan: table without id")
		}
		if ids.Exists(t.ID) {
			return Plan{}, fmt.Errorf("ParsePlan: duplicate table %s", t.ID)
		}
		ids.Push(t.ID)
	}
	if err := plan.Config.Validate(); err != nil {
		return Plan{}, fmt.Errorf("ParsePlan: %w", err)
	}
	return plan, nil
}

// UnmarshalYAML implements yaml.Unmarshaler, parsing the acquisition date in any common format
func (c *ImageConfig) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Name      *string `yaml:"name"`
		Acquired  *string `yaml:"acquired"`
		Sample    *string `yaml:"sample"`
		Footprint *string `yaml:"footprint"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.Name != nil {
		c.Name = *aux.Name
	}
	if aux.Acquired != nil {
		acquired, err := dateparse.ParseIn(*aux.Acquired, time.UTC)
		if err != nil {
			return fmt.Errorf("image.acquired: %w", err)
		}
		c.Acquired = acquired
	}
	if aux.Sample != nil {
		c.Sample = *aux.Sample
	}
	if aux.Footprint != nil {
		c.Footprint = *aux.Footprint
	}
	return nil
}

// Setup creates all the products and the tables of the plan, sequentially.
// It stops at the first error.
func (p *Provisioner) Setup(ctx context.Context, plan Plan) (Result, error) {
	var res Result
	for _, pr := range plan.Products {
		name := pr.Name
		if name == "" {
			name = pr.ID
		}
		id, err := p.CreateProduct(ctx, pr.ID, name)
		if err != nil {
			return res, fmt.Errorf("Setup[product %s].%w", pr.ID, err)
		}
		res.Products = append(res.Products, id)
	}
	for _, t := range plan.Tables {
		id, err := p.CreateTable(ctx, t.ID, t.Variant)
		if err != nil {
			return res, fmt.Errorf("Setup[table %s].%w", t.ID, err)
		}
		res.Tables = append(res.Tables, id)
	}
	log.Logger(ctx).Sugar().Infof("Setup complete: %d products, %d tables", len(res.Products), len(res.Tables))
	return res, nil
}

// Teardown resets all the products and the tables of the plan.
// It does not stop at the first error: all the errors are merged.
func (p *Provisioner) Teardown(ctx context.Context, plan Plan) error {
	var err error
	for _, pr := range plan.Products {
		if e := p.ResetProduct(ctx, pr.ID); e != nil {
			err = service.MergeErrors(true, err, fmt.Errorf("Teardown[product %s].%w", pr.ID, e))
		}
	}
	for _, t := range plan.Tables {
		if _, e := p.ResetTable(ctx, t.ID); e != nil {
			err = service.MergeErrors(true, err, fmt.Errorf("Teardown[table %s].%w", t.ID, e))
		}
	}
	if err != nil {
		return err
	}
	log.Logger(ctx).Info("Complete")
	return nil
}
