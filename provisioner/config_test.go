package provisioner

import (
	"encoding/json"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Band.DataRange != [2]float64{1, 4095} || cfg.Band.Name != "vv" {
		t.Errorf("unexpected band %+v", cfg.Band)
	}
	if cfg.Image.Acquired.Format("2006-01-02") != "2025-02-04" {
		t.Errorf("unexpected acquisition date %s", cfg.Image.Acquired)
	}

	cfg.TableNames = map[SchemaVariant]string{SchemaDetections: "only one"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error on missing table name")
	}
	cfg = DefaultConfig()
	cfg.ResetPolicy = ResetPolicy(3)
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error on invalid reset policy")
	}
}

func TestSchemaVariant(t *testing.T) {
	if SchemaDetections.String() != "detections" || SchemaConfidence.String() != "confidence" {
		t.Errorf("unexpected names %v", SchemaVariantStrings())
	}
	v, err := SchemaVariantString("Confidence")
	if err != nil || v != SchemaConfidence {
		t.Errorf("unexpected variant %v: %v", v, err)
	}
	if ResetIgnoreErrors.String() != "ignore_errors" {
		t.Errorf("unexpected name %s", ResetIgnoreErrors)
	}
	if _, err := ResetPolicyString("sloppy"); err == nil {
		t.Error("expected an error on unknown policy")
	}
}

func TestConfigJSON(t *testing.T) {
	b, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.TableNames[SchemaConfidence] != "S1-S2 Vessel Detections Demo" || cfg.ResetPolicy != ResetStrict {
		t.Errorf("unexpected config %+v", cfg)
	}
}
