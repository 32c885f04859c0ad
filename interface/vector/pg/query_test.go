package pg

import (
	"testing"

	"github.com/airbusgeo/geocube-provisioner/common"
)

func TestCreateTableQuery(t *testing.T) {
	query, err := createTableQuery(common.Table{
		ID: "org:vessels",
		Model: common.Model{
			Fields: []common.Field{
				{Name: common.AttrDate, Type: common.FieldDateTime},
				{Name: common.AttrConfidence, Type: common.FieldFloat},
			},
			Geometry: common.GeometryMultiPolygon,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected := `CREATE TABLE features."org:vessels" (fid bigserial NOT NULL PRIMARY KEY, geom geometry(MultiPolygon, 4326) NOT NULL, "DATE" timestamp with time zone, "CONFIDENCE" double precision)`
	if query != expected {
		t.Errorf("expected\n%s\ngot\n%s", expected, query)
	}

	if _, err := createTableQuery(common.Table{ID: "org:t", Model: common.Model{Fields: []common.Field{{Name: "a", Type: "blob"}}}}); err == nil {
		t.Error("expected an error on unsupported field type")
	}
}

func TestFeatureTable(t *testing.T) {
	if FeatureTable(`org:we"ird`) != `features."org:we""ird"` {
		t.Errorf("unexpected quoting %s", FeatureTable(`org:we"ird`))
	}
}
