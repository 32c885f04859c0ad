package pg_test

import (
	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/vector/pg"
	"github.com/airbusgeo/geocube-provisioner/service"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Backend", func() {
	table := common.Table{
		ID:   "pgtest:vessels",
		Name: "S1 Vessel Detections Demo",
		Model: common.Model{
			Fields: []common.Field{
				{Name: common.AttrDate, Type: common.FieldDateTime},
				{Name: common.AttrSourceImageID, Type: common.FieldString},
			},
			Geometry: common.GeometryMultiPolygon,
		},
	}

	featureTableExists := func(id string) bool {
		var exists bool
		err := backend.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", pg.FeatureTable(id)).Scan(&exists)
		Expect(err).NotTo(HaveOccurred())
		return exists
	}

	Context("creating a table", func() {
		AfterEach(func() {
			backend.DeleteTable(ctx, table.ID)
		})

		It("should register the table and create its feature table", func() {
			_, err := backend.CreateTable(ctx, table)
			Expect(err).NotTo(HaveOccurred())

			got, err := backend.GetTable(ctx, table.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal(table.Name))
			Expect(got.Model).To(Equal(table.Model))
			Expect(featureTableExists(table.ID)).To(BeTrue())
		})

		It("should fail if the table already exists", func() {
			_, err := backend.CreateTable(ctx, table)
			Expect(err).NotTo(HaveOccurred())
			_, err = backend.CreateTable(ctx, table)
			Expect(service.IsAlreadyExists(err)).To(BeTrue())
		})
	})

	Context("deleting a table", func() {
		It("should drop the feature table", func() {
			_, err := backend.CreateTable(ctx, table)
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.DeleteTable(ctx, table.ID)).To(Succeed())

			_, err = backend.GetTable(ctx, table.ID)
			Expect(service.IsNotFound(err)).To(BeTrue())
			Expect(featureTableExists(table.ID)).To(BeFalse())
		})

		It("should return not found if the table does not exist", func() {
			err := backend.DeleteTable(ctx, "pgtest:unknown")
			Expect(service.IsNotFound(err)).To(BeTrue())
		})
	})
})
