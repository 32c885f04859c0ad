package provisioner_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/airbusgeo/geocube-provisioner/common"
	catalogmem "github.com/airbusgeo/geocube-provisioner/interface/catalog/memory"
	catalogrest "github.com/airbusgeo/geocube-provisioner/interface/catalog/rest"
	vectormem "github.com/airbusgeo/geocube-provisioner/interface/vector/memory"
	vectorrest "github.com/airbusgeo/geocube-provisioner/interface/vector/rest"
	"github.com/airbusgeo/geocube-provisioner/provisioner"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Provisioner", func() {
	var (
		ctx       context.Context
		cat       *catalogmem.Catalog
		store     *vectormem.Store
		publisher *MokePublisher
		prov      *provisioner.Provisioner
		cfg       provisioner.Config
		session   common.Session
		workdir   string
		err       error
	)

	newProvisioner := func(opts ...provisioner.Option) *provisioner.Provisioner {
		p, err := provisioner.New(session, cat, store, cfg, append([]provisioner.Option{provisioner.WithPublisher(publisher)}, opts...)...)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		ctx = context.Background()
		cat = catalogmem.New()
		cat.PollsToComplete = 2
		store = vectormem.New()
		publisher = &MokePublisher{}
		session = common.Session{Org: "acme", Namespace: "5f1a"}

		workdir, err = os.MkdirTemp("", "provisioner")
		Expect(err).NotTo(HaveOccurred())
		sample := filepath.Join(workdir, "s1_sample_1.tif")
		Expect(os.WriteFile(sample, []byte("II*\x00raster"), 0644)).To(Succeed())

		cfg = provisioner.DefaultConfig()
		cfg.Image.Sample = sample
		cfg.PollInterval = time.Millisecond
		cfg.WorkDir = workdir
		prov = newProvisioner()
	})

	AfterEach(func() {
		os.RemoveAll(workdir)
	})

	Describe("CreateProduct", func() {
		It("should create the demo product", func() {
			id, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("demo-vv"))

			product, err := cat.GetProduct(ctx, "demo-vv")
			Expect(err).NotTo(HaveOccurred())
			Expect(product.Name).To(Equal("Demo"))
			Expect(product.Tags).To(Equal([]string{"examples"}))

			bands, _ := cat.Bands(ctx, "demo-vv")
			Expect(bands).To(HaveLen(1))
			Expect(bands[0].ID).To(Equal("demo-vv:vv"))
			Expect(bands[0].DataRange).To(Equal([2]float64{1, 4095}))
			Expect(bands[0].DisplayRange).To(Equal([2]float64{858, 2926}))
			Expect(bands[0].DataType).To(Equal(common.DataTypeUInt16))
			Expect(bands[0].Resolution).To(Equal(common.Resolution{Unit: "meters", Value: 10}))

			images, _ := cat.Images(ctx, "demo-vv")
			Expect(images).To(HaveLen(1))
			Expect(images[0].Name).To(Equal("image1"))
			Expect(images[0].Acquired.Format("2006-01-02")).To(Equal("2025-02-04"))
			data, ok := cat.ImageData(images[0].ID)
			Expect(ok).To(BeTrue())
			Expect(string(data)).To(Equal("II*\x00raster"))

			Expect(publisher.Events()).To(Equal([]common.Event{
				{Kind: common.EventKindProduct, ID: "demo-vv", Action: common.EventCreated},
			}))
		})

		It("should be idempotent", func() {
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
			_, err = prov.CreateProduct(ctx, "demo-vv", "Demo 2")
			Expect(err).NotTo(HaveOccurred())

			product, _ := cat.GetProduct(ctx, "demo-vv")
			Expect(product.Name).To(Equal("Demo 2"))
			bands, _ := cat.Bands(ctx, "demo-vv")
			Expect(bands).To(HaveLen(1))
			images, _ := cat.Images(ctx, "demo-vv")
			Expect(images).To(HaveLen(1))
			Expect(cat.Calls(catalogmem.OpDeleteProduct)).To(Equal(1))

			Expect(publisher.Events()).To(Equal([]common.Event{
				{Kind: common.EventKindProduct, ID: "demo-vv", Action: common.EventCreated},
				{Kind: common.EventKindProduct, ID: "demo-vv", Action: common.EventDeleted},
				{Kind: common.EventKindProduct, ID: "demo-vv", Action: common.EventCreated},
			}))
		})

		It("should propagate a failure of the upload job", func() {
			cat.FailUploads("invalid raster")
			id, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).To(HaveOccurred())
			Expect(id).To(BeEmpty())
			var jobErr service.ErrJobFailed
			Expect(errors.As(err, &jobErr)).To(BeTrue())
			Expect(jobErr.Messages).To(Equal([]string{"invalid raster"}))

			// no cleanup: the product and its band remain
			_, err = cat.GetProduct(ctx, "demo-vv")
			Expect(err).NotTo(HaveOccurred())
			images, _ := cat.Images(ctx, "demo-vv")
			Expect(images).To(BeEmpty())
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("should propagate a failure of the upload request", func() {
			fault := service.MakeTemporary(errors.New("service unavailable"))
			cat.SetFault(catalogmem.OpUploadImage, fault)
			id, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).To(MatchError(fault))
			Expect(id).To(BeEmpty())
			Expect(cat.Calls(catalogmem.OpUploadImage)).To(Equal(1))
		})

		It("should propagate a failure to fetch the sample", func() {
			cfg.Image.Sample = filepath.Join(workdir, "missing.tif")
			prov = newProvisioner()
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(service.IsNotFound(err)).To(BeTrue())
		})

		It("should use the sample fetcher", func() {
			var fetched string
			prov = newProvisioner(provisioner.WithSampleFetcher(func(ctx context.Context, src, dir string) (string, error) {
				fetched = src
				return cfg.Image.Sample, nil
			}))
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(Equal(cfg.Image.Sample))
		})

		It("should not fail if the events cannot be published", func() {
			publisher.err = errPublish
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ResetProduct", func() {
		It("should do nothing if the product does not exist", func() {
			Expect(prov.ResetProduct(ctx, "unknown")).To(Succeed())
			Expect(cat.Calls(catalogmem.OpGetProduct)).To(Equal(1))
			Expect(cat.Calls(catalogmem.OpDeleteRelatedObjects)).To(Equal(0))
			Expect(cat.Calls(catalogmem.OpDeleteProduct)).To(Equal(0))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("should delete the product and its related objects", func() {
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
			Expect(prov.ResetProduct(ctx, "demo-vv")).To(Succeed())
			_, err = cat.GetProduct(ctx, "demo-vv")
			Expect(service.IsNotFound(err)).To(BeTrue())
			bands, _ := cat.Bands(ctx, "demo-vv")
			Expect(bands).To(BeEmpty())
		})

		It("should delete a product without related objects", func() {
			_, err := cat.SaveProduct(ctx, common.Product{ID: "empty"})
			Expect(err).NotTo(HaveOccurred())
			Expect(prov.ResetProduct(ctx, "empty")).To(Succeed())
			Expect(cat.Calls(catalogmem.OpJobStatus)).To(Equal(0))
		})

		It("should propagate a lookup error other than not found", func() {
			cat.SetFault(catalogmem.OpGetProduct, errors.New("forbidden"))
			Expect(prov.ResetProduct(ctx, "demo-vv")).To(MatchError(ContainSubstring("forbidden")))
		})

		It("should stop waiting when the context is canceled", func() {
			_, err := prov.CreateProduct(ctx, "demo-vv", "Demo")
			Expect(err).NotTo(HaveOccurred())
			cat.PollsToComplete = 1 << 30
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err = prov.ResetProduct(cctx, "demo-vv")
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		})
	})

	Describe("ResetTable", func() {
		It("should qualify a bare id before the lookup", func() {
			id, err := prov.ResetTable(ctx, "vessels")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("acme:vessels"))
			Expect(store.Calls(vectormem.OpGetTable)).To(Equal([]string{"acme:vessels"}))
		})

		It("should not prefix a qualified id twice", func() {
			id, err := prov.ResetTable(ctx, "acme:vessels")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("acme:vessels"))
			id, err = prov.ResetTable(ctx, "other:vessels")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("other:vessels"))
			Expect(store.Calls(vectormem.OpGetTable)).To(Equal([]string{"acme:vessels", "other:vessels"}))
		})

		It("should use the user namespace without organization", func() {
			session = common.Session{Namespace: "5f1a"}
			prov = newProvisioner()
			id, err := prov.ResetTable(ctx, "vessels")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("5f1a:vessels"))
		})

		It("should delete an existing table", func() {
			_, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaDetections)
			Expect(err).NotTo(HaveOccurred())
			_, err = prov.ResetTable(ctx, "vessels")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.GetTable(ctx, "acme:vessels")
			Expect(service.IsNotFound(err)).To(BeTrue())
			Expect(publisher.Events()).To(ContainElement(common.Event{Kind: common.EventKindTable, ID: "acme:vessels", Action: common.EventDeleted}))
		})

		It("should propagate a service error with the strict policy", func() {
			store.SetFault(vectormem.OpGetTable, errors.New("unauthorized"))
			id, err := prov.ResetTable(ctx, "vessels")
			Expect(err).To(MatchError(ContainSubstring("unauthorized")))
			Expect(id).To(BeEmpty())
		})

		It("should ignore a service error with the ignore-errors policy", func() {
			cfg.ResetPolicy = provisioner.ResetIgnoreErrors
			prov = newProvisioner()
			store.SetFault(vectormem.OpGetTable, errors.New("unauthorized"))
			id, err := prov.ResetTable(ctx, "vessels")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("acme:vessels"))
		})
	})

	Describe("CreateTable", func() {
		It("should create a detections table", func() {
			id, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaDetections)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("acme:vessels"))
			table, err := store.GetTable(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Name).To(Equal("S1 Vessel Detections Demo"))
			Expect(table.Model.FieldNames()).To(ConsistOf(common.AttrDate, common.AttrSourceImageID))
			Expect(table.Model.Geometry).To(Equal(common.GeometryMultiPolygon))
		})

		It("should create a confidence table", func() {
			id, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaConfidence)
			Expect(err).NotTo(HaveOccurred())
			table, err := store.GetTable(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Name).To(Equal("S1-S2 Vessel Detections Demo"))
			Expect(table.Model.FieldNames()).To(ConsistOf(common.AttrDate, common.AttrConfidence))
			Expect(table.Model.Fields[1].Type).To(Equal(common.FieldFloat))
		})

		It("should replace an existing table", func() {
			_, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaDetections)
			Expect(err).NotTo(HaveOccurred())
			_, err = prov.CreateTable(ctx, "acme:vessels", provisioner.SchemaConfidence)
			Expect(err).NotTo(HaveOccurred())
			table, _ := store.GetTable(ctx, "acme:vessels")
			Expect(table.Model.FieldNames()).To(ConsistOf(common.AttrDate, common.AttrConfidence))
		})

		It("should propagate a creation error", func() {
			store.SetFault(vectormem.OpCreateTable, errors.New("quota exceeded"))
			id, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaDetections)
			Expect(err).To(MatchError(ContainSubstring("quota exceeded")))
			Expect(id).To(BeEmpty())
		})

		It("should reject an unknown variant", func() {
			_, err := prov.CreateTable(ctx, "vessels", provisioner.SchemaVariant(42))
			Expect(err).To(HaveOccurred())
			Expect(store.Calls(vectormem.OpGetTable)).To(BeEmpty())
		})
	})

	Describe("Setup and Teardown", func() {
		It("should provision and remove the resources of the plan", func() {
			plan, err := provisioner.ParsePlan([]byte(`
config:
  tags: [examples, vessels]
  image:
    acquired: "February 4, 2025"
products:
  - id: demo-vv
    name: Demo
tables:
  - id: vessels
    variant: detections
  - id: vessels-s2
    variant: confidence
`), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Config.Tags).To(Equal([]string{"examples", "vessels"}))
			Expect(plan.Config.Image.Name).To(Equal("image1"))
			Expect(plan.Config.Image.Sample).To(Equal(cfg.Image.Sample))

			cfg = plan.Config
			prov = newProvisioner()
			res, err := prov.Setup(ctx, plan)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Products).To(Equal([]string{"demo-vv"}))
			Expect(res.Tables).To(Equal([]string{"acme:vessels", "acme:vessels-s2"}))

			images, _ := cat.Images(ctx, "demo-vv")
			Expect(images).To(HaveLen(1))
			Expect(images[0].Acquired.Format("2006-01-02")).To(Equal("2025-02-04"))
			product, _ := cat.GetProduct(ctx, "demo-vv")
			Expect(product.Tags).To(Equal([]string{"examples", "vessels"}))

			Expect(prov.Teardown(ctx, plan)).To(Succeed())
			_, err = cat.GetProduct(ctx, "demo-vv")
			Expect(service.IsNotFound(err)).To(BeTrue())
			_, err = store.GetTable(ctx, "acme:vessels-s2")
			Expect(service.IsNotFound(err)).To(BeTrue())
		})

		It("should not modify the defaults", func() {
			plan, err := provisioner.ParsePlan([]byte("config:\n  table_names:\n    detections: Overridden\n"), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Config.TableNames[provisioner.SchemaDetections]).To(Equal("Overridden"))
			Expect(plan.Config.TableNames[provisioner.SchemaConfidence]).To(Equal("S1-S2 Vessel Detections Demo"))
			Expect(cfg.TableNames[provisioner.SchemaDetections]).To(Equal("S1 Vessel Detections Demo"))
		})

		It("should reject an invalid plan", func() {
			_, err := provisioner.ParsePlan([]byte("tables:\n  - variant: unknown\n"), cfg)
			Expect(err).To(HaveOccurred())
			_, err = provisioner.ParsePlan([]byte("products:\n  - name: Demo\n"), cfg)
			Expect(err).To(HaveOccurred())
			_, err = provisioner.ParsePlan([]byte("tables:\n  - id: vessels\n  - id: vessels\n"), cfg)
			Expect(err).To(HaveOccurred())
		})

		It("should reset every resource of the plan even if one fails", func() {
			plan, err := provisioner.ParsePlan([]byte("tables:\n  - id: vessels\n  - id: vessels-s2\n"), cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = prov.CreateTable(ctx, "vessels-s2", provisioner.SchemaConfidence)
			Expect(err).NotTo(HaveOccurred())
			store.SetFault(vectormem.OpGetTable, errors.New("connection refused"))

			err = prov.Teardown(ctx, plan)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("vessels-s2"))
			Expect(store.Calls(vectormem.OpGetTable)).To(ContainElements("acme:vessels", "acme:vessels-s2"))
		})
	})

	Describe("over the REST transport", func() {
		It("should be idempotent for ids containing a slash", func() {
			r := mux.NewRouter().UseEncodedPath()
			api := r.PathPrefix("/api/v1").Subrouter()
			catalogrest.NewHandler(api, cat)
			vectorrest.NewHandler(api, store)
			srv := httptest.NewServer(r)
			defer srv.Close()

			catClient, err := catalogrest.New(srv.URL+"/api/v1", srv.Client())
			Expect(err).NotTo(HaveOccurred())
			vecClient, err := vectorrest.New(srv.URL+"/api/v1", srv.Client())
			Expect(err).NotTo(HaveOccurred())
			prov, err = provisioner.New(session, catClient, vecClient, cfg)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 2; i++ {
				id, err := prov.CreateProduct(ctx, "acme:demo/vv", "Demo")
				Expect(err).NotTo(HaveOccurred())
				Expect(id).To(Equal("acme:demo/vv"))
				tid, err := prov.CreateTable(ctx, "vessels/s2", provisioner.SchemaConfidence)
				Expect(err).NotTo(HaveOccurred())
				Expect(tid).To(Equal("acme:vessels/s2"))
			}
			bands, _ := cat.Bands(ctx, "acme:demo/vv")
			Expect(bands).To(HaveLen(1))
			images, _ := cat.Images(ctx, "acme:demo/vv")
			Expect(images).To(HaveLen(1))
			Expect(cat.Calls(catalogmem.OpDeleteProduct)).To(Equal(1))
			Expect(store.Calls(vectormem.OpDeleteTable)).To(Equal([]string{"acme:vessels/s2"}))
		})
	})
})
