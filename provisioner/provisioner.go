package provisioner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/airbusgeo/geocube/interface/messaging"
	"go.uber.org/zap"
)

// SampleFetcher makes the sample available locally and returns its local path
type SampleFetcher func(ctx context.Context, src, workdir string) (string, error)

// Provisioner resets and creates the products of a catalog and the tables of a vector-store.
// All the operations are idempotent.
type Provisioner struct {
	session     common.Session
	catalog     catalog.Service
	vector      vector.Service
	cfg         Config
	publisher   messaging.Publisher
	fetchSample SampleFetcher
}

// Option of the provisioner
type Option func(*Provisioner)

// WithPublisher publishes an event each time a resource is created or deleted
func WithPublisher(p messaging.Publisher) Option {
	return func(pr *Provisioner) {
		pr.publisher = p
	}
}

// WithSampleFetcher replaces the default sample fetcher (service.FetchFile)
func WithSampleFetcher(f SampleFetcher) Option {
	return func(pr *Provisioner) {
		pr.fetchSample = f
	}
}

// New creates a provisioner acting on behalf of the session
func New(session common.Session, cat catalog.Service, vec vector.Service, cfg Config, opts ...Option) (*Provisioner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("provisioner.New: %w", err)
	}
	p := &Provisioner{
		session:     session,
		catalog:     cat,
		vector:      vec,
		cfg:         cfg,
		fetchSample: service.FetchFile,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Session returns the session of the provisioner
func (p *Provisioner) Session() common.Session {
	return p.session
}

// ResetProduct deletes the product, its bands and its images, if the product exists
func (p *Provisioner) ResetProduct(ctx context.Context, id string) error {
	ctx = log.With(ctx, "product", id)
	log.Logger(ctx).Info("Checking for existing product")

	if _, err := p.catalog.GetProduct(ctx, id); err != nil {
		if service.IsNotFound(err) {
			log.Logger(ctx).Debug("product not found")
			return nil
		}
		return fmt.Errorf("ResetProduct.%w", err)
	}

	log.Logger(ctx).Info("Product found, deleting")
	job, err := p.catalog.DeleteRelatedObjects(ctx, id)
	if err != nil {
		return fmt.Errorf("ResetProduct.%w", err)
	}
	if job != nil {
		if err := catalog.WaitForCompletion(ctx, job, p.cfg.PollInterval); err != nil {
			return fmt.Errorf("ResetProduct.%w", err)
		}
		log.Logger(ctx).Info("Related objects deleted", zap.String("task", job.ID()))
	}

	if err := p.catalog.DeleteProduct(ctx, id); err != nil && !service.IsNotFound(err) {
		return fmt.Errorf("ResetProduct.%w", err)
	}
	log.Logger(ctx).Info("Product deleted")
	p.publish(ctx, common.EventKindProduct, id, common.EventDeleted)
	return nil
}

// ResetTable qualifies the id, deletes the table if it exists and returns the qualified id.
// With the ResetIgnoreErrors policy, any error of the vector-store is logged and ignored.
func (p *Provisioner) ResetTable(ctx context.Context, id string) (string, error) {
	qid, err := p.session.Qualify(id)
	if err != nil {
		return "", fmt.Errorf("ResetTable.%w", err)
	}
	ctx = log.With(ctx, "table", qid)

	if _, err = p.vector.GetTable(ctx, qid); err == nil {
		if err = p.vector.DeleteTable(ctx, qid); err == nil {
			log.Logger(ctx).Info("Deleted " + qid)
			p.publish(ctx, common.EventKindTable, qid, common.EventDeleted)
			return qid, nil
		}
	}

	switch {
	case service.IsNotFound(err):
		log.Logger(ctx).Debug("table not found")
		return qid, nil
	case p.cfg.ResetPolicy == ResetIgnoreErrors:
		log.Logger(ctx).Warn("reset table: error ignored", zap.Error(err))
		return qid, nil
	default:
		return "", fmt.Errorf("ResetTable.%w", err)
	}
}

// CreateProduct resets the product, then creates it with one band and one image.
// It returns when the upload of the image is complete.
// On failure, the product may be partially created.
func (p *Provisioner) CreateProduct(ctx context.Context, id, name string) (string, error) {
	if err := p.ResetProduct(ctx, id); err != nil {
		return "", fmt.Errorf("CreateProduct.%w", err)
	}
	ctx = log.With(ctx, "product", id)

	product, err := p.catalog.SaveProduct(ctx, common.Product{
		ID:   id,
		Name: name,
		Tags: append([]string{}, p.cfg.Tags...),
	})
	if err != nil {
		return "", fmt.Errorf("CreateProduct.%w", err)
	}

	bc := p.cfg.Band
	if _, err := p.catalog.SaveBand(ctx, common.Band{
		ID:           common.BandID(product.ID, bc.Name),
		ProductID:    product.ID,
		Name:         bc.Name,
		BandIndex:    bc.BandIndex,
		FileIndex:    bc.FileIndex,
		DataRange:    bc.DataRange,
		DataType:     bc.DataType,
		DisplayRange: bc.DisplayRange,
		Resolution:   bc.Resolution,
	}); err != nil {
		return "", fmt.Errorf("CreateProduct.%w", err)
	}
	log.Logger(ctx).Info("Saved band", zap.String("band", common.BandID(product.ID, bc.Name)))

	if err := p.uploadImage(ctx, product.ID); err != nil {
		return "", fmt.Errorf("CreateProduct.%w", err)
	}
	log.Logger(ctx).Info("Added first image", zap.String("image", common.ImageID(product.ID, p.cfg.Image.Name)))

	p.publish(ctx, common.EventKindProduct, product.ID, common.EventCreated)
	return product.ID, nil
}

func (p *Provisioner) uploadImage(ctx context.Context, productID string) error {
	ic := p.cfg.Image
	image := common.Image{
		ID:        common.ImageID(productID, ic.Name),
		ProductID: productID,
		Name:      ic.Name,
		Acquired:  ic.Acquired,
		Overwrite: true,
	}
	if ic.Footprint != "" {
		footprint, err := service.LoadFootprint(ic.Footprint)
		if err != nil {
			return fmt.Errorf("uploadImage.%w", err)
		}
		image.Footprint = footprint
	}

	workdir := p.cfg.WorkDir
	if workdir == "" {
		workdir = os.TempDir()
	}
	sample, err := p.fetchSample(ctx, ic.Sample, workdir)
	if err != nil {
		return fmt.Errorf("uploadImage.FetchSample: %w", err)
	}
	file, err := os.Open(sample)
	if err != nil {
		return fmt.Errorf("uploadImage.Open: %w", err)
	}
	defer file.Close()

	job, err := p.catalog.UploadImage(ctx, image, file, service.ContentType(sample))
	if err != nil {
		return fmt.Errorf("uploadImage.%w", err)
	}
	if err := catalog.WaitForCompletion(ctx, job, p.cfg.PollInterval); err != nil {
		return fmt.Errorf("uploadImage.%w", err)
	}
	return nil
}

// CreateTable resets the table, then creates it with the schema of the variant.
// It returns the qualified id of the table.
func (p *Provisioner) CreateTable(ctx context.Context, id string, variant SchemaVariant) (string, error) {
	model, err := p.cfg.Model(variant)
	if err != nil {
		return "", fmt.Errorf("CreateTable.%w", err)
	}
	qid, err := p.ResetTable(ctx, id)
	if err != nil {
		return "", fmt.Errorf("CreateTable.%w", err)
	}
	ctx = log.With(ctx, "table", qid)

	table, err := p.vector.CreateTable(ctx, common.Table{
		ID:    qid,
		Name:  p.cfg.TableNames[variant],
		Model: model,
	})
	if err != nil {
		return "", fmt.Errorf("CreateTable.%w", err)
	}
	log.Logger(ctx).Info("Created table", zap.String("schema", variant.String()))
	p.publish(ctx, common.EventKindTable, table.ID, common.EventCreated)
	return table.ID, nil
}

// publish notifies the event. Errors are logged.
func (p *Provisioner) publish(ctx context.Context, kind, id, action string) {
	if p.publisher == nil {
		return
	}
	data, err := json.Marshal(common.Event{Kind: kind, ID: id, Action: action})
	if err != nil {
		log.Logger(ctx).Warn("publish.Marshal", zap.Error(err))
		return
	}
	if err := p.publisher.Publish(ctx, data); err != nil {
		log.Logger(ctx).Warn("publish", zap.String("event", string(data)), zap.Error(err))
	}
}
