package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/google/uuid"
)

// Op is an operation of the catalog, used to inject faults and count calls
type Op string

// Operations
const (
	OpGetProduct           Op = "GetProduct"
	OpSaveProduct          Op = "SaveProduct"
	OpDeleteProduct        Op = "DeleteProduct"
	OpDeleteRelatedObjects Op = "DeleteRelatedObjects"
	OpSaveBand             Op = "SaveBand"
	OpUploadImage          Op = "UploadImage"
	OpJobStatus            Op = "JobStatus"
)

const (
	jobKindUpload = "upload"
	jobKindDelete = "delete"
)

type image struct {
	common.Image
	Data []byte
}

type job struct {
	common.Job
	kind      string
	productID string
	polls     int
	pending   *image // upload: image waiting for its data
	received  bool
	failure   string
}

// Catalog is an in-memory implementation of catalog.Service
type Catalog struct {
	// PollsToComplete is the number of status requests before a job terminates
	PollsToComplete int

	mu          sync.Mutex
	products    map[string]common.Product
	bands       map[string]common.Band
	images      map[string]image
	jobs        map[string]*job
	faults      map[Op]error
	calls       map[Op]int
	uploadError string
}

// New creates an empty in-memory catalog
func New() *Catalog {
	return &Catalog{
		PollsToComplete: 1,
		products:        map[string]common.Product{},
		bands:           map[string]common.Band{},
		images:          map[string]image{},
		jobs:            map[string]*job{},
		faults:          map[Op]error{},
		calls:           map[Op]int{},
	}
}

// SetFault makes the next calls to op fail with err (nil to remove the fault)
func (c *Catalog) SetFault(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.faults, op)
	} else {
		c.faults[op] = err
	}
}

// FailUploads makes the upload jobs terminate with the FAILED status and the given message ("" to reset)
func (c *Catalog) FailUploads(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploadError = msg
}

// Calls returns the number of calls to op
func (c *Catalog) Calls(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Jobs returns the number of registered jobs, terminated or not
func (c *Catalog) Jobs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

// call must be called with the lock held
func (c *Catalog) call(op Op) error {
	c.calls[op]++
	return c.faults[op]
}

// GetProduct implements catalog.Service
func (c *Catalog) GetProduct(ctx context.Context, id string) (common.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpGetProduct); err != nil {
		return common.Product{}, err
	}
	p, ok := c.products[id]
	if !ok {
		return common.Product{}, service.ErrNotFound{Type: "product", ID: id}
	}
	return p, nil
}

// SaveProduct implements catalog.Service
func (c *Catalog) SaveProduct(ctx context.Context, product common.Product) (common.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpSaveProduct); err != nil {
		return common.Product{}, err
	}
	if product.ID == "" {
		return common.Product{}, fmt.Errorf("SaveProduct: missing id")
	}
	if _, ok := c.products[product.ID]; ok {
		return common.Product{}, service.ErrAlreadyExists{Type: "product", ID: product.ID}
	}
	product.Tags = append([]string{}, product.Tags...)
	c.products[product.ID] = product
	return product, nil
}

// DeleteProduct implements catalog.Service
func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpDeleteProduct); err != nil {
		return err
	}
	if _, ok := c.products[id]; !ok {
		return service.ErrNotFound{Type: "product", ID: id}
	}
	if len(c.bandsOf(id)) > 0 || len(c.imagesOf(id)) > 0 {
		return fmt.Errorf("DeleteProduct[%s]: %w", id, catalog.ErrDependentObjects)
	}
	delete(c.products, id)
	return nil
}

// DeleteRelatedObjects implements catalog.Service
func (c *Catalog) DeleteRelatedObjects(ctx context.Context, productID string) (catalog.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpDeleteRelatedObjects); err != nil {
		return nil, err
	}
	if _, ok := c.products[productID]; !ok {
		return nil, service.ErrNotFound{Type: "product", ID: productID}
	}
	if len(c.bandsOf(productID)) == 0 && len(c.imagesOf(productID)) == 0 {
		return nil, nil
	}
	j := c.newJob(jobKindDelete, productID)
	return &memJob{catalog: c, kind: jobKindDelete, id: j.ID}, nil
}

// SaveBand implements catalog.Service
func (c *Catalog) SaveBand(ctx context.Context, band common.Band) (common.Band, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpSaveBand); err != nil {
		return common.Band{}, err
	}
	if _, ok := c.products[band.ProductID]; !ok {
		return common.Band{}, service.ErrNotFound{Type: "product", ID: band.ProductID}
	}
	if band.ID == "" {
		band.ID = common.BandID(band.ProductID, band.Name)
	}
	if _, ok := c.bands[band.ID]; ok {
		return common.Band{}, service.ErrAlreadyExists{Type: "band", ID: band.ID}
	}
	c.bands[band.ID] = band
	return band, nil
}

// Bands implements catalog.Service
func (c *Catalog) Bands(ctx context.Context, productID string) ([]common.Band, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bandsOf(productID), nil
}

// Images implements catalog.Service
func (c *Catalog) Images(ctx context.Context, productID string) ([]common.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	images := c.imagesOf(productID)
	res := make([]common.Image, len(images))
	for i, img := range images {
		res[i] = img.Image
	}
	return res, nil
}

// ImageData returns the uploaded file of the image
func (c *Catalog) ImageData(imageID string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[imageID]
	return img.Data, ok
}

// UploadImage implements catalog.Service
func (c *Catalog) UploadImage(ctx context.Context, img common.Image, file io.Reader, contentType string) (catalog.Job, error) {
	jobID, err := c.StartUpload(img)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		c.mu.Lock()
		delete(c.jobs, jobID)
		c.mu.Unlock()
		return nil, fmt.Errorf("UploadImage.ReadAll: %w", err)
	}
	if err := c.ReceiveUpload(jobID, data); err != nil {
		return nil, err
	}
	return &memJob{catalog: c, kind: jobKindUpload, id: jobID}, nil
}

// StartUpload registers a new upload of the image and returns the id of the upload job.
// The job waits for the file (see ReceiveUpload).
func (c *Catalog) StartUpload(img common.Image) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpUploadImage); err != nil {
		return "", err
	}
	if _, ok := c.products[img.ProductID]; !ok {
		return "", service.ErrNotFound{Type: "product", ID: img.ProductID}
	}
	if img.Name == "" {
		return "", fmt.Errorf("StartUpload: missing image name")
	}
	if img.ID == "" {
		img.ID = common.ImageID(img.ProductID, img.Name)
	}
	if _, ok := c.images[img.ID]; ok && !img.Overwrite {
		return "", service.ErrAlreadyExists{Type: "image", ID: img.ID}
	}
	j := c.newJob(jobKindUpload, img.ProductID)
	j.pending = &image{Image: img}
	j.failure = c.uploadError
	return j.ID, nil
}

// ReceiveUpload attaches the file to the upload job
func (c *Catalog) ReceiveUpload(jobID string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[jobID]
	if !ok || j.kind != jobKindUpload {
		return service.ErrNotFound{Type: "upload", ID: jobID}
	}
	if j.received {
		return service.ErrAlreadyExists{Type: "upload", ID: jobID}
	}
	j.pending.Data = data
	j.received = true
	return nil
}

// JobStatus returns the status of the job, making it progress
func (c *Catalog) JobStatus(jobID string) (common.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call(OpJobStatus); err != nil {
		return common.Job{}, err
	}
	j, ok := c.jobs[jobID]
	if !ok {
		return common.Job{}, service.ErrNotFound{Type: "job", ID: jobID}
	}
	c.progress(j)
	return j.Job, nil
}

// progress must be called with the lock held
func (c *Catalog) progress(j *job) {
	if j.Status.Terminal() {
		return
	}
	if j.kind == jobKindUpload && !j.received {
		return
	}
	j.polls++
	if j.polls < c.PollsToComplete {
		j.Status = common.JobStatusRUNNING
		return
	}
	if j.failure != "" {
		j.Status = common.JobStatusFAILED
		j.Errors = []string{j.failure}
		return
	}
	switch j.kind {
	case jobKindDelete:
		for _, b := range c.bandsOf(j.productID) {
			delete(c.bands, b.ID)
		}
		for _, img := range c.imagesOf(j.productID) {
			delete(c.images, img.ID)
		}
	case jobKindUpload:
		if _, ok := c.products[j.productID]; !ok {
			j.Status = common.JobStatusFAILED
			j.Errors = []string{fmt.Sprintf("product %s has been deleted", j.productID)}
			return
		}
		c.images[j.pending.ID] = *j.pending
	}
	j.Status = common.JobStatusSUCCEEDED
}

func (c *Catalog) newJob(kind, productID string) *job {
	j := &job{
		Job:       common.Job{ID: uuid.New().String(), Status: common.JobStatusPENDING},
		kind:      kind,
		productID: productID,
	}
	c.jobs[j.ID] = j
	return j
}

func (c *Catalog) bandsOf(productID string) []common.Band {
	var bands []common.Band
	for _, b := range c.bands {
		if b.ProductID == productID {
			bands = append(bands, b)
		}
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].BandIndex < bands[j].BandIndex })
	return bands
}

func (c *Catalog) imagesOf(productID string) []image {
	var images []image
	for _, img := range c.images {
		if img.ProductID == productID {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })
	return images
}

// memJob implements catalog.Job
type memJob struct {
	catalog *Catalog
	kind    string
	id      string
}

func (j *memJob) Kind() string { return j.kind }
func (j *memJob) ID() string   { return j.id }

func (j *memJob) Status(ctx context.Context) (common.Job, error) {
	return j.catalog.JobStatus(j.id)
}
