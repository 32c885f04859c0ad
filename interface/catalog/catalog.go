package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
)

// ErrDependentObjects is returned when deleting a product that still has bands or images
var ErrDependentObjects = errors.New("product has dependent bands or images")

// Service is the interface of a remote catalog of imagery products
type Service interface {
	// GetProduct returns the product with the given id
	// Raise service.ErrNotFound
	GetProduct(ctx context.Context, id string) (common.Product, error)
	// SaveProduct creates the product
	// Raise service.ErrAlreadyExists
	SaveProduct(ctx context.Context, product common.Product) (common.Product, error)
	// DeleteProduct deletes the product. The product must not have any band or image.
	// Raise service.ErrNotFound
	DeleteProduct(ctx context.Context, id string) error
	// DeleteRelatedObjects starts the deletion of all the bands and images of the product
	// Returns nil if there is nothing to delete
	DeleteRelatedObjects(ctx context.Context, productID string) (Job, error)

	// SaveBand creates the band
	SaveBand(ctx context.Context, band common.Band) (common.Band, error)
	// Bands returns the bands of the product
	Bands(ctx context.Context, productID string) ([]common.Band, error)

	// UploadImage creates the image and starts the upload of its file.
	// The image is usable when the returned Job succeeds.
	UploadImage(ctx context.Context, image common.Image, file io.Reader, contentType string) (Job, error)
	// Images returns the images of the product
	Images(ctx context.Context, productID string) ([]common.Image, error)
}

// Job is a remote asynchronous operation
type Job interface {
	// Kind of job (e.g. upload, delete)
	Kind() string
	ID() string
	// Status fetches the current status of the job
	Status(ctx context.Context) (common.Job, error)
}

// DefaultPollInterval between two status requests in WaitForCompletion
const DefaultPollInterval = time.Second

// WaitForCompletion polls the job until it terminates.
// There is no timeout: it blocks until the job terminates or the context is done.
// Returns service.ErrJobFailed if the job fails.
func WaitForCompletion(ctx context.Context, job Job, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for {
		status, err := job.Status(ctx)
		if err != nil {
			return fmt.Errorf("WaitForCompletion[%s %s]: %w", job.Kind(), job.ID(), err)
		}
		log.Logger(ctx).Sugar().Debugf("%s job %s: %s", job.Kind(), job.ID(), status.Status)
		switch status.Status {
		case common.JobStatusSUCCEEDED:
			return nil
		case common.JobStatusFAILED:
			return service.ErrJobFailed{Kind: job.Kind(), ID: job.ID(), Messages: status.Errors}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
