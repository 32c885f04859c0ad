package provisioner_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/airbusgeo/geocube-provisioner/common"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// MokePublisher implements messaging.Publisher
type MokePublisher struct {
	messages [][]byte
	err      error
}

// Publish implements messaging.Publisher
func (p *MokePublisher) Publish(ctx context.Context, data ...[]byte) (err error) {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, data...)
	return nil
}

// Events decodes the published messages
func (p *MokePublisher) Events() []common.Event {
	var events []common.Event
	for _, m := range p.messages {
		var e common.Event
		Expect(json.Unmarshal(m, &e)).To(Succeed())
		events = append(events, e)
	}
	return events
}

var errPublish = errors.New("topic not found")

func TestProvisioner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Provisioner Suite")
}
