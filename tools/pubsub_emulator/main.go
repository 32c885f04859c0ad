package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func main() {
	ctx := context.Background()

	host := flag.String("host", "localhost:8085", "pubsub emulator host")
	projectID := flag.String("project", "geocube-emulator", "emulator project")
	topic := flag.String("topic", "provisioner-events", "topic of the provisioning events")
	subscription := flag.String("subscription", "provisioner-events", "subscription to the provisioning events")
	flag.Parse()

	os.Setenv("PUBSUB_EMULATOR_HOST", *host)

	log.Print("New client for project " + *projectID)
	client, err := pubsub.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("pubsub.NewClient: %v", err)
	}
	defer client.Close()

	log.Print("Create Topic : " + *topic)
	if _, err = client.CreateTopic(ctx, *topic); err != nil && status.Code(err) != codes.AlreadyExists {
		log.Fatalf("pubsub.CreateTopic: %v", err)
	}

	log.Print("Create Subscription : " + *subscription)
	if _, err = client.CreateSubscription(ctx, *subscription, pubsub.SubscriptionConfig{
		Topic:       client.Topic(*topic),
		AckDeadline: 10 * time.Second,
	}); err != nil && status.Code(err) != codes.AlreadyExists {
		log.Fatalf("CreateSubscription: %v", err)
	}

	log.Print("Done!")
}
