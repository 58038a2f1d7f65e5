package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/example/craftshop/internal/email"
	"github.com/example/craftshop/internal/infrastructure/kinesis"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/notification"
)

var (
	log      = logrus.New()
	notifier *notification.Handler
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := store.ConnectPostgres(connStr)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to PostgreSQL")
	}

	readStore := store.NewPostgresReadStore(db, log)
	gateway := notification.NewEmailGateway(email.NewService(email.Config{
		Host:         getEnv("SMTP_HOST", "localhost"),
		Port:         getEnv("SMTP_PORT", "1025"),
		From:         getEnv("SMTP_FROM", "orders@craftshop.example"),
		StaffAddress: os.Getenv("STAFF_ADDRESS"),
		Username:     os.Getenv("SMTP_USERNAME"),
		Password:     os.Getenv("SMTP_PASSWORD"),
	}))
	notifier = notification.NewHandler(gateway, readStore, log)
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	var failures []events.KinesisBatchItemFailure

	for _, record := range kinesisEvent.Records {
		event, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.WithError(err).WithField("record_id", record.EventID).Error("failed to convert record")
			failures = append(failures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}
		if event == nil {
			continue
		}

		payload, err := json.Marshal(event)
		if err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("failed to marshal event")
			failures = append(failures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
			continue
		}

		if err := notifier.HandleEvent(ctx, []byte(event.AggregateID), payload); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("failed to handle event")
			failures = append(failures, events.KinesisBatchItemFailure{
				ItemIdentifier: record.Kinesis.SequenceNumber,
			})
		}
	}

	log.WithFields(logrus.Fields{
		"records":  len(kinesisEvent.Records),
		"failures": len(failures),
	}).Info("batch processed")

	return events.KinesisEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
