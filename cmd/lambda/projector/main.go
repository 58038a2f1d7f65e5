package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/example/craftshop/internal/infrastructure/kinesis"
	"github.com/example/craftshop/internal/infrastructure/store"
	"github.com/example/craftshop/internal/projection"
)

var (
	log       = logrus.New()
	projector *projection.Projector
)

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
	projector = projection.NewProjector(readStore, log)
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
		// MODIFY and REMOVE stream records carry no new domain event.
		if event == nil {
			continue
		}

		if err := projector.Apply(*event); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("failed to project event")
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
