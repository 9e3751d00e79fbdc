package connectors

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/mongopad/mongopad/core/logger"
	"github.com/mongopad/mongopad/core/shared/errors"
)

// DefaultDatabase is used when the connection string carries no database name
const DefaultDatabase = "test"

// MongoDBConnector owns the live MongoDB client scripts execute against.
// It is created once at server startup and passed by reference into the
// engine; there is no lazy singleton.
type MongoDBConnector struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBConnector opens and pings a MongoDB connection
func NewMongoDBConnector(connectionString string) (*MongoDBConnector, error) {
	log := logger.New("connector:mongodb")
	log.Debugf("Opening MongoDB connection")

	dbName, err := databaseFromURI(connectionString)
	if err != nil {
		return nil, errors.WrapError(errors.ErrCodeConfiguration,
			"invalid MongoDB connection string", err)
	}

	opts := mongoOptions.Client().ApplyURI(connectionString)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.WrapError(errors.ErrCodeConnectionFailed,
			"failed to connect to mongodb", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Debugf("Testing connection with ping")
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.WrapError(errors.ErrCodeConnectionFailed,
			"failed to ping mongodb", err)
	}

	log.Debugf("MongoDB connection opened successfully, default database '%s'", dbName)
	return &MongoDBConnector{client: client, dbName: dbName}, nil
}

// Client returns the underlying driver client
func (m *MongoDBConnector) Client() *mongo.Client {
	return m.client
}

// DefaultDatabaseName returns the logical database the connection string
// selects, or "test" when it selects none
func (m *MongoDBConnector) DefaultDatabaseName() string {
	return m.dbName
}

// Close closes the MongoDB connection
func (m *MongoDBConnector) Close() error {
	if m.client != nil {
		log := logger.New("connector:mongodb")
		log.Debugf("Closing MongoDB connection")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := m.client.Disconnect(ctx)
		if err == nil {
			log.Debugf("MongoDB connection closed")
		}
		return err
	}
	return nil
}

func databaseFromURI(connectionString string) (string, error) {
	if !strings.HasPrefix(connectionString, "mongodb://") && !strings.HasPrefix(connectionString, "mongodb+srv://") {
		return "", fmt.Errorf("connection string must start with mongodb:// or mongodb+srv://")
	}
	parsedURL, err := url.Parse(connectionString)
	if err != nil {
		return "", fmt.Errorf("failed to parse mongodb connection string: %w", err)
	}
	name := strings.TrimPrefix(parsedURL.Path, "/")
	if name == "" {
		return DefaultDatabase, nil
	}
	return name, nil
}
