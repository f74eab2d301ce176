package util

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Initialize env vars
func LoadEnvFor(v string) (x string) {
	err := godotenv.Load()

	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	x = os.Getenv(v)

	return
}

// MustLoadEnvFor is LoadEnvFor for configuration the service cannot run
// without. Missing storage, store or crypto config is a startup failure,
// never a per-request one.
func MustLoadEnvFor(v string) string {
	x := LoadEnvFor(v)
	if x == "" {
		log.Fatalf("required environment variable %s is not set", v)
	}
	return x
}

// Initialize db connection
func ConnectDB() (client *mongo.Client) {
	log.Println("starting MongoDB connection..")
	client, err := mongo.NewClient(options.Client().ApplyURI(MustLoadEnvFor("DATABASE_URL")))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// try to ping the database
	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("MongoDB connection successful")
	return
}

var (
	dbOnce   sync.Once
	dbClient *mongo.Client
)

// DB returns the shared client, connecting on first use so packages that
// never touch mongo (and their tests) don't require a live database.
func DB() *mongo.Client {
	dbOnce.Do(func() {
		dbClient = ConnectDB()
	})
	return dbClient
}

// GetCollection Get collection from Db
func GetCollection(client *mongo.Client, name string) (collection *mongo.Collection) {
	collection = client.Database("rentora").Collection(name)
	return
}

// Initialize redis connection
func ConnectRedis() *redis.Client {
	redisUrl := MustLoadEnvFor("REDIS_URL")
	log.Println("starting redis connection..")
	addr, err := redis.ParseURL(redisUrl)
	if err != nil {
		log.Fatal(err)
	}

	client := redis.NewClient(addr)

	log.Println("redis connection successful..")
	return client
}

var (
	redisOnce   sync.Once
	redisClient *redis.Client
)

// REDIS returns the shared client, connecting on first use.
func REDIS() *redis.Client {
	redisOnce.Do(func() {
		redisClient = ConnectRedis()
	})
	return redisClient
}
