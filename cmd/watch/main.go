package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fleet-coordinator/internal/config"
	"fleet-coordinator/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Tails the database change streams and prints every mutation. Handy for
// verifying that dashboard updates correspond to actual writes.
func main() {
	collections := flag.String("collections", "users,companies,cars,trips,notifications", "comma-separated collections to watch")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	for _, name := range strings.Split(*collections, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		go watchCollection(ctx, db, name)
	}

	<-ctx.Done()
	log.Println("Watcher stopped")
}

func watchCollection(ctx context.Context, db *database.MongoDB, name string) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := db.Database.Collection(name).Watch(ctx, bson.A{}, opts)
	if err != nil {
		log.Printf("Cannot watch %s (change streams need a replica set): %v", name, err)
		return
	}
	defer stream.Close(ctx)

	log.Printf("Watching %s", name)

	for stream.Next(ctx) {
		var event struct {
			OperationType string `bson:"operationType"`
			DocumentKey   struct {
				ID interface{} `bson:"_id"`
			} `bson:"documentKey"`
		}
		if err := stream.Decode(&event); err != nil {
			log.Printf("%s: decode error: %v", name, err)
			continue
		}
		log.Printf("%s: %s %v", name, event.OperationType, event.DocumentKey.ID)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Printf("%s: stream error: %v", name, err)
	}
}
