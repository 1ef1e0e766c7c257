// handlers/collections.go
package handlers

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/blobstore"
	"campusflow/config"
	"campusflow/database"
)

var (
	userCollection        *mongo.Collection
	requestCollection     *mongo.Collection
	authCollection        *mongo.Collection
	voteCollection        *mongo.Collection
	candidatureCollection *mongo.Collection
	electionCollection    *mongo.Collection
	documentCollection    *mongo.Collection
	auditLogCollection    *mongo.Collection

	documentStore *blobstore.Store
)

func InitCollections() {
	db := database.Client.Database(config.DatabaseName)
	userCollection = db.Collection("users")
	requestCollection = db.Collection("requests")
	authCollection = db.Collection("voter_authorizations")
	voteCollection = db.Collection("votes")
	candidatureCollection = db.Collection("candidatures")
	electionCollection = db.Collection("election")
	documentCollection = db.Collection("documents")
	auditLogCollection = db.Collection("audit_logs")
}

// InitDocumentStore wires the blob store. A missing store is not fatal
// at boot; upload endpoints answer 503 until it comes back.
func InitDocumentStore(ctx context.Context) {
	store, err := blobstore.New()
	if err != nil {
		log.Printf("Document store unavailable: %v", err)
		return
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Printf("Document store bucket check failed: %v", err)
		return
	}
	documentStore = store
	log.Println("Document store ready")
}
