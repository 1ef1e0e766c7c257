// handlers/document_handler.go
package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"campusflow/models"
	"campusflow/utils"
)

const maxUploadBytes = 25 << 20 // 25 MiB

// storedDocument is the catalog entry for an uploaded file. The hash is
// the public handle; the storage key stays internal.
type storedDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Hash       string             `bson:"hash" json:"hash"`
	Filename   string             `bson:"filename" json:"filename"`
	Size       int64              `bson:"size" json:"size"`
	URL        string             `bson:"url" json:"url"`
	StorageKey string             `bson:"storageKey" json:"-"`
	UploadedBy string             `bson:"uploadedBy" json:"uploadedBy"`
	UploadedAt time.Time          `bson:"uploadedAt" json:"uploadedAt"`
}

// UploadDocument accepts a multipart file, streams it into object
// storage and catalogs it under its content hash.
func UploadDocument(w http.ResponseWriter, r *http.Request) {
	who, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if documentStore == nil {
		utils.RespondWithDomainError(w, models.ErrDependencyUnavailable("document store is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondWithDomainError(w, models.ErrValidation("invalid multipart upload: "+err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondWithDomainError(w, models.ErrValidation("a 'file' form field is required"))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	doc, storageKey, err := documentStore.Upload(ctx, header.Filename, file, header.Size)
	if err != nil {
		log.Printf("UploadDocument - upload error: %v", err)
		utils.RespondWithDomainError(w, err)
		return
	}

	entry := storedDocument{
		ID:         primitive.NewObjectID(),
		Hash:       doc.Hash,
		Filename:   doc.Filename,
		Size:       doc.Size,
		URL:        doc.URL,
		StorageKey: storageKey,
		UploadedBy: who.Email,
		UploadedAt: time.Now().UTC(),
	}
	if _, err := documentCollection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// identical content already cataloged; the handle is reusable
			utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
				"document": doc,
				"success":  true,
			})
			return
		}
		log.Printf("UploadDocument - catalog insert error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to catalog document")
		return
	}

	writeAudit(r, who, "document_upload", "document", entry.ID, bson.M{
		"hash":     doc.Hash,
		"filename": doc.Filename,
		"size":     doc.Size,
	})
	log.Printf("Document %s uploaded by %s (%d bytes)", doc.Hash, who.Email, doc.Size)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"document": doc,
		"success":  true,
	})
}

// GetDocument streams a stored document by its content hash.
func GetDocument(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if documentStore == nil {
		utils.RespondWithDomainError(w, models.ErrDependencyUnavailable("document store is not configured"))
		return
	}

	hash := mux.Vars(r)["hash"]
	if hash == "" {
		utils.RespondWithDomainError(w, models.ErrValidation("document hash is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var entry storedDocument
	err := documentCollection.FindOne(ctx, bson.M{"hash": hash}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithDomainError(w, models.ErrNotFound("document not found"))
			return
		}
		log.Printf("GetDocument - lookup error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to look up document")
		return
	}

	reader, err := documentStore.Download(ctx, entry.StorageKey)
	if err != nil {
		log.Printf("GetDocument - download error: %v", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+entry.Filename+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("GetDocument - stream error: %v", err)
	}
}

// GetDocumentMeta returns the catalog entry without the file body.
func GetDocumentMeta(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	hash := mux.Vars(r)["hash"]
	if hash == "" {
		utils.RespondWithDomainError(w, models.ErrValidation("document hash is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var entry storedDocument
	err := documentCollection.FindOne(ctx, bson.M{"hash": hash}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithDomainError(w, models.ErrNotFound("document not found"))
			return
		}
		log.Printf("GetDocumentMeta - lookup error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to look up document")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"document": entry,
		"success":  true,
	})
}
