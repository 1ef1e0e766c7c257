// config/config.go
package config

import (
	"log"
	"os"
	"time"
)

var (
	Port          string
	MongoURI      string
	DatabaseName  string
	JWTKey        []byte
	JWTExpiration time.Duration

	// VoterAuthWindow is the lifetime of a voting authorization. It is a
	// deployment constant, not a per-call parameter, so the window stays
	// uniform across an election.
	VoterAuthWindow time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PublicBaseURL  string
)

func LoadConfig() {
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	MongoURI = os.Getenv("MONGO_URI")
	if MongoURI == "" {
		MongoURI = "mongodb://localhost:27017"
	}

	DatabaseName = os.Getenv("MONGO_DB")
	if DatabaseName == "" {
		DatabaseName = "campusflow"
	}

	JWTKey = []byte(os.Getenv("JWT_SECRET"))
	if len(JWTKey) == 0 {
		JWTKey = []byte("secret")
	}

	expireStr := os.Getenv("JWT_EXPIRE")
	dur := 24 * time.Hour
	if expireStr != "" {
		if expireStr == "7d" {
			dur = 7 * 24 * time.Hour
		} else {
			var err error
			dur, err = time.ParseDuration(expireStr)
			if err != nil {
				log.Printf("Invalid JWT_EXPIRE: %s, using 24h", expireStr)
				dur = 24 * time.Hour
			}
		}
	}
	JWTExpiration = dur

	VoterAuthWindow = 5 * time.Minute
	if windowStr := os.Getenv("VOTER_AUTH_WINDOW"); windowStr != "" {
		w, err := time.ParseDuration(windowStr)
		if err != nil || w <= 0 {
			log.Printf("Invalid VOTER_AUTH_WINDOW: %s, using 5m", windowStr)
		} else {
			VoterAuthWindow = w
		}
	}

	MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	if MinioEndpoint == "" {
		MinioEndpoint = "localhost:9000"
	}
	MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	if MinioAccessKey == "" {
		MinioAccessKey = "minioadmin"
	}
	MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	if MinioSecretKey == "" {
		MinioSecretKey = "minioadmin"
	}
	MinioBucket = os.Getenv("MINIO_BUCKET")
	if MinioBucket == "" {
		MinioBucket = "campusflow-documents"
	}
	MinioUseSSL = os.Getenv("MINIO_USE_SSL") == "true"

	PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	if PublicBaseURL == "" {
		PublicBaseURL = "http://localhost:" + Port
	}
}
