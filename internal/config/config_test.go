package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	keyPath := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(keyPath, []byte("{}"), 0o600))
	return &Config{
		FirebaseServiceAccountKeyPath: keyPath,
		FirebaseStorageBucket:         "creative-cure.appspot.com",
		DataStore:                     DriverFirestore,
		ChatStore:                     DriverFirestore,
		BlobDriver:                    BlobDriverFirebase,
		BookingSubmitTimeout:          10 * time.Second,
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig(t).Validate())
}

func TestValidate_RejectsUnknownDrivers(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataStore = "dynamo"
	assert.ErrorContains(t, cfg.Validate(), "DATA_STORE")

	cfg = validConfig(t)
	cfg.ChatStore = "kafka"
	assert.ErrorContains(t, cfg.Validate(), "CHAT_STORE")

	cfg = validConfig(t)
	cfg.BlobDriver = "s3"
	assert.ErrorContains(t, cfg.Validate(), "BLOB_DRIVER")
}

func TestValidate_SQLChatNeedsRelationalStore(t *testing.T) {
	cfg := validConfig(t)
	cfg.ChatStore = DriverSQL
	assert.Error(t, cfg.Validate())

	cfg.DataStore = DriverSQLite
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingFirebaseKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.FirebaseServiceAccountKeyPath = ""
	assert.ErrorContains(t, cfg.Validate(), "FIREBASE_SERVICE_ACCOUNT_KEY_PATH")

	cfg.FirebaseServiceAccountKeyPath = filepath.Join(t.TempDir(), "missing.json")
	assert.ErrorContains(t, cfg.Validate(), "not found")
}

func TestValidate_BlobDriverRequirements(t *testing.T) {
	cfg := validConfig(t)
	cfg.FirebaseStorageBucket = ""
	assert.ErrorContains(t, cfg.Validate(), "FIREBASE_STORAGE_BUCKET")

	cfg = validConfig(t)
	cfg.BlobDriver = BlobDriverMinio
	assert.ErrorContains(t, cfg.Validate(), "MINIO_ACCESS_KEY")
	cfg.MinioAccessKey, cfg.MinioSecretKey = "access", "secret"
	assert.NoError(t, cfg.Validate())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, splitList(" http://a.test, ,http://b.test "))
	assert.Nil(t, splitList(""))
}
