// vitalcore-seed registers a device row so ingestion has something to
// authenticate against. It is an operator tool, not a provisioning API:
// one invocation, one row, the generated secret printed once to stdout
// and never stored.
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/medhealth/vitalcore/internal/config"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/repository"
)

var (
	configFile  = flag.String("f", "etc/vitalcore.toml", "the config file")
	externalID  = flag.String("external-id", "", "device's externally-known identifier (generated if empty)")
	displayName = flag.String("display-name", "", "human-readable device name")
)

func main() {
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	store, err := repository.Open(c.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	id := *externalID
	if id == "" {
		id = "dev-" + uuid.NewString()[:8]
	}
	name := *displayName
	if name == "" {
		name = id
	}

	secret, fingerprint, err := generateSecret()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate secret: %v\n", err)
		os.Exit(1)
	}

	device := &model.Device{
		ID:                uuid.New(),
		ExternalID:        id,
		DisplayName:       name,
		SecretFingerprint: fingerprint,
	}
	if err := store.CreateDevice(context.Background(), device); err != nil {
		fmt.Fprintf(os.Stderr, "create device: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("device registered: external_id=%s\n", id)
	fmt.Printf("device secret (record this now, it will not be shown again): %s\n", secret)
	fmt.Println("signing requests still uses the process-wide device shared secret " +
		"configured in [device].shared_secret until a per-device lookup replaces it.")
}

// generateSecret returns a random per-device secret and its SHA-256 hex
// fingerprint for storage. The signature verifier does not read the
// fingerprint; it checks requests against the process-wide shared secret.
func generateSecret() (secret, fingerprint string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(secret))
	return secret, hex.EncodeToString(sum[:]), nil
}
