// Package secrets loads deployment credentials from HashiCorp Vault's KV
// store and exports them as environment variables before configuration
// parsing. Disabled instances are a no-op so local development needs no
// Vault at all.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Vault reads one KV secret over Vault's HTTP API. Configure with VAULT_*
// environment variables; see VaultFromEnv.
type Vault struct {
	addr      string
	token     string
	namespace string
	mount     string
	path      string
	kvVersion int
	overwrite bool
	client    *http.Client
}

// VaultFromEnv builds a loader from VAULT_ADDR, VAULT_TOKEN, VAULT_PATH,
// VAULT_NAMESPACE, VAULT_MOUNT (default "secret"), VAULT_KV_VERSION
// (default 2), VAULT_TIMEOUT_MS and VAULT_OVERWRITE. Returns nil unless
// VAULT_ENABLED is "true".
func VaultFromEnv() *Vault {
	if !strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true") {
		return nil
	}

	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}

	kvVersion := 2
	if raw := os.Getenv("VAULT_KV_VERSION"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			kvVersion = parsed
		}
	}

	timeout := 5 * time.Second
	if raw := os.Getenv("VAULT_TIMEOUT_MS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return &Vault{
		addr:      strings.TrimRight(os.Getenv("VAULT_ADDR"), "/"),
		token:     os.Getenv("VAULT_TOKEN"),
		namespace: os.Getenv("VAULT_NAMESPACE"),
		mount:     strings.Trim(mount, "/"),
		path:      strings.Trim(os.Getenv("VAULT_PATH"), "/"),
		kvVersion: kvVersion,
		overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
		client:    &http.Client{Timeout: timeout},
	}
}

// ExportEnv fetches the secret and sets one environment variable per
// field. Variables that already have a value win unless VAULT_OVERWRITE
// is set. Returns how many variables were written.
func (v *Vault) ExportEnv(ctx context.Context) (int, error) {
	if v.addr == "" || v.token == "" || v.path == "" {
		return 0, errors.New("vault enabled but VAULT_ADDR, VAULT_TOKEN or VAULT_PATH is missing")
	}

	data, err := v.fetch(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for key, value := range data {
		if !v.overwrite && os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return loaded, fmt.Errorf("failed to set %s from vault: %w", key, err)
		}
		loaded++
	}
	return loaded, nil
}

func (v *Vault) fetch(ctx context.Context) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/v1/%s/data/%s", v.addr, v.mount, v.path)
	if v.kvVersion == 1 {
		url = fmt.Sprintf("%s/v1/%s/%s", v.addr, v.mount, v.path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", v.token)
	if v.namespace != "" {
		req.Header.Set("X-Vault-Namespace", v.namespace)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode vault response: %w", err)
	}

	// KV v2 nests the fields one level deeper than v1
	if v.kvVersion != 1 {
		var nested struct {
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(payload.Data, &nested); err != nil || nested.Data == nil {
			return nil, errors.New("vault response missing KV v2 data")
		}
		return nested.Data, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(payload.Data, &data); err != nil || data == nil {
		return nil, errors.New("vault response missing KV v1 data")
	}
	return data, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
