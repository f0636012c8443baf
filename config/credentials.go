package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SecurityMethod defines the credential storage method
type SecurityMethod string

const (
	SecurityPlainText SecurityMethod = "plaintext"
	SecuritySSHKey    SecurityMethod = "ssh_key"
)

// OpenAICredential is the credential key for the OpenAI API key.
const OpenAICredential = "openai"

// CredentialStore keeps API credentials on disk, either in a 0600 TOML file
// or encrypted with a key derived from the user's SSH key.
type CredentialStore struct {
	method      SecurityMethod
	dataDir     string
	credentials map[string]string
	sshKeyPath  string
	passphrase  string
	encManager  *EncryptionManager
}

func NewCredentialStore(method SecurityMethod, sshKeyPath, dataDir string) *CredentialStore {
	if method == "" {
		method = SecurityPlainText
	}
	return &CredentialStore{
		method:      method,
		dataDir:     dataDir,
		credentials: make(map[string]string),
		sshKeyPath:  ExpandPath(sshKeyPath),
	}
}

// SetPassphrase sets the passphrase for decrypting the SSH key
func (c *CredentialStore) SetPassphrase(passphrase string) {
	c.passphrase = passphrase
	c.encManager = nil
}

// Load loads credentials from disk based on the configured security method
func (c *CredentialStore) Load() error {
	var (
		creds map[string]string
		err   error
	)

	switch c.method {
	case SecurityPlainText:
		creds, err = loadPlainText(c.dataDir)
	case SecuritySSHKey:
		creds, err = c.loadSSHEncrypted()
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
	if err != nil {
		return err
	}

	if creds == nil {
		creds = make(map[string]string)
	}
	c.credentials = creds
	return nil
}

// Save saves credentials to disk based on the configured security method
func (c *CredentialStore) Save() error {
	switch c.method {
	case SecurityPlainText:
		return savePlainText(c.dataDir, c.credentials)
	case SecuritySSHKey:
		return c.saveSSHEncrypted()
	default:
		return fmt.Errorf("unknown security method: %s", c.method)
	}
}

func (c *CredentialStore) Get(id string) string {
	return c.credentials[id]
}

func (c *CredentialStore) Set(id, value string) {
	c.credentials[id] = value
}

func (c *CredentialStore) Delete(id string) {
	delete(c.credentials, id)
}

// APIKey returns the stored OpenAI key, or "" if none has been saved.
func (c *CredentialStore) APIKey() string {
	return c.Get(OpenAICredential)
}

// SaveAPIKey stores the OpenAI key and writes the credential file.
func (c *CredentialStore) SaveAPIKey(key string) error {
	c.Set(OpenAICredential, key)
	if err := c.Save(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if Debug && DebugLog != nil {
		DebugLog.Printf("[CredentialStore] API key saved (method=%s)", c.method)
	}
	return nil
}

func (c *CredentialStore) GetMethod() SecurityMethod {
	return c.method
}

func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}

func encryptedCredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.enc")
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

func loadPlainText(dataDir string) (map[string]string, error) {
	path := credentialsPath(dataDir)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	var cf credentialsFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return cf.Credentials, nil
}

func savePlainText(dataDir string, creds map[string]string) error {
	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: creds}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	return nil
}

func (c *CredentialStore) encryption() (*EncryptionManager, error) {
	if c.encManager != nil {
		return c.encManager, nil
	}

	em := NewEncryptionManager(c.sshKeyPath, c.passphrase)
	if err := em.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	c.encManager = em
	return em, nil
}

func (c *CredentialStore) loadSSHEncrypted() (map[string]string, error) {
	path := encryptedCredentialsPath(c.dataDir)
	if !FileExists(path) {
		return make(map[string]string), nil
	}

	em, err := c.encryption()
	if err != nil {
		return nil, err
	}

	encryptedData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted credentials: %w", err)
	}

	decryptedData, err := em.Decrypt(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var creds map[string]string
	if err := json.Unmarshal(decryptedData, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credentials: %w", err)
	}

	return creds, nil
}

func (c *CredentialStore) saveSSHEncrypted() error {
	em, err := c.encryption()
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(c.credentials)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	encryptedData, err := em.Encrypt(jsonData)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(encryptedCredentialsPath(c.dataDir), encryptedData, 0600); err != nil {
		return fmt.Errorf("failed to write encrypted credentials: %w", err)
	}

	return nil
}
