package ports

// EncryptionService encrypts sensitive values (access tokens, webhook
// payloads) before they reach the store.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
