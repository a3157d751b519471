package auth

import (
	"fmt"
	"sync"

	"github.com/bosves/bosves-api/internal/infrastructure/config"
)

// Clients authenticates machine clients (weighbridge terminals, reporting
// jobs) configured under security.clients.
type Clients struct {
	byID map[string]config.ClientConfig

	dummyOnce sync.Once
	dummyHash string
}

// NewClients indexes the configured clients by ID.
func NewClients(clients []config.ClientConfig) *Clients {
	byID := make(map[string]config.ClientConfig, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	return &Clients{byID: byID}
}

// Authenticate verifies a client ID and secret and returns the principal.
// Unknown IDs still cost one hash verification so response time does not
// reveal which IDs exist.
func (c *Clients) Authenticate(id, secret string) (Principal, error) {
	client, ok := c.byID[id]
	if !ok || id == "" {
		c.burnVerification(secret)
		return Principal{}, ErrInvalidCredentials
	}

	match, err := VerifySecret(secret, client.SecretHash)
	if err != nil {
		return Principal{}, fmt.Errorf("verifying secret for client %q: %w", id, err)
	}
	if !match {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{Subject: client.ID, Role: Role(client.Role)}, nil
}

// Len returns the number of configured clients.
func (c *Clients) Len() int {
	return len(c.byID)
}

func (c *Clients) burnVerification(secret string) {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = HashSecret("bosves-dummy-secret") //nolint:errcheck // failure leaves an empty hash which VerifySecret rejects
	})
	_, _ = VerifySecret(secret, c.dummyHash) //nolint:errcheck // result discarded on purpose
}
