package auth

import (
	"errors"
	"testing"

	"github.com/bosves/bosves-api/internal/infrastructure/config"
)

func TestClients_Authenticate(t *testing.T) {
	hash, err := HashSecret("s3cret")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}

	clients := NewClients([]config.ClientConfig{
		{ID: "weighbridge-2", SecretHash: hash, Role: config.RoleOperator},
		{ID: "report-job", SecretHash: hash, Role: config.RoleReader},
		{ID: "broken", SecretHash: "not-a-hash", Role: config.RoleReader},
	})
	if clients.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", clients.Len())
	}

	p, err := clients.Authenticate("weighbridge-2", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if p.Subject != "weighbridge-2" || p.Role != RoleOperator {
		t.Errorf("principal = %+v", p)
	}

	p, err = clients.Authenticate("report-job", "s3cret")
	if err != nil || p.Role != RoleReader {
		t.Errorf("Authenticate(report-job) = %+v, %v", p, err)
	}

	if _, err := clients.Authenticate("weighbridge-2", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong secret error = %v", err)
	}
	if _, err := clients.Authenticate("nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown client error = %v", err)
	}
	if _, err := clients.Authenticate("", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty id error = %v", err)
	}

	_, err = clients.Authenticate("broken", "s3cret")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("corrupt hash error = %v, want a configuration error", err)
	}
}
