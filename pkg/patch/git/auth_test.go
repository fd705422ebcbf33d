package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"latent-hq/callisto/pkg/config"
)

// TestTokenAuth_GetAuth tests token authentication.
func TestTokenAuth_GetAuth(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name:    "valid token",
			token:   "ghp_validtoken123",
			wantErr: false,
		},
		{
			name:    "empty token",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewTokenAuth(tt.token)

			if auth.Type() != "token" {
				t.Errorf("Type() = %v, want %v", auth.Type(), "token")
			}

			_, err := auth.GetAuth()
			if (err != nil) != tt.wantErr {
				t.Errorf("GetAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSSHAuth_GetAuth tests SSH key validation.
func TestSSHAuth_GetAuth(t *testing.T) {
	tmpDir := t.TempDir()

	validKeyPath := filepath.Join(tmpDir, "valid_key")
	if err := os.WriteFile(validKeyPath, []byte("dummy key content"), 0o600); err != nil {
		t.Fatal(err)
	}

	wrongPermsPath := filepath.Join(tmpDir, "wrong_perms_key")
	if err := os.WriteFile(wrongPermsPath, []byte("dummy key content"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		keyPath string
		wantErr bool
	}{
		{
			name:    "empty key path",
			keyPath: "",
			wantErr: true,
		},
		{
			name:    "non-existent key file",
			keyPath: "/nonexistent/key",
			wantErr: true,
		},
		{
			name:    "permissions too open",
			keyPath: wrongPermsPath,
			wantErr: true,
		},
		{
			name:    "readable file that is not a key",
			keyPath: validKeyPath,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewSSHAuth(tt.keyPath, "")

			if auth.Type() != "ssh" {
				t.Errorf("Type() = %v, want %v", auth.Type(), "ssh")
			}

			_, err := auth.GetAuth()
			if (err != nil) != tt.wantErr {
				t.Errorf("GetAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSSHAuth_FilePermissions tests the key permission gate.
func TestSSHAuth_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name        string
		permissions os.FileMode
		wantPermErr bool
	}{
		{
			name:        "0600 passes the gate",
			permissions: 0o600,
			wantPermErr: false,
		},
		{
			name:        "0400 passes the gate",
			permissions: 0o400,
			wantPermErr: false,
		},
		{
			name:        "0644 rejected",
			permissions: 0o644,
			wantPermErr: true,
		},
		{
			name:        "0666 rejected",
			permissions: 0o666,
			wantPermErr: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyPath := filepath.Join(tmpDir, "key_"+string(rune('a'+i)))
			if err := os.WriteFile(keyPath, []byte("dummy key"), tt.permissions); err != nil {
				t.Fatal(err)
			}

			auth := NewSSHAuth(keyPath, "")
			_, err := auth.GetAuth()

			// The dummy content always fails key parsing, so the
			// distinguishing signal is the permission message.
			if err == nil {
				t.Fatal("Expected an error for a dummy key")
			}
			gotPermErr := strings.Contains(err.Error(), "permissions too open")
			if gotPermErr != tt.wantPermErr {
				t.Errorf("GetAuth() error = %v, want permission error %v", err, tt.wantPermErr)
			}
		})
	}
}

// TestNoAuth_GetAuth tests anonymous access.
func TestNoAuth_GetAuth(t *testing.T) {
	auth := NewNoAuth()

	if auth.Type() != "none" {
		t.Errorf("Type() = %v, want %v", auth.Type(), "none")
	}

	method, err := auth.GetAuth()
	if err != nil {
		t.Errorf("GetAuth() error = %v, want nil", err)
	}
	if method != nil {
		t.Errorf("GetAuth() = %v, want nil", method)
	}
}

// TestNewAuthProvider tests the provider factory.
func TestNewAuthProvider(t *testing.T) {
	tmpDir := t.TempDir()
	validKeyPath := filepath.Join(tmpDir, "valid_key")
	if err := os.WriteFile(validKeyPath, []byte("dummy key"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		cfg      *config.GitAuthConfig
		wantType string
		wantErr  bool
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name: "token auth valid",
			cfg: &config.GitAuthConfig{
				Type:  "token",
				Token: "ghp_validtoken",
			},
			wantType: "token",
		},
		{
			name: "token auth missing token",
			cfg: &config.GitAuthConfig{
				Type: "token",
			},
			wantErr: true,
		},
		{
			name: "ssh auth valid",
			cfg: &config.GitAuthConfig{
				Type:       "ssh",
				SSHKeyPath: validKeyPath,
			},
			wantType: "ssh",
		},
		{
			name: "ssh auth missing key path",
			cfg: &config.GitAuthConfig{
				Type: "ssh",
			},
			wantErr: true,
		},
		{
			name: "no auth explicit",
			cfg: &config.GitAuthConfig{
				Type: "none",
			},
			wantType: "none",
		},
		{
			name:     "no auth implicit",
			cfg:      &config.GitAuthConfig{},
			wantType: "none",
		},
		{
			name: "unknown auth type",
			cfg: &config.GitAuthConfig{
				Type: "kerberos",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewAuthProvider(tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Errorf("NewAuthProvider() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil && provider.Type() != tt.wantType {
				t.Errorf("NewAuthProvider().Type() = %v, want %v", provider.Type(), tt.wantType)
			}
		})
	}
}

// TestAuthProvider_Interface tests that all auth types implement AuthProvider.
func TestAuthProvider_Interface(t *testing.T) {
	var _ AuthProvider = (*TokenAuth)(nil)
	var _ AuthProvider = (*SSHAuth)(nil)
	var _ AuthProvider = (*NoAuth)(nil)
}

// TestAuthProvider_ErrorMessages tests that factory errors name the
// missing field.
func TestAuthProvider_ErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.GitAuthConfig
		wantErrText string
	}{
		{
			name: "token missing",
			cfg: &config.GitAuthConfig{
				Type: "token",
			},
			wantErrText: "token auth requires non-empty token",
		},
		{
			name: "ssh key path missing",
			cfg: &config.GitAuthConfig{
				Type: "ssh",
			},
			wantErrText: "ssh auth requires ssh_key_path",
		},
		{
			name: "unknown type",
			cfg: &config.GitAuthConfig{
				Type: "invalid",
			},
			wantErrText: "unknown auth type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuthProvider(tt.cfg)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.HasPrefix(err.Error(), tt.wantErrText) {
				t.Errorf("error message = %v, want prefix %v", err.Error(), tt.wantErrText)
			}
		})
	}
}
