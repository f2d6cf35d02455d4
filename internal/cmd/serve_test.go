package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signrelay/signrelay/pkg/jobstore"
	"github.com/signrelay/signrelay/pkg/provider/rest"
)

func TestStoreHealthChecker(t *testing.T) {
	t.Run("nil store is unhealthy", func(t *testing.T) {
		checker := storeHealthChecker{}
		err := checker.CheckHealth(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("live store is healthy", func(t *testing.T) {
		store := jobstore.New(time.Hour)
		t.Cleanup(store.Close)

		checker := storeHealthChecker{store: store}
		assert.NoError(t, checker.CheckHealth(context.Background()))
	})
}

func TestProviderHealthChecker(t *testing.T) {
	tests := []struct {
		name    string
		cfg     rest.Config
		wantErr bool
	}{
		{
			name: "complete config",
			cfg: rest.Config{
				BaseURL:            "https://api.example-sign.com",
				APIKey:             "key",
				SignatureProfileID: "profile-1",
			},
			wantErr: false,
		},
		{
			name:    "missing everything",
			cfg:     rest.Config{},
			wantErr: true,
		},
		{
			name: "missing credential",
			cfg: rest.Config{
				BaseURL:            "https://api.example-sign.com",
				SignatureProfileID: "profile-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := providerHealthChecker{cfg: tt.cfg}
			err := checker.CheckHealth(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
