//go:build !integration

package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		client    *dynamodb.Client
		config    *Config
		wantTable string
		wantErr   bool
	}{
		{
			name:    "nil client returns validation error",
			client:  nil,
			config:  &Config{Table: "bff-cache"},
			wantErr: true,
		},
		{
			name:    "nil config returns validation error",
			client:  &dynamodb.Client{},
			config:  nil,
			wantErr: true,
		},
		{
			name:    "empty table returns validation error",
			client:  &dynamodb.Client{},
			config:  &Config{},
			wantErr: true,
		},
		{
			name:      "valid config",
			client:    &dynamodb.Client{},
			config:    &Config{Table: "bff-cache"},
			wantTable: "bff-cache",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, err := New(tt.client, tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, cache.ValidationError{}, err)
				assert.Nil(t, store)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTable, store.table)
		})
	}
}
