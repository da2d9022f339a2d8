package dynamo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
)

// batchDeleteSize is the DynamoDB BatchWriteItem request limit.
const batchDeleteSize = 25

// Config defines the configuration options for the DynamoDB cache backend.
type Config struct {
	Table string
}

// Store implements the cache.Store interface using Amazon DynamoDB as the
// storage backend. The expires_at attribute doubles as a DynamoDB TTL
// attribute so expired items are also reaped server-side.
type Store struct {
	client *dynamodb.Client

	table string
	now   func() time.Time
}

type cacheItem struct {
	Key       string `dynamodbav:"cache_key"`
	Value     []byte `dynamodbav:"value"`
	CreatedAt int64  `dynamodbav:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// Get retrieves the value for a key. DynamoDB TTL deletion lags, so expiry
// is enforced here as well.
func (s *Store) Get(ctx context.Context, k string) ([]byte, error) {
	key, err := attributevalue.Marshal(k)
	if err != nil {
		return nil, err
	}

	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"cache_key": key,
		},
		ConsistentRead: aws.Bool(true),
		TableName:      aws.String(s.table),
	})
	if err != nil {
		return nil, errors.Join(cache.ErrUnavailable, err)
	}

	if output.Item == nil {
		return nil, cache.ErrNoItem
	}

	var item cacheItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, err
	}

	if s.now().UTC().Unix() >= item.ExpiresAt {
		return nil, cache.ErrNoItem
	}

	return item.Value, nil
}

// Set stores a value under key with the given TTL.
func (s *Store) Set(ctx context.Context, k string, value []byte, ttl time.Duration) error {
	createdAt := s.now().UTC()

	av, err := attributevalue.MarshalMap(cacheItem{
		Key:       k,
		Value:     value,
		CreatedAt: createdAt.Unix(),
		ExpiresAt: createdAt.Add(ttl).Unix(),
	})
	if err != nil {
		return err
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}

	return nil
}

// Delete removes a single key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, k string) error {
	key, err := attributevalue.Marshal(k)
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"cache_key": key,
		},
	}); err != nil {
		return errors.Join(cache.ErrUnavailable, err)
	}

	return nil
}

// DeletePattern removes every key matching the glob pattern. DynamoDB has
// no server-side glob, so the prefix before the first wildcard is matched
// with begins_with and the hits are deleted in batches.
func (s *Store) DeletePattern(ctx context.Context, pattern string) error {
	prefix := pattern
	if i := strings.IndexAny(pattern, "*?"); i >= 0 {
		prefix = pattern[:i]
	}

	prefixAV, err := attributevalue.Marshal(prefix)
	if err != nil {
		return err
	}

	var keys []string
	var startKey map[string]types.AttributeValue
	for {
		output, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.table),
			FilterExpression: aws.String("begins_with(cache_key, :prefix)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":prefix": prefixAV,
			},
			ProjectionExpression: aws.String("cache_key"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return errors.Join(cache.ErrUnavailable, err)
		}

		for _, item := range output.Items {
			var ci cacheItem
			if err := attributevalue.UnmarshalMap(item, &ci); err != nil {
				return err
			}
			keys = append(keys, ci.Key)
		}

		if output.LastEvaluatedKey == nil {
			break
		}
		startKey = output.LastEvaluatedKey
	}

	for start := 0; start < len(keys); start += batchDeleteSize {
		end := min(start+batchDeleteSize, len(keys))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			key, err := attributevalue.Marshal(k)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"cache_key": key,
					},
				},
			})
		}

		if _, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.table: requests,
			},
		}); err != nil {
			return errors.Join(cache.ErrUnavailable, err)
		}
	}

	return nil
}

// EnsureTable creates the cache table if it does not already exist and
// enables TTL on the expires_at attribute.
func EnsureTable(ctx context.Context, client *dynamodb.Client, table string) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("cache_key"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("cache_key"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return err
	}

	_, err = client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(table),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String("expires_at"),
			Enabled:       aws.Bool(true),
		},
	})
	return err
}

// New creates a DynamoDB cache store.
// Returns an error if the client is nil or the table name is empty.
func New(client *dynamodb.Client, config *Config) (*Store, error) {
	if client == nil {
		return nil, cache.ValidationError{
			Reason: "nil client",
		}
	}

	if config == nil || config.Table == "" {
		return nil, cache.ValidationError{
			Reason: "empty table name",
		}
	}

	return &Store{
		client: client,

		table: config.Table,
		now:   time.Now,
	}, nil
}
