// Package cache provides the short-TTL read-through layer in front of the
// marketplace taxonomy. Snapshots are eventually consistent: a stale entry can
// produce one extra warning cycle and self-corrects on the next refresh.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-sync-service/internal/clients"
	"catalog-sync-service/internal/models"
)

// Cache TTL constants
const (
	CharacteristicsTTL = 10 * time.Minute // category characteristic rules
	DictionaryTTL      = 5 * time.Minute  // attribute value dictionaries
)

// DictionaryCache caches marketplace taxonomy pulls in Redis. A nil client
// degrades gracefully to pass-through reads.
type DictionaryCache struct {
	client *redis.Client
}

// NewDictionaryCache creates a new dictionary cache instance
func NewDictionaryCache(redisURL string) (*DictionaryCache, error) {
	if redisURL == "" {
		return &DictionaryCache{}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Degrade to no caching rather than failing startup
		return &DictionaryCache{}, nil
	}

	return &DictionaryCache{client: client}, nil
}

func characteristicsKey(mp models.MarketplaceType, categoryExternalID string) string {
	return fmt.Sprintf("catalog-sync:charcs:%s:%s", mp, categoryExternalID)
}

func dictionaryKey(mp models.MarketplaceType, dictionaryID, pattern string) string {
	return fmt.Sprintf("catalog-sync:dict:%s:%s:%s", mp, dictionaryID, pattern)
}

// GetCharacteristics returns cached characteristic rules, or nil on miss
func (c *DictionaryCache) GetCharacteristics(ctx context.Context, mp models.MarketplaceType, categoryExternalID string) ([]clients.AttributeRule, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, characteristicsKey(mp, categoryExternalID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rules []clients.AttributeRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SetCharacteristics caches characteristic rules for a category
func (c *DictionaryCache) SetCharacteristics(ctx context.Context, mp models.MarketplaceType, categoryExternalID string, rules []clients.AttributeRule) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, characteristicsKey(mp, categoryExternalID), data, CharacteristicsTTL).Err()
}

// GetDictionaryValues returns cached dictionary values, or nil on miss
func (c *DictionaryCache) GetDictionaryValues(ctx context.Context, mp models.MarketplaceType, dictionaryID, pattern string) ([]clients.DictionaryValue, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, dictionaryKey(mp, dictionaryID, pattern)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var values []clients.DictionaryValue
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// SetDictionaryValues caches one dictionary pull
func (c *DictionaryCache) SetDictionaryValues(ctx context.Context, mp models.MarketplaceType, dictionaryID, pattern string, values []clients.DictionaryValue) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dictionaryKey(mp, dictionaryID, pattern), data, DictionaryTTL).Err()
}

// Close releases the underlying client
func (c *DictionaryCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
