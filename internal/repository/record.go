package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/reflexduel-backend/internal/entity"
)

var ErrRecordNotFound = errors.New("match record not found")

const recordIndexKey = "matches"

// MatchRecordRepository persists finished-match records. It satisfies the
// engine's Recorder sink.
type MatchRecordRepository interface {
	SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	GetRecent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error)
}

type dbMatchRecord struct {
	client *redis.Client
}

func NewMatchRecordRepository(client *redis.Client) MatchRecordRepository {
	return &dbMatchRecord{
		client: client,
	}
}

func (that *dbMatchRecord) SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match record: %w", err)
	}

	recordKey := "match:" + record.ID
	if err = that.client.Set(ctx, recordKey, recordJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match record: %w", err)
	}

	if err = that.client.LPush(ctx, recordIndexKey, record.ID).Err(); err != nil {
		return fmt.Errorf("failed to index match record: %w", err)
	}

	return nil
}

func (that *dbMatchRecord) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	recordKey := "match:" + id

	response, err := that.client.Get(ctx, recordKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match record: %w", err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
	}

	return &record, nil
}

// GetRecent returns up to limit records, newest first.
func (that *dbMatchRecord) GetRecent(ctx context.Context, limit int64) ([]*entity.MatchRecord, error) {
	ids, err := that.client.LRange(ctx, recordIndexKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(ids))
	for _, id := range ids {
		record, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}
