package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// scheduleKey is the sorted set holding pending job handles scored by
	// their fire time.
	scheduleKey = "expiry:schedule"

	// payloadKeyPrefix namespaces the per-job payload keys.
	// Keys are formatted as "expiry:job:{jobID}".
	payloadKeyPrefix = "expiry:job:"
)

// payload is what a job handle resolves to when it fires.
type payload struct {
	GuildID uint64 `json:"guildId"`
	CaseID  int64  `json:"caseId"`
}

// Job is a pending firing returned by Due.
type Job struct {
	ID      string
	FireAt  time.Time
	GuildID uint64
	CaseID  int64
}

// Client is a deferred-execution backend on Redis sorted sets. Handles are
// opaque UUIDs; the schedule is scored by unix fire time so due jobs are a
// single range query. State here is derived from case rows and is safe to
// rebuild from them.
type Client struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewClient creates a job backend on the given Redis client.
func NewClient(client rueidis.Client, logger *zap.Logger) *Client {
	return &Client{
		client: client,
		logger: logger.Named("jobs"),
	}
}

// ScheduleAt registers a firing at the given time and returns its handle.
func (c *Client) ScheduleAt(ctx context.Context, fireAt time.Time, guildID uint64, caseID int64) (string, error) {
	jobID := uuid.NewString()

	if err := c.put(ctx, jobID, fireAt, guildID, caseID); err != nil {
		return "", err
	}

	c.logger.Debug("Scheduled job",
		zap.String("jobID", jobID),
		zap.Time("fireAt", fireAt),
		zap.Uint64("guildID", guildID),
		zap.Int64("caseID", caseID))

	return jobID, nil
}

// RescheduleOrReplace moves an existing job to a new fire time, keeping its
// handle. The payload is rewritten as well, so a handle whose payload already
// expired is revived rather than rejected.
func (c *Client) RescheduleOrReplace(
	ctx context.Context, jobID string, fireAt time.Time, guildID uint64, caseID int64,
) (string, error) {
	if err := c.put(ctx, jobID, fireAt, guildID, caseID); err != nil {
		return "", err
	}

	c.logger.Debug("Rescheduled job",
		zap.String("jobID", jobID),
		zap.Time("fireAt", fireAt))

	return jobID, nil
}

// Cancel removes a pending job. Returns false without error when the job
// already fired or never existed.
func (c *Client) Cancel(ctx context.Context, jobID string) (bool, error) {
	removed, err := c.client.Do(ctx,
		c.client.B().Zrem().Key(scheduleKey).Member(jobID).Build(),
	).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	if err := c.client.Do(ctx,
		c.client.B().Del().Key(payloadKeyPrefix+jobID).Build(),
	).Error(); err != nil {
		return false, fmt.Errorf("failed to drop job payload %s: %w", jobID, err)
	}

	return removed > 0, nil
}

// Due returns up to limit jobs whose fire time has passed, oldest first.
// Jobs whose payload key is missing are dropped from the schedule.
func (c *Client) Due(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	members, err := c.client.Do(ctx,
		c.client.B().Zrangebyscore().Key(scheduleKey).
			Min("-inf").Max(strconv.FormatInt(now.Unix(), 10)).
			Limit(0, int64(limit)).Build(),
	).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to query due jobs: %w", err)
	}

	jobs := make([]Job, 0, len(members))

	for _, jobID := range members {
		raw, err := c.client.Do(ctx,
			c.client.B().Get().Key(payloadKeyPrefix + jobID).Build(),
		).ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				// Orphaned handle without payload; drop it from the schedule.
				if _, err := c.Cancel(ctx, jobID); err != nil {
					c.logger.Warn("Failed to drop orphaned job", zap.String("jobID", jobID), zap.Error(err))
				}

				continue
			}

			return nil, fmt.Errorf("failed to load payload for job %s: %w", jobID, err)
		}

		var p payload
		if err := sonic.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode payload for job %s: %w", jobID, err)
		}

		score, err := c.client.Do(ctx,
			c.client.B().Zscore().Key(scheduleKey).Member(jobID).Build(),
		).AsFloat64()
		if err != nil {
			return nil, fmt.Errorf("failed to read fire time for job %s: %w", jobID, err)
		}

		jobs = append(jobs, Job{
			ID:      jobID,
			FireAt:  time.Unix(int64(score), 0).UTC(),
			GuildID: p.GuildID,
			CaseID:  p.CaseID,
		})
	}

	return jobs, nil
}

// removeScript drops a job only when its fire time still matches the one the
// caller observed. The compare and the removal run atomically so a reschedule
// landing between them cannot be deleted by a stale worker.
var removeScript = rueidis.NewLuaScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) ~= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
return 1
`)

// Remove drops a job after it has been dispatched. Firing happens before
// removal, which is what gives the backend its at-least-once delivery.
// firedAt is the fire time the caller pulled from Due; when a concurrent
// reschedule moved the job since then, the entry is left in place so the new
// fire time is honored, and Remove reports false.
func (c *Client) Remove(ctx context.Context, jobID string, firedAt time.Time) (bool, error) {
	removed, err := removeScript.Exec(ctx, c.client,
		[]string{scheduleKey, payloadKeyPrefix + jobID},
		[]string{jobID, strconv.FormatInt(firedAt.Unix(), 10)},
	).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to remove fired job %s: %w", jobID, err)
	}

	return removed > 0, nil
}

func (c *Client) put(ctx context.Context, jobID string, fireAt time.Time, guildID uint64, caseID int64) error {
	raw, err := sonic.Marshal(payload{GuildID: guildID, CaseID: caseID})
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}

	if err := c.client.Do(ctx,
		c.client.B().Set().Key(payloadKeyPrefix+jobID).Value(string(raw)).Build(),
	).Error(); err != nil {
		return fmt.Errorf("failed to store job payload: %w", err)
	}

	if err := c.client.Do(ctx,
		c.client.B().Zadd().Key(scheduleKey).ScoreMember().
			ScoreMember(float64(fireAt.Unix()), jobID).Build(),
	).Error(); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	return nil
}
