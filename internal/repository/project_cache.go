package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brandguard/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// generationTTL must outlive any single read-through.
const generationTTL = 24 * time.Hour

// cachedProjectRepo is a read-through Redis cache in front of a
// ProjectRepository. Every analysis reads the project, so lookups by id are
// cached and invalidated on update or delete. Invalidation bumps a per-project
// generation, and a read-through only fills the cache if the generation it saw
// before loading is still current, so a slow read cannot restore a stale row.
type cachedProjectRepo struct {
	ProjectRepository
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewCachedProjectRepo wraps next with a Redis cache.
func NewCachedProjectRepo(next ProjectRepository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) ProjectRepository {
	return &cachedProjectRepo{
		ProjectRepository: next,
		client:            client,
		ttl:               ttl,
		prefix:            "project:",
		logger:            logger.With().Str("component", "ProjectCache").Logger(),
	}
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// projectEntry keeps the fields the public JSON form of a project omits.
type projectEntry struct {
	model.Project
	LogoKey string `json:"logo_key"`
}

func (c *cachedProjectRepo) key(id string) string {
	return c.prefix + id
}

func (c *cachedProjectRepo) generationKey(id string) string {
	return c.prefix + "gen:" + id
}

func (c *cachedProjectRepo) generation(ctx context.Context, cmd redis.Cmdable, id string) (int64, error) {
	gen, err := cmd.Get(ctx, c.generationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *cachedProjectRepo) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var entry projectEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			p := entry.Project
			p.LogoKey = entry.LogoKey
			return &p, nil
		}
		c.logger.Warn().Str("project_id", id).Msg("Discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Str("project_id", id).Msg("Project cache read failed")
	}

	gen, genErr := c.generation(ctx, c.client, id)
	p, err := c.ProjectRepository.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.store(ctx, p, gen)
	}
	return p, nil
}

func (c *cachedProjectRepo) UpdateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	updated, err := c.ProjectRepository.UpdateProject(ctx, p)
	c.invalidate(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *cachedProjectRepo) DeleteProject(ctx context.Context, id string) error {
	err := c.ProjectRepository.DeleteProject(ctx, id)
	c.invalidate(ctx, id)
	return err
}

var errStaleRead = errors.New("project changed during read")

// store caches p unless the project was invalidated since generation seen was read.
func (c *cachedProjectRepo) store(ctx context.Context, p *model.Project, seen int64) {
	data, err := json.Marshal(projectEntry{Project: *p, LogoKey: p.LogoKey})
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		gen, err := c.generation(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if gen != seen {
			return errStaleRead
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(p.ID), data, c.ttl)
			return nil
		})
		return err
	}, c.generationKey(p.ID))
	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Str("project_id", p.ID).Msg("Skipping cache fill for a project updated mid-read")
	default:
		c.logger.Warn().Err(err).Str("project_id", p.ID).Msg("Project cache write failed")
	}
}

func (c *cachedProjectRepo) invalidate(ctx context.Context, id string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(id))
		pipe.Expire(ctx, c.generationKey(id), generationTTL)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		c.logger.Error().Err(err).Str("project_id", id).Msg("Project cache invalidation failed")
	}
}
