// Package cache keeps course definitions in Redis so catalog reads skip PostgreSQL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/pkg/metrics"
)

const (
	keyPrefix     = "coursepath:"
	catalogKey    = keyPrefix + "courses:all"
	generationKey = keyPrefix + "courses:generation"
)

// Ticket is the invalidation generation seen on a miss. A Set carrying a
// ticket older than the current generation is dropped, so a slow reader
// cannot put back a definition an admin write has already invalidated.
type Ticket int64

// NoTicket is returned when the generation could not be read; Sets with it are skipped.
const NoTicket Ticket = -1

var errStaleTicket = errors.New("course cache generation moved")

// CourseKey returns the Redis key holding one course definition
func CourseKey(id string) string {
	return keyPrefix + "course:" + id
}

// CourseCache is a best-effort store for course definitions. Failures are
// reported as misses; the database stays the source of truth.
//
// Get methods return the ticket to hand to the matching Set after a miss.
type CourseCache interface {
	GetCourse(ctx context.Context, id string) (*models.Course, Ticket, bool)
	SetCourse(ctx context.Context, ticket Ticket, course *models.Course)
	GetCatalog(ctx context.Context) ([]*models.Course, Ticket, bool)
	SetCatalog(ctx context.Context, ticket Ticket, courses []*models.Course)
	// Invalidate drops the course entry and the catalog listing and moves the generation
	Invalidate(ctx context.Context, courseID string)
}

// NoopCourseCache is used when Redis is not configured
type NoopCourseCache struct{}

func (NoopCourseCache) GetCourse(context.Context, string) (*models.Course, Ticket, bool) {
	return nil, NoTicket, false
}

func (NoopCourseCache) SetCourse(context.Context, Ticket, *models.Course) {}

func (NoopCourseCache) GetCatalog(context.Context) ([]*models.Course, Ticket, bool) {
	return nil, NoTicket, false
}

func (NoopCourseCache) SetCatalog(context.Context, Ticket, []*models.Course) {}

func (NoopCourseCache) Invalidate(context.Context, string) {}

// Config holds the Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisClient opens a client and verifies the connection
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisCourseCache stores JSON-encoded courses with a TTL
type RedisCourseCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewRedisCourseCache creates a cache over an existing client
func NewRedisCourseCache(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *RedisCourseCache {
	return &RedisCourseCache{
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// GetCourse reads one course definition
func (c *RedisCourseCache) GetCourse(ctx context.Context, id string) (*models.Course, Ticket, bool) {
	var course models.Course
	ticket, ok := c.getJSON(ctx, CourseKey(id), &course)
	if !ok {
		return nil, ticket, false
	}
	return &course, ticket, true
}

// SetCourse stores one course definition without its enrolled students
func (c *RedisCourseCache) SetCourse(ctx context.Context, ticket Ticket, course *models.Course) {
	c.setJSON(ctx, ticket, CourseKey(course.ID), definitionOf(course))
}

// GetCatalog reads the cached catalog listing
func (c *RedisCourseCache) GetCatalog(ctx context.Context) ([]*models.Course, Ticket, bool) {
	var courses []*models.Course
	ticket, ok := c.getJSON(ctx, catalogKey, &courses)
	if !ok {
		return nil, ticket, false
	}
	return courses, ticket, true
}

// SetCatalog stores the catalog listing
func (c *RedisCourseCache) SetCatalog(ctx context.Context, ticket Ticket, courses []*models.Course) {
	definitions := make([]*models.Course, 0, len(courses))
	for _, course := range courses {
		definitions = append(definitions, definitionOf(course))
	}
	c.setJSON(ctx, ticket, catalogKey, definitions)
}

// Invalidate removes a course and the catalog listing
func (c *RedisCourseCache) Invalidate(ctx context.Context, courseID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, CourseKey(courseID), catalogKey)
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("courseID", courseID).Msg("Failed to invalidate course cache")
	}
}

// getJSON reads key and the generation in one round trip
func (c *RedisCourseCache) getJSON(ctx context.Context, key string, dest interface{}) (Ticket, bool) {
	values, err := c.client.MGet(ctx, key, generationKey).Result()
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Course cache read failed")
		c.metrics.RecordCacheLookup(false)
		return NoTicket, false
	}

	ticket, err := parseTicket(values[1])
	if err != nil {
		c.logger.Warn().Err(err).Msg("Unreadable course cache generation")
		ticket = NoTicket
	}

	raw, ok := values[0].(string)
	if !ok {
		c.metrics.RecordCacheLookup(false)
		return ticket, false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable course cache entry")
		_ = c.client.Del(ctx, key).Err()
		c.metrics.RecordCacheLookup(false)
		return ticket, false
	}
	c.metrics.RecordCacheLookup(true)
	return ticket, true
}

// setJSON writes key only while the generation still equals ticket
func (c *RedisCourseCache) setJSON(ctx context.Context, ticket Ticket, key string, value interface{}) {
	if ticket == NoTicket {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode course cache entry")
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		seen, err := parseTicket(current)
		if err != nil {
			return err
		}
		if seen != ticket {
			return errStaleTicket
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleTicket), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug().Str("key", key).Msg("Skipped course cache write after invalidation")
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("Course cache write failed")
	}
}

// parseTicket reads a generation value; a missing key is generation zero
func parseTicket(v interface{}) (Ticket, error) {
	switch raw := v.(type) {
	case nil:
		return 0, nil
	case string:
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return NoTicket, fmt.Errorf("bad generation %q: %w", raw, err)
		}
		return Ticket(n), nil
	default:
		return NoTicket, fmt.Errorf("unexpected generation type %T", v)
	}
}

// definitionOf copies a course without its derived membership
func definitionOf(course *models.Course) *models.Course {
	cp := *course
	cp.EnrolledStudents = nil
	return &cp
}
