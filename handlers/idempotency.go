package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdempotencyKeyHeader carries the client chosen key that makes a POST
// replayable-safe.
const IdempotencyKeyHeader = "Idempotency-Key"

type IdempotencyStoreType int

const (
	IdempotencyStoreTypeLocal IdempotencyStoreType = iota
	IdempotencyStoreTypeShared
	IdempotencyStoreTypeRedis
)

func (ist IdempotencyStoreType) String() string {
	return [...]string{"local", "shared", "redis"}[ist]
}

type IdempotencyHandlerOptions struct {
	IgnorePaths []string
	Expiry      time.Duration
}

// IdempotencyStore remembers which keys have been used. Get reports
// whether a key is still live, Set marks it used until expiry.
type IdempotencyStore interface {
	Get(key string) (bool, error)
	Set(key string, expiry time.Duration) error
}

// IdempotencyStoreLocal keeps keys in process memory. Single node
// deployments and tests use this one.
type IdempotencyStoreLocal struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

func NewIdempotencyStoreLocal() *IdempotencyStoreLocal {
	return &IdempotencyStoreLocal{keys: make(map[string]time.Time)}
}

func (s *IdempotencyStoreLocal) Get(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.keys[key]
	if !ok {
		return false, nil
	}

	if time.Now().After(deadline) {
		// Lazily drop expired keys, there is no background sweeper.
		delete(s.keys, key)
		return false, nil
	}

	return true, nil
}

func (s *IdempotencyStoreLocal) Set(key string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key] = time.Now().Add(expiry)
	return nil
}

// IdempotencyStoreGorm keeps keys in the shell database so they survive
// restarts.
type IdempotencyStoreGorm struct {
	db *gorm.DB
}

type IdempotencyStoreGormItem struct {
	Key        string    `gorm:"column:key;primary_key"`
	ExpiryDate time.Time `gorm:"column:expiry_date"`
}

func (IdempotencyStoreGormItem) TableName() string {
	return "idempotency_keys"
}

func NewIdempotencyStoreGorm(db *gorm.DB) *IdempotencyStoreGorm {
	return &IdempotencyStoreGorm{db: db}
}

func (s *IdempotencyStoreGorm) Get(key string) (bool, error) {
	var item IdempotencyStoreGormItem
	err := s.db.First(&item, "key = ? and expiry_date > ?", key, time.Now()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *IdempotencyStoreGorm) Set(key string, expiry time.Duration) error {
	item := IdempotencyStoreGormItem{
		Key:        key,
		ExpiryDate: time.Now().Add(expiry),
	}

	// A re-used key past its expiry gets a fresh expiry date instead of
	// a primary key violation.
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"expiry_date"}),
	}).Create(&item).Error
}

// Prune deletes every expired key row.
func (s *IdempotencyStoreGorm) Prune() error {
	return s.db.Delete(IdempotencyStoreGormItem{}, "expiry_date < ?", time.Now()).Error
}

// IdempotencyStoreRedis keeps keys in redis, expiry is delegated to
// PSETEX.
type IdempotencyStoreRedis struct {
	conn      redis.Conn
	keyPrefix string
}

func NewIdempotencyStoreRedis(c redis.Conn) *IdempotencyStoreRedis {
	return &IdempotencyStoreRedis{conn: c, keyPrefix: "idempotencykey"}
}

func (s *IdempotencyStoreRedis) Get(key string) (bool, error) {
	return redis.Bool(s.conn.Do("EXISTS", s.keyPrefix+":"+key))
}

func (s *IdempotencyStoreRedis) Set(key string, expiry time.Duration) error {
	res, err := s.conn.Do("PSETEX", s.keyPrefix+":"+key, int(expiry.Milliseconds()), 1)
	if err != nil {
		return err
	}
	if res != "OK" {
		return fmt.Errorf("unexpected reply while storing idempotency key: %v", res)
	}
	return nil
}

// IdempotencyHandler guards mutating requests against accidental
// replays: every POST outside the ignored paths must carry an
// Idempotency-Key header and each key is accepted once per expiry
// window. A replayed key gets a 409.
func IdempotencyHandler(h http.Handler, opts IdempotencyHandlerOptions, store IdempotencyStore) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || ignoredPath(opts.IgnorePaths, r.URL.Path) {
			h.ServeHTTP(rw, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			http.Error(rw, fmt.Sprintf("%s header not found", IdempotencyKeyHeader), http.StatusBadRequest)
			return
		}

		used, err := store.Get(key)
		if err != nil {
			log.WithFields(log.Fields{"error": err, "key": key}).
				Warn("Could not read idempotency key")
			http.Error(rw, "could not read idempotency key", http.StatusInternalServerError)
			return
		}

		if used {
			http.Error(rw, fmt.Sprintf("%s already used: %s", IdempotencyKeyHeader, key), http.StatusConflict)
			return
		}

		if err := store.Set(key, opts.Expiry); err != nil {
			log.WithFields(log.Fields{"error": err, "key": key}).
				Warn("Could not store idempotency key")
			http.Error(rw, "could not store idempotency key", http.StatusInternalServerError)
			return
		}

		h.ServeHTTP(rw, r)
	})
}

func ignoredPath(ignore []string, path string) bool {
	for _, prefix := range ignore {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
