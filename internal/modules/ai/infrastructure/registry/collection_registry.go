package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"VectorOps/internal/modules/ai/domain/entity"
	"VectorOps/internal/modules/ai/domain/repository"
	"VectorOps/pkg/zlog"

	"github.com/cloudwego/eino/components/embedding"
	"go.uber.org/zap"
)

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,62}$`)

type state int

const (
	stateNew state = iota
	stateReady
	stateClosed
)

// Registry 集合注册表：每个名字在生命周期内最多构造一个 Collection。
// 首次访问会打开（或创建）底层集合，同名并发访问由名字粒度的锁串行化；构造失败不缓存。
type Registry struct {
	engine      repository.VectorEngine
	embedder    embedding.Embedder
	defaultName string

	mu      sync.Mutex
	state   state
	handles map[string]*Collection
	locks   map[string]*sync.Mutex
}

func New(engine repository.VectorEngine, embedder embedding.Embedder, defaultName string) (*Registry, error) {
	if engine == nil {
		return nil, errors.New("vector engine is nil")
	}
	if embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	defaultName = strings.TrimSpace(defaultName)
	if !collectionNamePattern.MatchString(defaultName) {
		return nil, fmt.Errorf("invalid default collection name %q", defaultName)
	}
	return &Registry{
		engine:      engine,
		embedder:    embedder,
		defaultName: defaultName,
		handles:     make(map[string]*Collection),
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

// Init 标记注册表可用；集合仍然按需创建
func (r *Registry) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateClosed:
		return entity.ErrRegistryClosed
	case stateReady:
		return nil
	}
	r.state = stateReady
	zlog.Info("collection registry ready",
		zap.String("engine", r.engine.Name()),
		zap.String("default_collection", r.defaultName),
	)
	return nil
}

// Shutdown 关闭底层引擎，之后所有 GetOrCreate 返回 ErrRegistryClosed
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.state == stateClosed {
		r.mu.Unlock()
		return nil
	}
	r.state = stateClosed
	n := len(r.handles)
	r.handles = make(map[string]*Collection)
	r.mu.Unlock()

	zlog.Info("collection registry shutting down", zap.Int("collections", n))
	return r.engine.Close()
}

// Resolve 空名字使用默认集合，并校验名字格式
func (r *Registry) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.defaultName, nil
	}
	if !collectionNamePattern.MatchString(name) {
		return "", entity.Invalid("collection name %q must match %s", name, collectionNamePattern.String())
	}
	return name, nil
}

func (r *Registry) DefaultName() string { return r.defaultName }

func (r *Registry) EngineName() string { return r.engine.Name() }

// GetOrCreate 返回名字对应的唯一 Collection
func (r *Registry) GetOrCreate(ctx context.Context, name string) (*Collection, error) {
	name, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if err := r.usableLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if h, ok := r.handles[name]; ok {
		r.mu.Unlock()
		return h, nil
	}
	lock := r.locks[name]
	if lock == nil {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	r.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	// 等锁期间可能已经被其他请求创建
	r.mu.Lock()
	if err := r.usableLocked(); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	if h, ok := r.handles[name]; ok {
		r.mu.Unlock()
		return h, nil
	}
	r.mu.Unlock()

	coll, err := r.engine.Open(ctx, name)
	if err != nil {
		zlog.Error("open collection failed", zap.String("collection", name), zap.Error(err))
		return nil, fmt.Errorf("%w: collection %q: %w", entity.ErrCollectionInit, name, err)
	}
	h := &Collection{name: name, coll: coll, embedder: r.embedder}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.usableLocked(); err != nil {
		return nil, err
	}
	r.handles[name] = h
	zlog.Info("collection opened", zap.String("collection", name), zap.String("engine", r.engine.Name()))
	return h, nil
}

func (r *Registry) usableLocked() error {
	switch r.state {
	case stateNew:
		return fmt.Errorf("%w: registry not initialized", entity.ErrCollectionInit)
	case stateClosed:
		return entity.ErrRegistryClosed
	}
	return nil
}

// Names 当前进程已打开的集合，按名字排序
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.handles))
	for n := range r.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
