package api

import (
	"context"
	"errors"
	"sync"

	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
)

var errNoModelStore = errors.New("no model store configured")

type cachedModel struct {
	clf      classifier.Classifier
	artifact *classifier.Artifact
}

// modelCache keeps the loaded classifier of each variant. Classifiers are
// read-only after loading and shared by concurrent requests.
type modelCache struct {
	store storage.ModelStore

	mu     sync.RWMutex
	models map[pipeline.Variant]cachedModel
}

func newModelCache(store storage.ModelStore) *modelCache {
	return &modelCache{store: store, models: make(map[pipeline.Variant]cachedModel)}
}

func (c *modelCache) get(ctx context.Context, v pipeline.Variant) (cachedModel, error) {
	c.mu.RLock()
	m, ok := c.models[v]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	if c.store == nil {
		return cachedModel{}, storage.ErrModelNotFound
	}
	clf, artifact, err := c.store.Load(ctx, string(v))
	if err != nil {
		return cachedModel{}, err
	}

	m = cachedModel{clf: clf, artifact: artifact}
	c.mu.Lock()
	c.models[v] = m
	c.mu.Unlock()
	return m, nil
}

func (c *modelCache) save(ctx context.Context, v pipeline.Variant, clf classifier.Classifier) (*classifier.Artifact, error) {
	if c.store == nil {
		return nil, errNoModelStore
	}
	artifact, err := c.store.Save(ctx, string(v), clf)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.models[v] = cachedModel{clf: clf, artifact: artifact}
	c.mu.Unlock()
	return artifact, nil
}
