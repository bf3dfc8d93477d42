package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"

	"z-novel-assistant/internal/workflow/port"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 1}
	}
	return out, nil
}

// fakeVectors 以 owner 为键存放分片，Search 可选择性地泄漏其它 owner 的数据
type fakeVectors struct {
	mu        sync.Mutex
	byOwner   map[string][]*VectorSearchResult
	leak      bool
	searchErr error
	lastTopK  int
	inserted  []*VectorSegment
	deleted   []string
}

func (f *fakeVectors) EnsureCollection(context.Context) error { return nil }

func (f *fakeVectors) Search(_ context.Context, p *VectorSearchParams) ([]*VectorSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTopK = p.TopK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.leak {
		var all []*VectorSearchResult
		for _, rs := range f.byOwner {
			all = append(all, rs...)
		}
		return all, nil
	}
	return f.byOwner[p.OwnerID], nil
}

func (f *fakeVectors) DeleteByPage(_ context.Context, ownerID, pageID string) error {
	f.deleted = append(f.deleted, ownerID+"/"+pageID)
	return nil
}

func (f *fakeVectors) Insert(_ context.Context, _ string, segments []*VectorSegment) error {
	f.inserted = append(f.inserted, segments...)
	return nil
}

// scoringGenerator 根据 passage 中的关键字返回预设分数
type scoringGenerator struct {
	mu     sync.Mutex
	scores map[string]string
	fail   map[string]bool
	calls  int
}

func (g *scoringGenerator) Generate(_ context.Context, msgs []*schema.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	user := msgs[len(msgs)-1].Content
	for key, score := range g.scores {
		if strings.Contains(user, key) {
			if g.fail[key] {
				return "", errors.New("upstream 500")
			}
			return score, nil
		}
	}
	return "n/a", nil
}

func (g *scoringGenerator) Stream(context.Context, []*schema.Message) (port.TextStream, error) {
	return nil, errors.New("not supported")
}
