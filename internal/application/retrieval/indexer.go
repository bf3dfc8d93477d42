package retrieval

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
)

const (
	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 16
)

// PageRef 被索引页面的定位信息；OwnerID 为书籍 owner，决定检索分区
type PageRef struct {
	OwnerID   string
	BookID    string
	ChapterID string
	PageID    string
	Title     string
}

// PreparedPage 已完成向量化、待写入的页面分片
type PreparedPage struct {
	Ref      PageRef
	Segments []*VectorSegment
}

// Indexer 页面正文切片、向量化与写入
type Indexer struct {
	embedder embedding.Embedder
	vector   VectorRepository

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

func NewIndexer(embedder embedding.Embedder, vectorRepo VectorRepository, embeddingBatchSize, chunkSizeRunes int) *Indexer {
	if embeddingBatchSize <= 0 {
		embeddingBatchSize = defaultEmbeddingBatch
	}
	if chunkSizeRunes <= 0 {
		chunkSizeRunes = defaultChunkSizeRunes
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vectorRepo,
		embeddingBatchSize: embeddingBatchSize,
		chunkSizeRunes:     chunkSizeRunes,
		chunkOverlapRunes:  min(defaultChunkOverlapRunes, chunkSizeRunes/4),
	}
}

// Enabled 索引能力是否可用
func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

// Prepare 切分纯文本并请求向量；能力未配置时返回 ErrVectorDisabled
func (i *Indexer) Prepare(ctx context.Context, ref PageRef, plainText string) (*PreparedPage, error) {
	if !i.Enabled() {
		return nil, ErrVectorDisabled
	}
	if strings.TrimSpace(ref.OwnerID) == "" || strings.TrimSpace(ref.PageID) == "" {
		return nil, errors.New("owner id and page id are required")
	}

	chunks := splitByRunes(plainText, i.chunkSizeRunes, i.chunkOverlapRunes)
	if len(chunks) == 0 {
		return &PreparedPage{Ref: ref}, nil
	}

	inputs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(ref.Title); t != "" {
			c = t + "\n" + c
		}
		inputs = append(inputs, c)
	}
	vectors, err := embedBatch(ctx, i.embedder, inputs, i.embeddingBatchSize)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, errors.New("embedding count mismatch")
	}

	meta := SegmentMeta{BookID: ref.BookID, ChapterID: ref.ChapterID, PageID: ref.PageID, PageTitle: ref.Title}
	segments := make([]*VectorSegment, 0, len(chunks))
	for n, c := range chunks {
		segments = append(segments, &VectorSegment{
			ID:          uuid.NewString(),
			OwnerID:     ref.OwnerID,
			BookID:      ref.BookID,
			ChapterID:   ref.ChapterID,
			PageID:      ref.PageID,
			TextContent: encodeSegmentText(meta, c),
			Vector:      vectors[n],
		})
	}
	return &PreparedPage{Ref: ref, Segments: segments}, nil
}

// Write 覆盖写入页面分片（先删除同页旧分片）
func (i *Indexer) Write(ctx context.Context, p *PreparedPage) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if p == nil {
		return nil
	}
	if err := i.vector.EnsureCollection(ctx); err != nil {
		return err
	}
	if err := i.vector.DeleteByPage(ctx, p.Ref.OwnerID, p.Ref.PageID); err != nil {
		return err
	}
	if len(p.Segments) == 0 {
		return nil
	}
	return i.vector.Insert(ctx, p.Ref.OwnerID, p.Segments)
}
