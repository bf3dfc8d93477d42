package milvus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-novel-assistant/internal/application/retrieval"
	"z-novel-assistant/pkg/metrics"
)

// Repository 页面分片的向量仓储
type Repository struct {
	client *Client
	dim    int

	ensureMu sync.Mutex
	ensured  bool
}

var _ retrieval.VectorRepository = (*Repository)(nil)

// NewRepository dim 与 embedding 维度一致
func NewRepository(client *Client, dim int) *Repository {
	return &Repository{client: client, dim: dim}
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return retrieval.ErrVectorDisabled
	}
	return nil
}

func (r *Repository) collection() string {
	return r.client.CollectionName(CollectionPageSegments)
}

// EnsureCollection 集合不存在时创建并建立 HNSW 索引，随后加载；不做破坏性操作
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	r.ensureMu.Lock()
	defer r.ensureMu.Unlock()
	if r.ensured {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection")
	defer span.End()

	name := r.collection()
	exists, err := r.client.milvus.HasCollection(ctx, name)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		if err := r.client.milvus.CreateCollection(ctx, PageSegmentsSchema(name, r.dim), entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, r.client.config.HNSWM, r.client.config.HNSWEfConstruct)
		if err != nil {
			return fmt.Errorf("failed to build index params: %w", err)
		}
		if err := r.client.milvus.CreateIndex(ctx, name, fieldVector, idx, false); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	if err := r.client.milvus.LoadCollection(ctx, name, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load collection: %w", err)
	}
	r.ensured = true
	return nil
}

// Search 只在 owner 分区内检索，并附加 owner 过滤条件
func (r *Repository) Search(ctx context.Context, params *retrieval.VectorSearchParams) (out []*retrieval.VectorSearchResult, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if params == nil || params.OwnerID == "" {
		return nil, retrieval.ErrOwnerRequired
	}

	name := r.collection()
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", name),
			attribute.Int("top_k", params.TopK),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		metrics.MilvusSearchDuration.WithLabelValues(CollectionPageSegments).Observe(time.Since(start).Seconds())
		metrics.MilvusSearchTotal.WithLabelValues(CollectionPageSegments, status).Inc()
	}()

	partition := PartitionName(params.OwnerID)
	has, err := r.client.milvus.HasPartition(ctx, name, partition)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		return []*retrieval.VectorSearchResult{}, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(r.client.config.SearchEf)
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		name,
		[]string{partition},
		ownerFilter(params.OwnerID),
		outputFields,
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		fieldVector,
		entity.COSINE,
		params.TopK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	for _, res := range results {
		for i := 0; i < res.ResultCount; i++ {
			out = append(out, &retrieval.VectorSearchResult{
				ID:          columnString(res.Fields, fieldID, i),
				OwnerID:     columnString(res.Fields, fieldOwnerID, i),
				BookID:      columnString(res.Fields, fieldBookID, i),
				PageID:      columnString(res.Fields, fieldPageID, i),
				TextContent: columnString(res.Fields, fieldText, i),
				Distance:    res.Scores[i],
			})
		}
	}
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// columnString 读取输出列的第 i 个值，缺列时返回空串
func columnString(cols interface{ GetColumn(string) entity.Column }, name string, i int) string {
	if c, ok := cols.GetColumn(name).(*entity.ColumnVarChar); ok && i < c.Len() {
		return c.Data()[i]
	}
	return ""
}

// DeleteByPage 删除页面的旧分片
func (r *Repository) DeleteByPage(ctx context.Context, ownerID, pageID string) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteByPage",
		trace.WithAttributes(attribute.String("page_id", pageID)))
	defer span.End()

	name := r.collection()
	partition := PartitionName(ownerID)
	has, err := r.client.milvus.HasPartition(ctx, name, partition)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		return nil
	}

	expr := ownerFilter(ownerID) + " && " + fieldPageID + " == " + quote(pageID)
	if err := r.client.milvus.Delete(ctx, name, partition, expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete segments: %w", err)
	}
	return nil
}

// Insert 写入 owner 分区，分区不存在时创建
func (r *Repository) Insert(ctx context.Context, ownerID string, segments []*retrieval.VectorSegment) error {
	if err := r.ready(); err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Insert",
		trace.WithAttributes(attribute.Int("count", len(segments))))
	defer span.End()

	name := r.collection()
	partition := PartitionName(ownerID)
	has, err := r.client.milvus.HasPartition(ctx, name, partition)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check partition: %w", err)
	}
	if !has {
		if err := r.client.milvus.CreatePartition(ctx, name, partition); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create partition: %w", err)
		}
	}

	n := len(segments)
	ids := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	owners := make([]string, 0, n)
	books := make([]string, 0, n)
	chapters := make([]string, 0, n)
	pages := make([]string, 0, n)
	texts := make([]string, 0, n)
	for _, s := range segments {
		if s == nil {
			continue
		}
		if s.OwnerID != ownerID {
			return errors.New("segment owner does not match partition owner")
		}
		if len(s.Vector) != r.dim {
			return fmt.Errorf("segment vector has dim %d, want %d", len(s.Vector), r.dim)
		}
		ids = append(ids, s.ID)
		vectors = append(vectors, s.Vector)
		owners = append(owners, s.OwnerID)
		books = append(books, s.BookID)
		chapters = append(chapters, s.ChapterID)
		pages = append(pages, s.PageID)
		texts = append(texts, s.TextContent)
	}

	_, err = r.client.milvus.Insert(ctx, name, partition,
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldVector, r.dim, vectors),
		entity.NewColumnVarChar(fieldOwnerID, owners),
		entity.NewColumnVarChar(fieldBookID, books),
		entity.NewColumnVarChar(fieldChapter, chapters),
		entity.NewColumnVarChar(fieldPageID, pages),
		entity.NewColumnVarChar(fieldText, texts),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert segments: %w", err)
	}
	return nil
}
