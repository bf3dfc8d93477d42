package retrieval

import "context"

// VectorRepository 应用层对向量存储的最小依赖，由基础设施层实现（Milvus）
// 所有读写都按 owner 隔离
type VectorRepository interface {
	EnsureCollection(ctx context.Context) error
	Search(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	DeleteByPage(ctx context.Context, ownerID, pageID string) error
	Insert(ctx context.Context, ownerID string, segments []*VectorSegment) error
}

// VectorSearchParams 检索参数，OwnerID 必填
type VectorSearchParams struct {
	OwnerID     string
	QueryVector []float32
	TopK        int
}

// VectorSearchResult 检索命中
type VectorSearchResult struct {
	ID          string
	OwnerID     string
	BookID      string
	PageID      string
	TextContent string
	Distance    float32
}

// VectorSegment 待写入的页面分片
type VectorSegment struct {
	ID          string
	OwnerID     string
	BookID      string
	ChapterID   string
	PageID      string
	TextContent string
	Vector      []float32
}
