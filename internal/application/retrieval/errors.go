package retrieval

import "errors"

var (
	// ErrVectorDisabled 向量检索/索引能力未配置（Milvus 或 Embedder 不可用）
	ErrVectorDisabled = errors.New("vector retrieval is disabled")

	// ErrOwnerRequired 检索必须限定 owner
	ErrOwnerRequired = errors.New("owner id is required for retrieval")
)
