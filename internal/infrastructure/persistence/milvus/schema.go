package milvus

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionPageSegments 页面正文分片集合
	CollectionPageSegments = "page_segments"

	fieldID      = "id"
	fieldVector  = "vector"
	fieldOwnerID = "owner_id"
	fieldBookID  = "book_id"
	fieldChapter = "chapter_id"
	fieldPageID  = "page_id"
	fieldText    = "text_content"
)

var outputFields = []string{fieldID, fieldOwnerID, fieldBookID, fieldPageID, fieldText}

var partitionUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// PageSegmentsSchema 页面分片 Collection Schema
func PageSegmentsSchema(name string, dim int) *entity.Schema {
	varchar := func(n, maxLen string) *entity.Field {
		return &entity.Field{
			Name:       n,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": maxLen},
		}
	}

	id := varchar(fieldID, "64")
	id.PrimaryKey = true

	return &entity.Schema{
		CollectionName: name,
		Description:    "Chapter page segments for owner-scoped retrieval",
		Fields: []*entity.Field{
			id,
			{
				Name:       fieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dim)},
			},
			varchar(fieldOwnerID, "128"),
			varchar(fieldBookID, "64"),
			varchar(fieldChapter, "64"),
			varchar(fieldPageID, "64"),
			varchar(fieldText, "65535"),
		},
	}
}

// PartitionName owner 分区名，非法字符替换为下划线；隔离以 owner_id 过滤条件为准
func PartitionName(ownerID string) string {
	return "owner_" + partitionUnsafe.ReplaceAllString(ownerID, "_")
}

// quote 生成 Milvus 表达式中的字符串字面量
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// ownerFilter 所有读写都带上的 owner 条件
func ownerFilter(ownerID string) string {
	return fieldOwnerID + " == " + quote(ownerID)
}
