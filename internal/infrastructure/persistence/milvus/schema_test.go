package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionName(t *testing.T) {
	tests := []struct {
		owner string
		want  string
	}{
		{"user42", "owner_user42"},
		{"auth0|abc-def", "owner_auth0_abc_def"},
		{"a.b@c", "owner_a_b_c"},
	}
	for _, tt := range tests {
		t.Run(tt.owner, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionName(tt.owner))
		})
	}
}

func TestOwnerFilterEscapes(t *testing.T) {
	assert.Equal(t, `owner_id == "u1"`, ownerFilter("u1"))
	assert.Equal(t, `owner_id == "x\" || owner_id != \"y"`, ownerFilter(`x" || owner_id != "y`))
	assert.Equal(t, `"a\\b"`, quote(`a\b`))
}

func TestPageSegmentsSchema(t *testing.T) {
	s := PageSegmentsSchema("z_novel_page_segments", 1536)
	require.Len(t, s.Fields, 7)
	assert.True(t, s.Fields[0].PrimaryKey)
	assert.Equal(t, "1536", s.Fields[1].TypeParams["dim"])
	assert.Equal(t, "z_novel_page_segments", s.CollectionName)
}
