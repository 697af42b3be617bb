package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskProgress_ProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, TaskProgress{}.ProgressPercent())
	assert.Equal(t, 50.0, TaskProgress{Total: 4, Processed: 2}.ProgressPercent())
	assert.Equal(t, 33.3, TaskProgress{Total: 3, Processed: 1}.ProgressPercent())
	assert.Equal(t, 66.7, TaskProgress{Total: 3, Processed: 2}.ProgressPercent())
}

func TestTaskProgress_ViewCapsErrors(t *testing.T) {
	task := TaskProgress{TaskID: "abc12345"}
	for i := 0; i < 15; i++ {
		task.Errors = append(task.Errors, fmt.Sprintf("err %d", i))
	}

	view := task.View()
	assert.Len(t, view.Errors, MaxExposedTaskErrors)
	assert.Equal(t, "err 0", view.Errors[0])
	assert.Equal(t, 15, view.ErrorCount)
	assert.Len(t, task.Errors, 15)

	view.Errors[0] = "changed"
	assert.Equal(t, "err 0", task.Errors[0])
}

func TestTaskStatus_Rank(t *testing.T) {
	assert.Less(t, TaskStatusPending.Rank(), TaskStatusRunning.Rank())
	assert.Less(t, TaskStatusRunning.Rank(), TaskStatusCompleted.Rank())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.False(t, TaskStatusRunning.IsTerminal())
}

func TestBookmark_Clone(t *testing.T) {
	b := &Bookmark{ID: "1", Category: StringPtr("dev"), Tags: []string{"go"}}
	c := b.Clone()
	*c.Category = "other"
	c.Tags[0] = "rust"

	assert.Equal(t, "dev", b.CategoryName())
	assert.Equal(t, "go", b.Tags[0])
	assert.Equal(t, "", (&Bookmark{}).DescriptionText())
}

func TestWebDAVConfig(t *testing.T) {
	cfg := WebDAVConfig{URL: "https://dav", Username: "u", Password: "secret", Path: "/a/b/"}
	assert.True(t, cfg.IsComplete())
	assert.Equal(t, "a/b/", cfg.NormalizedPath())
	assert.Equal(t, MaskedSecret, cfg.Masked().Password)
	assert.Equal(t, "secret", cfg.Password)
	assert.False(t, WebDAVConfig{URL: "x"}.IsComplete())
}

func TestAISettings_Masked(t *testing.T) {
	assert.Equal(t, MaskedSecret+"wxyz", AISettings{APIKey: "sk-abcdwxyz"}.Masked().APIKey)
	assert.Equal(t, MaskedSecret, AISettings{APIKey: "abc"}.Masked().APIKey)
	assert.Equal(t, "", AISettings{}.Masked().APIKey)
}
