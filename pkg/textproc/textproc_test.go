package textproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
		{"collapses runs", "你好  \n\n世界\t!", "你好 世界 !"},
		{"trims", "  hello world  ", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "  ", nil},
		{"no terminator", "只有一句话", []string{"只有一句话"}},
		{"chinese terminators", "第一句。第二句！第三句？", []string{"第一句。", "第二句！", "第三句？"}},
		{"mixed with tail", "Hello world. 然后呢？ tail", []string{"Hello world.", "然后呢？", "tail"}},
		{"repeated terminators", "真的吗？！", []string{"真的吗？", "！"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitParagraphs(tt.in))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c_d_e_f_g_h_i_j", SanitizeFilename(`a\b/c:d*e?f"g<h>i|j`))
	assert.Equal(t, "正常标题", SanitizeFilename("正常标题"))
	assert.Equal(t, "x_y", SanitizeFilename("x|y"))
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	c := filepath.Join(dir, "c.wav")
	require.NoError(t, os.WriteFile(a, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("other bytes"), 0o644))

	ha, err := HashFile(a)
	require.NoError(t, err)
	again, err := HashFile(a)
	require.NoError(t, err)
	hb, err := HashFile(b)
	require.NoError(t, err)
	hc, err := HashFile(c)
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, again)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, ha, hc)
	assert.Equal(t, HashString("same bytes"), ha)

	_, err = HashFile(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)
}
