package blobstore_test

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	now := time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)
	p := blobstore.Path(blobstore.CategoryCaseFiles, "../etc/my file.pdf", now)

	re := regexp.MustCompile(`^case_files/2024/03/07/[0-9a-f-]{36}-my_file\.pdf$`)
	assert.Regexp(t, re, p)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"scan.PDF":           "scan.PDF",
		`C:\Users\x\a b.png`: "a_b.png",
		"":                   "file",
		"/":                  "file",
		"résumé.doc":         "r_sum_.doc",
	}
	for in, want := range tests {
		assert.Equal(t, want, blobstore.SanitizeFilename(in), "input %q", in)
	}
}

func TestMemoryStore_PutDelete(t *testing.T) {
	ctx := context.Background()
	s := blobstore.NewMemory()

	loc, err := s.Put(ctx, "bills/2024/01/01/x-bill.pdf", strings.NewReader("hello"), 5, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "mem://bills/2024/01/01/x-bill.pdf", loc)
	assert.True(t, s.Exists("bills/2024/01/01/x-bill.pdf"))

	f, err := s.Fs().Open("bills/2024/01/01/x-bill.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	_ = f.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, loc))
	assert.False(t, s.Exists("bills/2024/01/01/x-bill.pdf"))
	require.NoError(t, s.Delete(ctx, "bills/2024/01/01/x-bill.pdf"), "deleting twice is fine")
}

func TestLocalStore_StaysUnderRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := blobstore.NewLocal(root, "/files")

	loc, err := s.Put(ctx, "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/files/escape.txt", loc)

	ok, err := afero.Exists(afero.NewOsFs(), root+"/escape.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPut_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := blobstore.NewMemory().Put(ctx, "a/b", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}
